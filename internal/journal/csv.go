package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/model"
)

// Header is the CSV header of a ledger export.
const Header = "entry_id,date,account,party,reference_type,reference_name,description,debit,credit,reverted,created_at"

const (
	numFields    = 11
	dateFormat   = "2006-01-02"
	colEntryID   = 0
	colDate      = 1
	colAccount   = 2
	colParty     = 3
	colRefType   = 4
	colRefName   = 5
	colDesc      = 6
	colDebit     = 7
	colCredit    = 8
	colReverted  = 9
	colCreatedAt = 10
)

// ReadEntries reads all ledger entries from an export.
func ReadEntries(r io.Reader) ([]model.LedgerEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var entries []model.LedgerEntry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// WriteEntries writes entries to w, header first.
func WriteEntries(w io.Writer, entries []model.LedgerEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// AppendEntries writes entries to w without a header.
func AppendEntries(w io.Writer, entries []model.LedgerEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	return cw.Error()
}

// MarshalEntry converts a ledger entry to a CSV row.
func MarshalEntry(e model.LedgerEntry) []string {
	row := make([]string, numFields)
	if e.ID != uuid.Nil {
		row[colEntryID] = e.ID.String()
	}
	row[colDate] = e.Date.Format(dateFormat)
	row[colAccount] = e.Account
	row[colParty] = e.Party
	row[colRefType] = e.ReferenceType
	row[colRefName] = e.ReferenceName
	row[colDesc] = e.Description

	if !e.Debit.IsZero() {
		row[colDebit] = e.Debit.StringFixed(2)
	}
	if !e.Credit.IsZero() {
		row[colCredit] = e.Credit.StringFixed(2)
	}

	row[colReverted] = strconv.FormatBool(e.Reverted)
	if !e.CreatedAt.IsZero() {
		row[colCreatedAt] = e.CreatedAt.UTC().Format(time.RFC3339)
	}
	return row
}

// UnmarshalEntry converts a CSV row to a ledger entry.
func UnmarshalEntry(record []string) (model.LedgerEntry, error) {
	if len(record) != numFields {
		return model.LedgerEntry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	var (
		e   model.LedgerEntry
		err error
	)

	if record[colEntryID] != "" {
		e.ID, err = uuid.Parse(record[colEntryID])
		if err != nil {
			return model.LedgerEntry{}, fmt.Errorf("parsing entry_id %q: %w", record[colEntryID], err)
		}
	}

	e.Date, err = time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.LedgerEntry{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	if record[colDebit] != "" {
		e.Debit, err = decimal.NewFromString(record[colDebit])
		if err != nil {
			return model.LedgerEntry{}, fmt.Errorf("parsing debit %q: %w", record[colDebit], err)
		}
	}
	if record[colCredit] != "" {
		e.Credit, err = decimal.NewFromString(record[colCredit])
		if err != nil {
			return model.LedgerEntry{}, fmt.Errorf("parsing credit %q: %w", record[colCredit], err)
		}
	}

	if record[colReverted] != "" {
		e.Reverted, err = strconv.ParseBool(record[colReverted])
		if err != nil {
			return model.LedgerEntry{}, fmt.Errorf("parsing reverted %q: %w", record[colReverted], err)
		}
	}

	if record[colCreatedAt] != "" {
		e.CreatedAt, err = time.Parse(time.RFC3339, record[colCreatedAt])
		if err != nil {
			return model.LedgerEntry{}, fmt.Errorf("parsing created_at %q: %w", record[colCreatedAt], err)
		}
	}

	e.Account = record[colAccount]
	e.Party = record[colParty]
	e.ReferenceType = record[colRefType]
	e.ReferenceName = record[colRefName]
	e.Description = record[colDesc]
	return e, nil
}
