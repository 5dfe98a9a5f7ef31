package accounts

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/model"
)

const (
	numFields   = 4
	colName     = 0
	colRootType = 1
	colBalance  = 2
	colDesc     = 3
)

// ReadAccounts reads a chart-of-accounts CSV.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes a chart-of-accounts CSV.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"account_name", "root_type", "balance", "description"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colName] = acct.Name
	row[colRootType] = string(acct.RootType)
	row[colBalance] = acct.Balance.StringFixed(2)
	row[colDesc] = acct.Description
	return row
}

// UnmarshalAccount converts a CSV row to an Account. The balance column is
// informational and is never read back; balances only change by posting.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	rootType := model.RootType(record[colRootType])
	if !rootType.Valid() {
		return model.Account{}, fmt.Errorf("parsing root_type %q: unknown root type", record[colRootType])
	}
	if b := record[colBalance]; b != "" {
		if _, err := decimal.NewFromString(b); err != nil {
			return model.Account{}, fmt.Errorf("parsing balance %q: %w", b, err)
		}
	}

	return model.Account{
		Name:        record[colName],
		RootType:    rootType,
		Description: record[colDesc],
	}, nil
}
