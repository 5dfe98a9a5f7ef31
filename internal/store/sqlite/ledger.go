package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/books/internal/model"
)

func (s *Store) InsertLedgerEntries(ctx context.Context, entries []model.LedgerEntry) error {
	for _, e := range entries {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO ledger_entries (
				id, account, party, date, reference_type, reference_name,
				description, debit, credit, reverted, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			e.ID.String(), e.Account, e.Party, e.Date.Format(dateFormat),
			e.ReferenceType, e.ReferenceName, e.Description,
			e.Debit.String(), e.Credit.String(), boolToInt(e.Reverted),
			e.CreatedAt.UTC().Format(timestampFormat),
		)
		if err != nil {
			return mapConstraintErr(err, fmt.Sprintf("ledger entry for %s %s (account: %s)", e.ReferenceType, e.ReferenceName, e.Account))
		}
	}
	return nil
}

func (s *Store) RevertLedgerEntries(ctx context.Context, referenceType, referenceName string) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE ledger_entries
		SET reverted = 1
		WHERE reference_type = ? AND reference_name = ? AND reverted = 0
	`, referenceType, referenceName)
	if err != nil {
		return 0, fmt.Errorf("reverting ledger entries of %s %s: %w", referenceType, referenceName, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting reverted entries: %w", err)
	}
	return int(n), nil
}

func (s *Store) ListLedgerEntries(ctx context.Context, f model.LedgerFilter) ([]model.LedgerEntry, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		where = append(where, clause)
		args = append(args, arg)
	}
	if f.ReferenceType != "" {
		add("reference_type = ?", f.ReferenceType)
	}
	if f.ReferenceName != "" {
		add("reference_name = ?", f.ReferenceName)
	}
	if f.Account != "" {
		add("account = ?", f.Account)
	}
	if f.Party != "" {
		add("party = ?", f.Party)
	}
	if !f.From.IsZero() {
		add("date >= ?", f.From.Format(dateFormat))
	}
	if !f.To.IsZero() {
		add("date <= ?", f.To.Format(dateFormat))
	}
	if !f.IncludeReverted {
		where = append(where, "reverted = 0")
	}

	query := `
		SELECT id, account, party, date, reference_type, reference_name,
		       description, debit, credit, reverted, created_at
		FROM ledger_entries`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\t\tORDER BY seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ledger entries: %w", err)
	}
	defer rows.Close()

	var out []model.LedgerEntry
	for rows.Next() {
		var (
			e               model.LedgerEntry
			date, createdAt string
		)
		err := rows.Scan(&e.ID, &e.Account, &e.Party, &date, &e.ReferenceType, &e.ReferenceName,
			&e.Description, &e.Debit, &e.Credit, &e.Reverted, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}
		if e.Date, err = time.Parse(dateFormat, date); err != nil {
			return nil, fmt.Errorf("parsing ledger date %q: %w", date, err)
		}
		if e.CreatedAt, err = time.Parse(timestampFormat, createdAt); err != nil {
			return nil, fmt.Errorf("parsing ledger timestamp %q: %w", createdAt, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
