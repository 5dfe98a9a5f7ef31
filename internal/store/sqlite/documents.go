package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/store"
)

// Number series

func (s *Store) GetSeries(ctx context.Context, name string) (*model.NumberSeries, error) {
	var (
		ns      model.NumberSeries
		current sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT name, start, current, pad_zeros, reference_type
		FROM number_series
		WHERE name = ?
	`, name).Scan(&ns.Name, &ns.Start, &current, &ns.PadZeros, &ns.ReferenceType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("NumberSeries", name)
	}
	if err != nil {
		return nil, fmt.Errorf("querying number series %q: %w", name, err)
	}
	if current.Valid {
		c := int(current.Int64)
		ns.Current = &c
	}
	return &ns, nil
}

func (s *Store) SaveSeries(ctx context.Context, ns model.NumberSeries) error {
	var current sql.NullInt64
	if ns.Current != nil {
		current = sql.NullInt64{Int64: int64(*ns.Current), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO number_series (name, start, current, pad_zeros, reference_type)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			start = excluded.start,
			current = excluded.current,
			pad_zeros = excluded.pad_zeros,
			reference_type = excluded.reference_type
	`, ns.Name, ns.Start, current, ns.PadZeros, ns.ReferenceType)
	if err != nil {
		return fmt.Errorf("saving number series %q: %w", ns.Name, err)
	}
	return nil
}

// Invoices

const invoiceColumns = `schema, name, party, account, date, currency, exchange_rate,
		       items, taxes, net_total, grand_total, outstanding, submitted, cancelled`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(r rowScanner) (*model.Invoice, error) {
	var (
		inv          model.Invoice
		date         string
		items, taxes string
		outstanding  decimal.NullDecimal
	)
	err := r.Scan(&inv.Schema, &inv.Name, &inv.Party, &inv.Account, &date, &inv.Currency, &inv.ExchangeRate,
		&items, &taxes, &inv.NetTotal, &inv.GrandTotal, &outstanding, &inv.Submitted, &inv.Cancelled)
	if err != nil {
		return nil, err
	}
	if inv.Date, err = time.Parse(dateFormat, date); err != nil {
		return nil, fmt.Errorf("parsing invoice date %q: %w", date, err)
	}
	if err := json.Unmarshal([]byte(items), &inv.Items); err != nil {
		return nil, fmt.Errorf("decoding items of %s: %w", inv.Name, err)
	}
	if err := json.Unmarshal([]byte(taxes), &inv.Taxes); err != nil {
		return nil, fmt.Errorf("decoding taxes of %s: %w", inv.Name, err)
	}
	if outstanding.Valid {
		inv.SetOutstanding(outstanding.Decimal)
	}
	return &inv, nil
}

func (s *Store) GetInvoice(ctx context.Context, schema model.Schema, name string) (*model.Invoice, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+`
		FROM invoices
		WHERE schema = ? AND name = ?
	`, string(schema), name)
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound(string(schema), name)
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s %q: %w", schema, name, err)
	}
	return inv, nil
}

func (s *Store) SaveInvoice(ctx context.Context, inv *model.Invoice) error {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return fmt.Errorf("encoding items: %w", err)
	}
	taxes, err := json.Marshal(inv.Taxes)
	if err != nil {
		return fmt.Errorf("encoding taxes: %w", err)
	}
	var outstanding sql.NullString
	if inv.OutstandingAmount != nil {
		outstanding = sql.NullString{String: inv.OutstandingAmount.String(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (schema, name) DO UPDATE SET
			party = excluded.party,
			account = excluded.account,
			date = excluded.date,
			currency = excluded.currency,
			exchange_rate = excluded.exchange_rate,
			items = excluded.items,
			taxes = excluded.taxes,
			net_total = excluded.net_total,
			grand_total = excluded.grand_total,
			outstanding = excluded.outstanding,
			submitted = excluded.submitted,
			cancelled = excluded.cancelled
	`,
		string(inv.Schema), inv.Name, inv.Party, inv.Account, inv.Date.Format(dateFormat), inv.Currency,
		inv.ExchangeRate.String(), string(items), string(taxes), inv.NetTotal.String(), inv.GrandTotal.String(),
		outstanding, boolToInt(inv.Submitted), boolToInt(inv.Cancelled),
	)
	if err != nil {
		return mapConstraintErr(err, fmt.Sprintf("saving %s %q", inv.Schema, inv.Name))
	}
	return nil
}

func (s *Store) ListInvoices(ctx context.Context, f store.InvoiceFilter) ([]model.Invoice, error) {
	var (
		where []string
		args  []any
	)
	if f.Schema != "" {
		where = append(where, "schema = ?")
		args = append(args, string(f.Schema))
	}
	if f.Party != "" {
		where = append(where, "party = ?")
		args = append(args, f.Party)
	}
	if f.SubmittedOnly {
		where = append(where, "submitted = 1 AND cancelled = 0")
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying invoices: %w", err)
	}
	defer rows.Close()

	var out []model.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invoice: %w", err)
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

// Journal entries

func (s *Store) GetJournalEntry(ctx context.Context, name string) (*model.JournalEntry, error) {
	var (
		je             model.JournalEntry
		date, accounts string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT name, entry_type, date, accounts, user_remark, submitted, cancelled
		FROM journal_entries
		WHERE name = ?
	`, name).Scan(&je.Name, &je.EntryType, &date, &accounts, &je.UserRemark, &je.Submitted, &je.Cancelled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound(string(model.SchemaJournalEntry), name)
	}
	if err != nil {
		return nil, fmt.Errorf("querying journal entry %q: %w", name, err)
	}
	if je.Date, err = time.Parse(dateFormat, date); err != nil {
		return nil, fmt.Errorf("parsing journal entry date %q: %w", date, err)
	}
	if err := json.Unmarshal([]byte(accounts), &je.Accounts); err != nil {
		return nil, fmt.Errorf("decoding accounts of %s: %w", name, err)
	}
	return &je, nil
}

func (s *Store) SaveJournalEntry(ctx context.Context, je *model.JournalEntry) error {
	accounts, err := json.Marshal(je.Accounts)
	if err != nil {
		return fmt.Errorf("encoding accounts: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO journal_entries (name, entry_type, date, accounts, user_remark, submitted, cancelled)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			entry_type = excluded.entry_type,
			date = excluded.date,
			accounts = excluded.accounts,
			user_remark = excluded.user_remark,
			submitted = excluded.submitted,
			cancelled = excluded.cancelled
	`, je.Name, je.EntryType, je.Date.Format(dateFormat), string(accounts), je.UserRemark,
		boolToInt(je.Submitted), boolToInt(je.Cancelled))
	if err != nil {
		return mapConstraintErr(err, fmt.Sprintf("saving journal entry %q", je.Name))
	}
	return nil
}

// Payments

func (s *Store) GetPayment(ctx context.Context, name string) (*model.Payment, error) {
	var (
		p    model.Payment
		date string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT name, payment_type, party, account, payment_account, amount, writeoff, date, submitted, cancelled
		FROM payments
		WHERE name = ?
	`, name).Scan(&p.Name, &p.PaymentType, &p.Party, &p.Account, &p.PaymentAccount,
		&p.Amount, &p.WriteOff, &date, &p.Submitted, &p.Cancelled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound(string(model.SchemaPayment), name)
	}
	if err != nil {
		return nil, fmt.Errorf("querying payment %q: %w", name, err)
	}
	if p.Date, err = time.Parse(dateFormat, date); err != nil {
		return nil, fmt.Errorf("parsing payment date %q: %w", date, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT reference_type, reference_name, amount
		FROM payment_references
		WHERE payment = ?
		ORDER BY idx
	`, name)
	if err != nil {
		return nil, fmt.Errorf("querying references of %q: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var f model.PaymentFor
		if err := rows.Scan(&f.ReferenceType, &f.ReferenceName, &f.Amount); err != nil {
			return nil, fmt.Errorf("scanning payment reference: %w", err)
		}
		p.For = append(p.For, f)
	}
	return &p, rows.Err()
}

func (s *Store) SavePayment(ctx context.Context, p *model.Payment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (name, payment_type, party, account, payment_account, amount, writeoff, date, submitted, cancelled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			payment_type = excluded.payment_type,
			party = excluded.party,
			account = excluded.account,
			payment_account = excluded.payment_account,
			amount = excluded.amount,
			writeoff = excluded.writeoff,
			date = excluded.date,
			submitted = excluded.submitted,
			cancelled = excluded.cancelled
	`, p.Name, string(p.PaymentType), p.Party, p.Account, p.PaymentAccount,
		p.Amount.String(), p.WriteOff.String(), p.Date.Format(dateFormat),
		boolToInt(p.Submitted), boolToInt(p.Cancelled))
	if err != nil {
		return mapConstraintErr(err, fmt.Sprintf("saving payment %q", p.Name))
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM payment_references WHERE payment = ?`, p.Name); err != nil {
		return fmt.Errorf("clearing references of %q: %w", p.Name, err)
	}
	for i, f := range p.For {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO payment_references (payment, idx, reference_type, reference_name, amount)
			VALUES (?, ?, ?, ?, ?)
		`, p.Name, i, string(f.ReferenceType), f.ReferenceName, f.Amount.String())
		if err != nil {
			return fmt.Errorf("saving reference %d of %q: %w", i, p.Name, err)
		}
	}
	return nil
}

func (s *Store) ListPaymentsFor(ctx context.Context, schema model.Schema, name string) ([]model.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT payment
		FROM payment_references
		WHERE reference_type = ? AND reference_name = ?
		ORDER BY payment
	`, string(schema), name)
	if err != nil {
		return nil, fmt.Errorf("querying payments for %s %q: %w", schema, name, err)
	}

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning payment name: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	out := make([]model.Payment, 0, len(names))
	for _, n := range names {
		p, err := s.GetPayment(ctx, n)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// Parties

func (s *Store) GetParty(ctx context.Context, name string) (*model.Party, error) {
	var p model.Party
	err := s.db.QueryRowContext(ctx, `
		SELECT name, role, outstanding
		FROM parties
		WHERE name = ?
	`, name).Scan(&p.Name, &p.Role, &p.OutstandingAmount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound(string(model.SchemaParty), name)
	}
	if err != nil {
		return nil, fmt.Errorf("querying party %q: %w", name, err)
	}
	return &p, nil
}

func (s *Store) SaveParty(ctx context.Context, p *model.Party) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO parties (name, role, outstanding)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			role = excluded.role,
			outstanding = excluded.outstanding
	`, p.Name, string(p.Role), p.OutstandingAmount.String())
	if err != nil {
		return mapConstraintErr(err, fmt.Sprintf("saving party %q", p.Name))
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, schema model.Schema, name string) (bool, error) {
	var query string
	args := []any{name}
	switch schema {
	case model.SchemaSalesInvoice, model.SchemaPurchaseInvoice:
		query = `SELECT 1 FROM invoices WHERE name = ? AND schema = ?`
		args = append(args, string(schema))
	case model.SchemaJournalEntry:
		query = `SELECT 1 FROM journal_entries WHERE name = ?`
	case model.SchemaPayment:
		query = `SELECT 1 FROM payments WHERE name = ?`
	case model.SchemaAccount:
		query = `SELECT 1 FROM accounts WHERE name = ?`
	case model.SchemaParty:
		query = `SELECT 1 FROM parties WHERE name = ?`
	default:
		return false, apperrors.Validation("schema", "unknown schema %q", schema)
	}

	var one int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s %q: %w", schema, name, err)
	}
	return true, nil
}
