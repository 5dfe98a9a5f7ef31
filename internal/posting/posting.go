// Package posting accumulates the double-entry ledger rows of one document
// and commits or reverses them together with the account balance changes.
package posting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/money"
	"github.com/cleared-dev/books/internal/store"
)

// RoundOffAllowance is the largest imbalance MakeRoundOffEntry will absorb.
var RoundOffAllowance = decimal.RequireFromString("0.5")

// AccountDirectory resolves the root type of an account.
type AccountDirectory interface {
	RootType(ctx context.Context, account string) (model.RootType, error)
}

// Settings names the accounts postings may fall back on.
type Settings struct {
	WriteOffAccount string
	RoundOffAccount string
}

// Reference identifies the document a posting belongs to.
type Reference struct {
	Type        model.Schema
	Name        string
	Party       string
	Date        time.Time
	Description string
	Currency    string
}

type row struct {
	account       string
	referenceType model.Schema
	referenceName string
	debit         decimal.Decimal
	credit        decimal.Decimal
}

// Posting holds one row per account, in the order accounts were first used.
type Posting struct {
	dir      AccountDirectory
	settings Settings
	ref      Reference
	rows     []*row
	byAcct   map[string]*row
	money    *money.Formatter
	now      func() time.Time
}

// Option configures a Posting.
type Option func(*Posting)

// WithFormatter sets the formatter used for amounts in error messages. The
// default renders English digits with the reference's currency.
func WithFormatter(f *money.Formatter) Option {
	return func(p *Posting) {
		if f != nil {
			p.money = f
		}
	}
}

// New starts an empty posting for ref.
func New(dir AccountDirectory, settings Settings, ref Reference, opts ...Option) *Posting {
	p := &Posting{
		dir:      dir,
		settings: settings,
		ref:      ref,
		byAcct:   make(map[string]*row),
		money:    money.NewFormatter("en", ref.Currency),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Reference returns the document the posting belongs to.
func (p *Posting) Reference() Reference {
	return p.ref
}

type entryOptions struct {
	referenceType model.Schema
	referenceName string
}

// EntryOption adjusts a row when Debit or Credit first creates it.
type EntryOption func(*entryOptions)

// WithReference records the row against another document than the posting's.
func WithReference(referenceType model.Schema, referenceName string) EntryOption {
	return func(o *entryOptions) {
		o.referenceType = referenceType
		o.referenceName = referenceName
	}
}

// Debit adds amount to the debit column of account's row.
func (p *Posting) Debit(account string, amount decimal.Decimal, opts ...EntryOption) {
	r := p.rowFor(account, opts)
	r.debit = r.debit.Add(amount)
}

// Credit adds amount to the credit column of account's row.
func (p *Posting) Credit(account string, amount decimal.Decimal, opts ...EntryOption) {
	r := p.rowFor(account, opts)
	r.credit = r.credit.Add(amount)
}

func (p *Posting) rowFor(account string, opts []EntryOption) *row {
	if r, ok := p.byAcct[account]; ok {
		return r
	}
	o := entryOptions{referenceType: p.ref.Type, referenceName: p.ref.Name}
	for _, opt := range opts {
		opt(&o)
	}
	r := &row{
		account:       account,
		referenceType: o.referenceType,
		referenceName: o.referenceName,
	}
	p.rows = append(p.rows, r)
	p.byAcct[account] = r
	return r
}

// Totals returns the sum of the debit and credit columns.
func (p *Posting) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, r := range p.rows {
		debit = debit.Add(r.debit)
		credit = credit.Add(r.credit)
	}
	return debit, credit
}

// Entries returns the uncommitted ledger rows. IDs and timestamps are
// assigned when the posting is committed.
func (p *Posting) Entries() []model.LedgerEntry {
	out := make([]model.LedgerEntry, 0, len(p.rows))
	for _, r := range p.rows {
		out = append(out, model.LedgerEntry{
			Account:       r.account,
			Party:         p.ref.Party,
			Date:          p.ref.Date,
			ReferenceType: string(r.referenceType),
			ReferenceName: r.referenceName,
			Description:   p.ref.Description,
			Debit:         r.debit,
			Credit:        r.credit,
		})
	}
	return out
}

// UnbalancedError reports a posting whose debit and credit totals differ.
type UnbalancedError struct {
	Reference Reference
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	formatter *money.Formatter
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("%s %s is unbalanced: total debit %s does not equal total credit %s",
		e.Reference.Type, e.Reference.Name, e.formatter.Format(e.Debit), e.formatter.Format(e.Credit))
}

func (e *UnbalancedError) Unwrap() error {
	return apperrors.ErrValidation
}

// ValidateEntries fails with *UnbalancedError unless the debit and credit
// totals are exactly equal.
func (p *Posting) ValidateEntries() error {
	debit, credit := p.Totals()
	if debit.Equal(credit) {
		return nil
	}
	return &UnbalancedError{
		Reference: p.ref,
		Debit:     debit,
		Credit:    credit,
		formatter: p.money,
	}
}

// MakeRoundOffEntry books a difference of at most RoundOffAllowance to the
// round-off account on the side that balances the posting. Larger
// differences are left for ValidateEntries to reject.
func (p *Posting) MakeRoundOffEntry() error {
	debit, credit := p.Totals()
	diff := debit.Sub(credit)
	if diff.IsZero() || diff.Abs().GreaterThan(RoundOffAllowance) {
		return nil
	}
	if p.settings.RoundOffAccount == "" {
		return apperrors.Validation("round_off_account",
			"round off account is not set, cannot book difference of %s for %s %s",
			p.money.Format(diff.Abs()), p.ref.Type, p.ref.Name)
	}
	if diff.IsPositive() {
		p.Credit(p.settings.RoundOffAccount, diff)
	} else {
		p.Debit(p.settings.RoundOffAccount, diff.Abs())
	}
	return nil
}

// Post validates the posting, appends its rows and applies the balance
// changes.
func (p *Posting) Post(ctx context.Context, w store.LedgerWriter) error {
	if err := p.ValidateEntries(); err != nil {
		return err
	}
	deltas, err := p.deltas(ctx, false)
	if err != nil {
		return err
	}
	if err := w.InsertLedgerEntries(ctx, p.commitEntries(false)); err != nil {
		return fmt.Errorf("inserting ledger entries: %w", err)
	}
	return applyDeltas(ctx, w, deltas)
}

// PostReverse flags every live row of the reference as reverted, appends
// this posting's rows with debit and credit swapped, and undoes the
// balance changes.
func (p *Posting) PostReverse(ctx context.Context, w store.LedgerWriter) error {
	if err := p.ValidateEntries(); err != nil {
		return err
	}
	deltas, err := p.deltas(ctx, true)
	if err != nil {
		return err
	}
	if _, err := w.RevertLedgerEntries(ctx, string(p.ref.Type), p.ref.Name); err != nil {
		return fmt.Errorf("reverting ledger entries: %w", err)
	}
	if err := w.InsertLedgerEntries(ctx, p.commitEntries(true)); err != nil {
		return fmt.Errorf("inserting reversal entries: %w", err)
	}
	return applyDeltas(ctx, w, deltas)
}

func (p *Posting) commitEntries(reverse bool) []model.LedgerEntry {
	now := p.now().UTC()
	entries := p.Entries()
	for i := range entries {
		e := &entries[i]
		e.ID = uuid.New()
		e.CreatedAt = now
		if reverse {
			e.Debit, e.Credit = e.Credit, e.Debit
			e.Reverted = true
		}
	}
	return entries
}

// deltas resolves each row's signed balance change from the account's
// stored root type.
func (p *Posting) deltas(ctx context.Context, negate bool) ([]model.BalanceDelta, error) {
	out := make([]model.BalanceDelta, 0, len(p.rows))
	for _, r := range p.rows {
		rootType, err := p.dir.RootType(ctx, r.account)
		if err != nil {
			return nil, fmt.Errorf("resolving account %s: %w", r.account, err)
		}
		delta := rootType.SignedDelta(r.debit, r.credit)
		if negate {
			delta = delta.Neg()
		}
		out = append(out, model.BalanceDelta{Account: r.account, Delta: delta})
	}
	return out, nil
}

func applyDeltas(ctx context.Context, w store.LedgerWriter, deltas []model.BalanceDelta) error {
	for _, d := range deltas {
		if d.Delta.IsZero() {
			continue
		}
		if err := w.AddAccountBalance(ctx, d.Account, d.Delta); err != nil {
			return fmt.Errorf("updating balance of %s: %w", d.Account, err)
		}
	}
	return nil
}
