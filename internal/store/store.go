// Package store defines the document store the ledger core runs against.
// Adapters live in store/memory and store/sqlite.
package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/model"
)

// AccountReader looks up accounts by name.
type AccountReader interface {
	GetAccount(ctx context.Context, name string) (*model.Account, error)
}

// LedgerWriter is everything a posting needs to commit or reverse itself.
type LedgerWriter interface {
	AccountReader
	InsertLedgerEntries(ctx context.Context, entries []model.LedgerEntry) error
	// RevertLedgerEntries flags every non-reverted row of the reference as
	// reverted and returns how many rows changed.
	RevertLedgerEntries(ctx context.Context, referenceType, referenceName string) (int, error)
	AddAccountBalance(ctx context.Context, account string, delta decimal.Decimal) error
}

// Store is the full document store.
type Store interface {
	LedgerWriter

	ListAccounts(ctx context.Context) ([]model.Account, error)
	CreateAccount(ctx context.Context, a model.Account) error
	ListLedgerEntries(ctx context.Context, f model.LedgerFilter) ([]model.LedgerEntry, error)

	GetSeries(ctx context.Context, name string) (*model.NumberSeries, error)
	SaveSeries(ctx context.Context, s model.NumberSeries) error

	GetInvoice(ctx context.Context, schema model.Schema, name string) (*model.Invoice, error)
	SaveInvoice(ctx context.Context, inv *model.Invoice) error
	ListInvoices(ctx context.Context, f InvoiceFilter) ([]model.Invoice, error)

	GetJournalEntry(ctx context.Context, name string) (*model.JournalEntry, error)
	SaveJournalEntry(ctx context.Context, je *model.JournalEntry) error

	GetPayment(ctx context.Context, name string) (*model.Payment, error)
	SavePayment(ctx context.Context, p *model.Payment) error
	// ListPaymentsFor returns payments allocating to schema/name, in name order.
	ListPaymentsFor(ctx context.Context, schema model.Schema, name string) ([]model.Payment, error)

	GetParty(ctx context.Context, name string) (*model.Party, error)
	SaveParty(ctx context.Context, p *model.Party) error

	// Exists reports whether a document named name exists under schema.
	Exists(ctx context.Context, schema model.Schema, name string) (bool, error)

	// Tx runs fn against a transactional view of the store. fn's writes are
	// committed when it returns nil and discarded otherwise.
	Tx(ctx context.Context, fn func(Store) error) error

	Close() error
}

// InvoiceFilter selects invoices. Empty fields match everything.
type InvoiceFilter struct {
	Schema        model.Schema
	Party         string
	SubmittedOnly bool // submitted and not cancelled
}

// Match reports whether inv passes the filter.
func (f InvoiceFilter) Match(inv *model.Invoice) bool {
	if f.Schema != "" && inv.Schema != f.Schema {
		return false
	}
	if f.Party != "" && inv.Party != f.Party {
		return false
	}
	if f.SubmittedOnly && inv.Status() != model.StatusSubmitted {
		return false
	}
	return true
}
