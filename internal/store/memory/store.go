// Package memory is an in-process Store used by tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/store"
)

type state struct {
	accounts map[string]model.Account
	ledger   []model.LedgerEntry
	series   map[string]model.NumberSeries
	invoices map[string]model.Invoice // key: schema + "/" + name
	journals map[string]model.JournalEntry
	payments map[string]model.Payment
	parties  map[string]model.Party
}

func newState() state {
	return state{
		accounts: make(map[string]model.Account),
		series:   make(map[string]model.NumberSeries),
		invoices: make(map[string]model.Invoice),
		journals: make(map[string]model.JournalEntry),
		payments: make(map[string]model.Payment),
		parties:  make(map[string]model.Party),
	}
}

func (s state) clone() state {
	c := newState()
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	c.ledger = slices.Clone(s.ledger)
	for k, v := range s.series {
		c.series[k] = cloneSeries(v)
	}
	for k, v := range s.invoices {
		c.invoices[k] = cloneInvoice(v)
	}
	for k, v := range s.journals {
		v.Accounts = slices.Clone(v.Accounts)
		c.journals[k] = v
	}
	for k, v := range s.payments {
		v.For = slices.Clone(v.For)
		c.payments[k] = v
	}
	for k, v := range s.parties {
		c.parties[k] = v
	}
	return c
}

// Store keeps everything in maps guarded by one mutex.
type Store struct {
	mu   sync.RWMutex
	data state
	inTx bool
}

var _ store.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{data: newState()}
}

func invoiceKey(schema model.Schema, name string) string {
	return string(schema) + "/" + name
}

func cloneSeries(s model.NumberSeries) model.NumberSeries {
	if s.Current != nil {
		cur := *s.Current
		s.Current = &cur
	}
	return s
}

func cloneInvoice(inv model.Invoice) model.Invoice {
	inv.Items = slices.Clone(inv.Items)
	inv.Taxes = slices.Clone(inv.Taxes)
	if inv.OutstandingAmount != nil {
		o := *inv.OutstandingAmount
		inv.OutstandingAmount = &o
	}
	return inv
}

// Accounts

func (s *Store) GetAccount(_ context.Context, name string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.data.accounts[name]
	if !ok {
		return nil, apperrors.NotFound(string(model.SchemaAccount), name)
	}
	return &a, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Account, 0, len(s.data.accounts))
	for _, a := range s.data.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateAccount(_ context.Context, a model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data.accounts[a.Name]; exists {
		return fmt.Errorf("account %q: %w", a.Name, apperrors.ErrDuplicate)
	}
	s.data.accounts[a.Name] = a
	return nil
}

func (s *Store) AddAccountBalance(_ context.Context, account string, delta decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.data.accounts[account]
	if !ok {
		return apperrors.NotFound(string(model.SchemaAccount), account)
	}
	a.Balance = a.Balance.Add(delta)
	s.data.accounts[account] = a
	return nil
}

// Ledger

func (s *Store) InsertLedgerEntries(_ context.Context, entries []model.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.ledger = append(s.data.ledger, entries...)
	return nil
}

func (s *Store) RevertLedgerEntries(_ context.Context, referenceType, referenceName string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for i := range s.data.ledger {
		e := &s.data.ledger[i]
		if e.ReferenceType == referenceType && e.ReferenceName == referenceName && !e.Reverted {
			e.Reverted = true
			n++
		}
	}
	return n, nil
}

func (s *Store) ListLedgerEntries(_ context.Context, f model.LedgerFilter) ([]model.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.LedgerEntry
	for _, e := range s.data.ledger {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Number series

func (s *Store) GetSeries(_ context.Context, name string) (*model.NumberSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ns, ok := s.data.series[name]
	if !ok {
		return nil, apperrors.NotFound("NumberSeries", name)
	}
	ns = cloneSeries(ns)
	return &ns, nil
}

func (s *Store) SaveSeries(_ context.Context, ns model.NumberSeries) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.series[ns.Name] = cloneSeries(ns)
	return nil
}

// Invoices

func (s *Store) GetInvoice(_ context.Context, schema model.Schema, name string) (*model.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.data.invoices[invoiceKey(schema, name)]
	if !ok {
		return nil, apperrors.NotFound(string(schema), name)
	}
	inv = cloneInvoice(inv)
	return &inv, nil
}

func (s *Store) SaveInvoice(_ context.Context, inv *model.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.invoices[invoiceKey(inv.Schema, inv.Name)] = cloneInvoice(*inv)
	return nil
}

func (s *Store) ListInvoices(_ context.Context, f store.InvoiceFilter) ([]model.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Invoice
	for _, inv := range s.data.invoices {
		if f.Match(&inv) {
			out = append(out, cloneInvoice(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Journal entries

func (s *Store) GetJournalEntry(_ context.Context, name string) (*model.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	je, ok := s.data.journals[name]
	if !ok {
		return nil, apperrors.NotFound(string(model.SchemaJournalEntry), name)
	}
	je.Accounts = slices.Clone(je.Accounts)
	return &je, nil
}

func (s *Store) SaveJournalEntry(_ context.Context, je *model.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *je
	c.Accounts = slices.Clone(je.Accounts)
	s.data.journals[je.Name] = c
	return nil
}

// Payments

func (s *Store) GetPayment(_ context.Context, name string) (*model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data.payments[name]
	if !ok {
		return nil, apperrors.NotFound(string(model.SchemaPayment), name)
	}
	p.For = slices.Clone(p.For)
	return &p, nil
}

func (s *Store) SavePayment(_ context.Context, p *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *p
	c.For = slices.Clone(p.For)
	s.data.payments[p.Name] = c
	return nil
}

func (s *Store) ListPaymentsFor(_ context.Context, schema model.Schema, name string) ([]model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Payment
	for _, p := range s.data.payments {
		if p.References(schema, name) {
			p.For = slices.Clone(p.For)
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Parties

func (s *Store) GetParty(_ context.Context, name string) (*model.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data.parties[name]
	if !ok {
		return nil, apperrors.NotFound(string(model.SchemaParty), name)
	}
	return &p, nil
}

func (s *Store) SaveParty(_ context.Context, p *model.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.parties[p.Name] = *p
	return nil
}

func (s *Store) Exists(_ context.Context, schema model.Schema, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ok bool
	switch schema {
	case model.SchemaSalesInvoice, model.SchemaPurchaseInvoice:
		_, ok = s.data.invoices[invoiceKey(schema, name)]
	case model.SchemaJournalEntry:
		_, ok = s.data.journals[name]
	case model.SchemaPayment:
		_, ok = s.data.payments[name]
	case model.SchemaAccount:
		_, ok = s.data.accounts[name]
	case model.SchemaParty:
		_, ok = s.data.parties[name]
	default:
		return false, apperrors.Validation("schema", "unknown schema %q", schema)
	}
	return ok, nil
}

// Tx snapshots the state and restores it if fn fails. Nested calls run fn
// inside the outer transaction.
func (s *Store) Tx(_ context.Context, fn func(store.Store) error) error {
	s.mu.Lock()
	if s.inTx {
		s.mu.Unlock()
		return fn(s)
	}
	snapshot := s.data.clone()
	s.inTx = true
	s.mu.Unlock()

	err := fn(s)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inTx = false
	if err != nil {
		s.data = snapshot
	}
	return err
}

func (s *Store) Close() error {
	return nil
}
