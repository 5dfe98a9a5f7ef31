// Package outstanding derives a party's outstanding amount from its
// submitted invoices.
package outstanding

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/store"
)

// Aggregator recomputes party outstanding amounts.
type Aggregator struct {
	store  store.Store
	logger *zap.Logger
}

// New creates an Aggregator. A nil logger discards output.
func New(s store.Store, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{store: s, logger: logger}
}

// WithStore returns a copy bound to st.
func (a *Aggregator) WithStore(st store.Store) *Aggregator {
	return &Aggregator{store: st, logger: a.logger}
}

// RoleFor returns the role a party referenced by a document of schema
// should have, given its current role ("" when the party is new).
func RoleFor(current model.PartyRole, schema model.Schema) model.PartyRole {
	var want model.PartyRole
	switch schema {
	case model.SchemaSalesInvoice:
		want = model.RoleCustomer
	case model.SchemaPurchaseInvoice:
		want = model.RoleSupplier
	default:
		if current == "" {
			return model.RoleCustomer
		}
		return current
	}
	switch current {
	case "", want:
		return want
	}
	return model.RoleBoth
}

// Touch makes sure a party exists with a role that covers documents of
// schema, creating or promoting it as needed.
func (a *Aggregator) Touch(ctx context.Context, name string, schema model.Schema) (*model.Party, error) {
	p, err := a.store.GetParty(ctx, name)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		p = &model.Party{Name: name}
	case err != nil:
		return nil, fmt.Errorf("loading party %s: %w", name, err)
	}

	role := RoleFor(p.Role, schema)
	if role == p.Role {
		return p, nil
	}
	a.logger.Debug("party role set", zap.String("party", name), zap.String("role", string(role)))
	p.Role = role
	if err := a.store.SaveParty(ctx, p); err != nil {
		return nil, fmt.Errorf("saving party %s: %w", name, err)
	}
	return p, nil
}

// Update recomputes the outstanding amount of a party from scratch:
// customers sum sales invoices, suppliers sum purchase invoices and parties
// with both roles net receivables against payables.
func (a *Aggregator) Update(ctx context.Context, name string) (decimal.Decimal, error) {
	p, err := a.store.GetParty(ctx, name)
	if err != nil {
		return decimal.Zero, fmt.Errorf("loading party %s: %w", name, err)
	}

	invoices, err := a.store.ListInvoices(ctx, store.InvoiceFilter{Party: name, SubmittedOnly: true})
	if err != nil {
		return decimal.Zero, fmt.Errorf("listing invoices of %s: %w", name, err)
	}

	receivable, payable := decimal.Zero, decimal.Zero
	for i := range invoices {
		inv := &invoices[i]
		switch inv.Schema {
		case model.SchemaSalesInvoice:
			receivable = receivable.Add(inv.Outstanding())
		case model.SchemaPurchaseInvoice:
			payable = payable.Add(inv.Outstanding())
		}
	}

	var total decimal.Decimal
	switch p.Role {
	case model.RoleSupplier:
		total = payable
	case model.RoleBoth:
		total = receivable.Sub(payable)
	default:
		total = receivable
	}

	p.OutstandingAmount = total
	if err := a.store.SaveParty(ctx, p); err != nil {
		return decimal.Zero, fmt.Errorf("saving party %s: %w", name, err)
	}
	a.logger.Debug("party outstanding updated",
		zap.String("party", name), zap.String("outstanding", total.String()))
	return total, nil
}
