package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntry is one audit row: the debit and/or credit against one account
// for one reference document. Rows are append-only; only Reverted changes.
type LedgerEntry struct {
	ID            uuid.UUID
	Account       string
	Party         string
	Date          time.Time
	ReferenceType string
	ReferenceName string
	Description   string
	Debit         decimal.Decimal
	Credit        decimal.Decimal
	Reverted      bool
	CreatedAt     time.Time
}

// LedgerFilter selects ledger rows. Empty fields match everything.
type LedgerFilter struct {
	ReferenceType   string
	ReferenceName   string
	Account         string
	Party           string
	From            time.Time // inclusive, zero = unbounded
	To              time.Time // inclusive, zero = unbounded
	IncludeReverted bool
}

// Match reports whether e passes the filter.
func (f LedgerFilter) Match(e LedgerEntry) bool {
	if f.ReferenceType != "" && e.ReferenceType != f.ReferenceType {
		return false
	}
	if f.ReferenceName != "" && e.ReferenceName != f.ReferenceName {
		return false
	}
	if f.Account != "" && e.Account != f.Account {
		return false
	}
	if f.Party != "" && e.Party != f.Party {
		return false
	}
	if !f.From.IsZero() && e.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Date.After(f.To) {
		return false
	}
	if !f.IncludeReverted && e.Reverted {
		return false
	}
	return true
}
