package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Schema names a document type. It doubles as the ledger reference type.
type Schema string

const (
	SchemaSalesInvoice    Schema = "SalesInvoice"
	SchemaPurchaseInvoice Schema = "PurchaseInvoice"
	SchemaJournalEntry    Schema = "JournalEntry"
	SchemaPayment         Schema = "Payment"
	SchemaAccount         Schema = "Account"
	SchemaParty           Schema = "Party"
)

// IsInvoice reports whether documents of this schema carry an outstanding amount.
func (s Schema) IsInvoice() bool {
	return s == SchemaSalesInvoice || s == SchemaPurchaseInvoice
}

// DocStatus is the lifecycle state of a submittable document.
type DocStatus string

const (
	StatusDraft     DocStatus = "Draft"
	StatusSubmitted DocStatus = "Submitted"
	StatusCancelled DocStatus = "Cancelled"
)

func statusOf(submitted, cancelled bool) DocStatus {
	switch {
	case cancelled:
		return StatusCancelled
	case submitted:
		return StatusSubmitted
	}
	return StatusDraft
}

// InvoiceItem is one billed line.
type InvoiceItem struct {
	Item     string          `yaml:"item"`
	Account  string          `yaml:"account"`
	Quantity decimal.Decimal `yaml:"quantity"`
	Rate     decimal.Decimal `yaml:"rate"`
	Amount   decimal.Decimal `yaml:"amount"`
}

// TaxRow is one tax charged on the invoice net total.
type TaxRow struct {
	Account string          `yaml:"account"`
	Rate    decimal.Decimal `yaml:"rate"` // percent of net total
	Amount  decimal.Decimal `yaml:"amount"`
}

// Invoice is a sales or purchase invoice.
type Invoice struct {
	Name              string           `yaml:"name"`
	Schema            Schema           `yaml:"schema"`
	Party             string           `yaml:"party"`
	Account           string           `yaml:"account"` // receivable or payable account
	Date              time.Time        `yaml:"date"`
	Currency          string           `yaml:"currency"`
	ExchangeRate      decimal.Decimal  `yaml:"exchange_rate"`
	Items             []InvoiceItem    `yaml:"items"`
	Taxes             []TaxRow         `yaml:"taxes"`
	NetTotal          decimal.Decimal  `yaml:"net_total"`
	GrandTotal        decimal.Decimal  `yaml:"grand_total"`
	OutstandingAmount *decimal.Decimal `yaml:"outstanding_amount,omitempty"`
	Submitted         bool             `yaml:"submitted"`
	Cancelled         bool             `yaml:"cancelled"`
}

// Status returns the lifecycle state.
func (inv *Invoice) Status() DocStatus {
	return statusOf(inv.Submitted, inv.Cancelled)
}

// Rate returns the exchange rate to base currency, defaulting to 1.
func (inv *Invoice) Rate() decimal.Decimal {
	if inv.ExchangeRate.IsZero() {
		return decimal.NewFromInt(1)
	}
	return inv.ExchangeRate
}

// Outstanding returns the unpaid amount, falling back to GrandTotal when
// the invoice has never been submitted.
func (inv *Invoice) Outstanding() decimal.Decimal {
	if inv.OutstandingAmount == nil {
		return inv.GrandTotal
	}
	return *inv.OutstandingAmount
}

// SetOutstanding stores a new outstanding amount.
func (inv *Invoice) SetOutstanding(d decimal.Decimal) {
	inv.OutstandingAmount = &d
}

// CalculateTotals derives item amounts, tax amounts, NetTotal and GrandTotal.
// Explicit amounts are kept; zero amounts are computed from quantity/rate.
func (inv *Invoice) CalculateTotals() {
	hundred := decimal.NewFromInt(100)

	net := decimal.Zero
	for i := range inv.Items {
		it := &inv.Items[i]
		if it.Amount.IsZero() {
			qty := it.Quantity
			if qty.IsZero() {
				qty = decimal.NewFromInt(1)
			}
			it.Amount = qty.Mul(it.Rate).Round(2)
		}
		net = net.Add(it.Amount)
	}
	inv.NetTotal = net

	grand := net
	for i := range inv.Taxes {
		tx := &inv.Taxes[i]
		if tx.Amount.IsZero() && !tx.Rate.IsZero() {
			tx.Amount = net.Mul(tx.Rate).Div(hundred).Round(2)
		}
		grand = grand.Add(tx.Amount)
	}
	inv.GrandTotal = grand
}

// JournalEntryAccount is one row of a journal entry.
type JournalEntryAccount struct {
	Account string          `yaml:"account"`
	Debit   decimal.Decimal `yaml:"debit"`
	Credit  decimal.Decimal `yaml:"credit"`
}

// JournalEntry moves amounts directly between accounts.
type JournalEntry struct {
	Name       string                `yaml:"name"`
	EntryType  string                `yaml:"entry_type"`
	Date       time.Time             `yaml:"date"`
	Accounts   []JournalEntryAccount `yaml:"accounts"`
	UserRemark string                `yaml:"user_remark"`
	Submitted  bool                  `yaml:"submitted"`
	Cancelled  bool                  `yaml:"cancelled"`
}

// Status returns the lifecycle state.
func (je *JournalEntry) Status() DocStatus {
	return statusOf(je.Submitted, je.Cancelled)
}

// PaymentType is the direction of money for a payment.
type PaymentType string

const (
	PaymentReceive PaymentType = "Receive"
	PaymentPay     PaymentType = "Pay"
)

// PaymentFor allocates part of a payment to one transaction.
type PaymentFor struct {
	ReferenceType Schema          `yaml:"reference_type"`
	ReferenceName string          `yaml:"reference_name"`
	Amount        decimal.Decimal `yaml:"amount"`
}

// Payment settles one or more invoices.
type Payment struct {
	Name           string          `yaml:"name"`
	PaymentType    PaymentType     `yaml:"payment_type"`
	Party          string          `yaml:"party"`
	Account        string          `yaml:"account"`         // from
	PaymentAccount string          `yaml:"payment_account"` // to
	Amount         decimal.Decimal `yaml:"amount"`
	WriteOff       decimal.Decimal `yaml:"writeoff"`
	Date           time.Time       `yaml:"date"`
	For            []PaymentFor    `yaml:"for"`
	Submitted      bool            `yaml:"submitted"`
	Cancelled      bool            `yaml:"cancelled"`
}

// Status returns the lifecycle state.
func (p *Payment) Status() DocStatus {
	return statusOf(p.Submitted, p.Cancelled)
}

// ReferenceTotal sums the allocated amounts.
func (p *Payment) ReferenceTotal() decimal.Decimal {
	total := decimal.Zero
	for _, f := range p.For {
		total = total.Add(f.Amount)
	}
	return total
}

// References reports whether the payment allocates to schema/name.
func (p *Payment) References(schema Schema, name string) bool {
	for _, f := range p.For {
		if f.ReferenceType == schema && f.ReferenceName == name {
			return true
		}
	}
	return false
}

// PartyRole tells which invoices count toward a party's outstanding.
type PartyRole string

const (
	RoleCustomer PartyRole = "Customer"
	RoleSupplier PartyRole = "Supplier"
	RoleBoth     PartyRole = "Both"
)

// Party is a customer and/or supplier. OutstandingAmount is derived.
type Party struct {
	Name              string
	Role              PartyRole
	OutstandingAmount decimal.Decimal
}
