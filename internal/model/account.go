package model

import "github.com/shopspring/decimal"

// RootType classifies accounts in the chart of accounts.
type RootType string

const (
	RootTypeAsset     RootType = "Asset"
	RootTypeLiability RootType = "Liability"
	RootTypeEquity    RootType = "Equity"
	RootTypeIncome    RootType = "Income"
	RootTypeExpense   RootType = "Expense"
)

// Valid reports whether r is one of the five root types.
func (r RootType) Valid() bool {
	switch r {
	case RootTypeAsset, RootTypeLiability, RootTypeEquity, RootTypeIncome, RootTypeExpense:
		return true
	}
	return false
}

// DebitNormal reports whether a debit increases the balance of an account
// with this root type. Asset and Expense accounts are debit-normal; the
// rest are credit-normal.
func (r RootType) DebitNormal() bool {
	return r == RootTypeAsset || r == RootTypeExpense
}

// SignedDelta returns the change to an account balance caused by posting
// debit and credit against it.
func (r RootType) SignedDelta(debit, credit decimal.Decimal) decimal.Decimal {
	if r.DebitNormal() {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// Account represents a row in the chart of accounts.
type Account struct {
	Name        string
	RootType    RootType
	Balance     decimal.Decimal // running total, mutated only by postings
	Description string
}

// BalanceDelta is a signed change to apply to Account.Balance.
type BalanceDelta struct {
	Account string
	Delta   decimal.Decimal
}
