package accounts

import "github.com/cleared-dev/books/internal/model"

// Names of accounts the default configuration refers to.
const (
	Debtors    = "Debtors"
	Creditors  = "Creditors"
	Cash       = "Cash"
	Bank       = "Bank"
	Sales      = "Sales"
	Purchases  = "Purchases"
	TaxPayable = "TaxPayable"
	WriteOff   = "Write Off"
	RoundOff   = "Round Off"
)

// DefaultChart returns the chart of accounts seeded by `books init`.
func DefaultChart() []model.Account {
	return []model.Account{
		{Name: Cash, RootType: model.RootTypeAsset, Description: "Cash in hand"},
		{Name: Bank, RootType: model.RootTypeAsset, Description: "Primary bank account"},
		{Name: Debtors, RootType: model.RootTypeAsset, Description: "Amounts receivable from customers"},
		{Name: Creditors, RootType: model.RootTypeLiability, Description: "Amounts payable to suppliers"},
		{Name: TaxPayable, RootType: model.RootTypeLiability, Description: "Sales tax collected"},
		{Name: "Owner's Equity", RootType: model.RootTypeEquity},
		{Name: Sales, RootType: model.RootTypeIncome},
		{Name: "Service Revenue", RootType: model.RootTypeIncome},
		{Name: Purchases, RootType: model.RootTypeExpense, Description: "Cost of goods purchased"},
		{Name: "Office Supplies", RootType: model.RootTypeExpense},
		{Name: WriteOff, RootType: model.RootTypeExpense, Description: "Small balances written off on payment"},
		{Name: RoundOff, RootType: model.RootTypeExpense, Description: "Rounding differences on invoices"},
	}
}
