package journal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/model"
)

// Checks reported by ValidateEntries.
const (
	CheckBalance   = "balance"
	CheckOneSide   = "one-side"
	CheckAccount   = "account"
	CheckPrecision = "precision"
)

// ValidationError describes a single problem found in a ledger export.
type ValidationError struct {
	Check       string
	Reference   string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Check, e.Reference, e.Description)
}

// AccountChecker tests whether an account exists in the chart of accounts.
type AccountChecker interface {
	Exists(name string) bool
}

// AccountSet is an AccountChecker over a fixed list of account names.
type AccountSet map[string]bool

// NewAccountSet collects the names of accts.
func NewAccountSet(accts []model.Account) AccountSet {
	s := make(AccountSet, len(accts))
	for _, a := range accts {
		s[a.Name] = true
	}
	return s
}

// Exists reports whether name is in the set.
func (s AccountSet) Exists(name string) bool { return s[name] }

func referenceOf(e model.LedgerEntry) string {
	return e.ReferenceType + " " + e.ReferenceName
}

// ValidateEntries checks that the rows of every reference balance, that each
// row has exactly one side, names a known account and has at most two
// decimal places.
func ValidateEntries(entries []model.LedgerEntry, accounts AccountChecker) []ValidationError {
	var errs []ValidationError

	// Group rows by reference.
	type totals struct{ debit, credit decimal.Decimal }
	groups := make(map[string]*totals)
	var order []string
	for _, e := range entries {
		ref := referenceOf(e)
		t, ok := groups[ref]
		if !ok {
			t = &totals{}
			groups[ref] = t
			order = append(order, ref)
		}
		t.debit = t.debit.Add(e.Debit)
		t.credit = t.credit.Add(e.Credit)
	}

	for _, ref := range order {
		t := groups[ref]
		if !t.debit.Equal(t.credit) {
			errs = append(errs, ValidationError{
				Check:       CheckBalance,
				Reference:   ref,
				Description: fmt.Sprintf("debits (%s) != credits (%s)", t.debit.StringFixed(2), t.credit.StringFixed(2)),
			})
		}
	}

	hundred := decimal.NewFromInt(100)
	for _, e := range entries {
		ref := referenceOf(e)

		hasDebit := !e.Debit.IsZero()
		hasCredit := !e.Credit.IsZero()
		if hasDebit == hasCredit {
			errs = append(errs, ValidationError{
				Check:       CheckOneSide,
				Reference:   ref,
				Description: fmt.Sprintf("row for %s must have exactly one of debit or credit", e.Account),
			})
		}

		if !accounts.Exists(e.Account) {
			errs = append(errs, ValidationError{
				Check:       CheckAccount,
				Reference:   ref,
				Description: fmt.Sprintf("unknown account %q", e.Account),
			})
		}

		for _, side := range []struct {
			name   string
			amount decimal.Decimal
		}{{"debit", e.Debit}, {"credit", e.Credit}} {
			if !side.amount.Mul(hundred).Equal(side.amount.Mul(hundred).Floor()) {
				errs = append(errs, ValidationError{
					Check:       CheckPrecision,
					Reference:   ref,
					Description: fmt.Sprintf("%s %s has more than 2 decimal places", side.name, side.amount),
				})
			}
		}
	}

	return errs
}
