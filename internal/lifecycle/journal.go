package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/money"
	"github.com/cleared-dev/books/internal/posting"
)

// SaveJournalEntry stores a draft journal entry after checking that its
// rows balance.
func (s *Service) SaveJournalEntry(ctx context.Context, je *model.JournalEntry) error {
	if je.Submitted || je.Cancelled {
		return apperrors.InvalidState("a %s journal entry can only be saved as a draft", je.Status())
	}
	if je.Date.IsZero() {
		je.Date = s.today()
	}

	return s.in(ctx, func(tx *txn) error {
		if je.Name == "" {
			name, err := tx.nameNew(ctx, model.SchemaJournalEntry)
			if err != nil {
				return err
			}
			je.Name = name
		} else {
			old, err := tx.st.GetJournalEntry(ctx, je.Name)
			switch {
			case errors.Is(err, apperrors.ErrNotFound):
			case err != nil:
				return err
			default:
				if err := checkDraft(model.SchemaJournalEntry, je.Name, old.Status(), "save"); err != nil {
					return err
				}
			}
		}

		p := tx.journalPosting(je)
		if err := p.ValidateEntries(); err != nil {
			return err
		}
		if err := tx.checkAccounts(ctx, p); err != nil {
			return err
		}
		if err := tx.st.SaveJournalEntry(ctx, je); err != nil {
			return fmt.Errorf("saving journal entry %s: %w", je.Name, err)
		}
		tx.logger.Debug("draft saved", zap.String("reference", reference(model.SchemaJournalEntry, je.Name)))
		return nil
	})
}

// validateJournalRows checks every row of a journal entry and reports all
// problems at once.
func validateJournalRows(je *model.JournalEntry) error {
	var errs []error
	if len(je.Accounts) < 2 {
		errs = append(errs, apperrors.Validation("accounts", "a journal entry needs at least two rows, got %d", len(je.Accounts)))
	}
	hundred := decimal.NewFromInt(100)
	for i, row := range je.Accounts {
		field := fmt.Sprintf("accounts[%d]", i)
		hasDebit := !row.Debit.IsZero()
		hasCredit := !row.Credit.IsZero()
		if hasDebit == hasCredit {
			errs = append(errs, apperrors.Validation(field, "row for %s must have exactly one of debit or credit", row.Account))
		}
		if row.Debit.IsNegative() || row.Credit.IsNegative() {
			errs = append(errs, apperrors.Validation(field, "row for %s has a negative amount", row.Account))
		}
		for _, amt := range []decimal.Decimal{row.Debit, row.Credit} {
			if !amt.Mul(hundred).Equal(amt.Mul(hundred).Floor()) {
				errs = append(errs, apperrors.Validation(field, "amount %s has more than %d decimal places", amt, money.Precision))
			}
		}
	}
	return errors.Join(errs...)
}

func (tx *txn) journalPosting(je *model.JournalEntry) *posting.Posting {
	p := tx.newPosting(posting.Reference{
		Type:        model.SchemaJournalEntry,
		Name:        je.Name,
		Date:        je.Date,
		Description: je.UserRemark,
	})
	for _, row := range je.Accounts {
		if !row.Debit.IsZero() {
			p.Debit(row.Account, row.Debit)
		}
		if !row.Credit.IsZero() {
			p.Credit(row.Account, row.Credit)
		}
	}
	return p
}

func (tx *txn) submitJournalEntry(ctx context.Context, name string) error {
	je, err := tx.st.GetJournalEntry(ctx, name)
	if err != nil {
		return err
	}
	if err := checkDraft(model.SchemaJournalEntry, name, je.Status(), "submit"); err != nil {
		return err
	}
	if err := validateJournalRows(je); err != nil {
		return err
	}
	if err := tx.post(ctx, tx.journalPosting(je)); err != nil {
		return err
	}

	je.Submitted = true
	if err := tx.st.SaveJournalEntry(ctx, je); err != nil {
		return fmt.Errorf("saving journal entry %s: %w", name, err)
	}
	return nil
}

func (tx *txn) cancelJournalEntry(ctx context.Context, name string) error {
	je, err := tx.st.GetJournalEntry(ctx, name)
	if err != nil {
		return err
	}
	if je.Status() != model.StatusSubmitted {
		return apperrors.InvalidState("cannot cancel %s %s: document is %s", model.SchemaJournalEntry, name, je.Status())
	}
	if err := tx.reverse(ctx, tx.journalPosting(je)); err != nil {
		return err
	}

	je.Cancelled = true
	if err := tx.st.SaveJournalEntry(ctx, je); err != nil {
		return fmt.Errorf("saving journal entry %s: %w", name, err)
	}
	return nil
}
