package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/money"
	"github.com/cleared-dev/books/internal/posting"
)

// SavePayment stores a draft payment after checking that its postings
// balance.
func (s *Service) SavePayment(ctx context.Context, pay *model.Payment) error {
	if err := validatePaymentFields(pay); err != nil {
		return err
	}
	if err := s.checkWriteOffAccount(pay); err != nil {
		return err
	}
	if pay.Date.IsZero() {
		pay.Date = s.today()
	}

	return s.in(ctx, func(tx *txn) error {
		if pay.Name == "" {
			name, err := tx.nameNew(ctx, model.SchemaPayment)
			if err != nil {
				return err
			}
			pay.Name = name
		} else {
			old, err := tx.st.GetPayment(ctx, pay.Name)
			switch {
			case errors.Is(err, apperrors.ErrNotFound):
			case err != nil:
				return err
			default:
				if err := checkDraft(model.SchemaPayment, pay.Name, old.Status(), "save"); err != nil {
					return err
				}
			}
		}

		ps := tx.paymentPostings(pay)
		for _, p := range ps {
			if err := p.ValidateEntries(); err != nil {
				return err
			}
		}
		if err := tx.checkAccounts(ctx, ps...); err != nil {
			return err
		}
		if err := tx.st.SavePayment(ctx, pay); err != nil {
			return fmt.Errorf("saving payment %s: %w", pay.Name, err)
		}
		tx.logger.Debug("draft saved", zap.String("reference", reference(model.SchemaPayment, pay.Name)))
		return nil
	})
}

func validatePaymentFields(pay *model.Payment) error {
	var errs []error
	if pay.Submitted || pay.Cancelled {
		errs = append(errs, apperrors.InvalidState("a %s payment can only be saved as a draft", pay.Status()))
	}
	switch pay.PaymentType {
	case model.PaymentReceive, model.PaymentPay:
	default:
		errs = append(errs, apperrors.Validation("payment_type", "payment type must be %s or %s, got %q",
			model.PaymentReceive, model.PaymentPay, pay.PaymentType))
	}
	if strings.TrimSpace(pay.Account) == "" {
		errs = append(errs, apperrors.Validation("account", "account is required"))
	}
	if strings.TrimSpace(pay.PaymentAccount) == "" {
		errs = append(errs, apperrors.Validation("payment_account", "payment account is required"))
	}
	if pay.WriteOff.IsNegative() {
		errs = append(errs, apperrors.Validation("writeoff", "write off must not be negative"))
	}
	if pay.WriteOff.GreaterThan(pay.Amount) {
		errs = append(errs, apperrors.Validation("writeoff", "write off %s must not exceed the payment amount %s",
			money.Format(pay.WriteOff), money.Format(pay.Amount)))
	}
	for i, f := range pay.For {
		if !f.ReferenceType.IsInvoice() {
			errs = append(errs, apperrors.Validation(fmt.Sprintf("for[%d].reference_type", i),
				"payments can only be made against invoices, got %q", f.ReferenceType))
		}
		if strings.TrimSpace(f.ReferenceName) == "" {
			errs = append(errs, apperrors.Validation(fmt.Sprintf("for[%d].reference_name", i), "reference name is required"))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) checkWriteOffAccount(pay *model.Payment) error {
	if pay.WriteOff.IsPositive() && s.settings.WriteOffAccount == "" {
		return apperrors.Validation("writeoff",
			"write off account is not set: configure settings.write_off_account to write off %s", s.money.Format(pay.WriteOff))
	}
	return nil
}

// paymentPostings builds the main posting of a payment and, when there is
// a write off, a second posting moving the write off against Account.
func (tx *txn) paymentPostings(pay *model.Payment) []*posting.Posting {
	ref := posting.Reference{
		Type:  model.SchemaPayment,
		Name:  pay.Name,
		Party: pay.Party,
		Date:  pay.Date,
	}

	amount := pay.Amount.Sub(pay.WriteOff)
	main := tx.newPosting(ref)
	main.Debit(pay.PaymentAccount, amount)
	main.Credit(pay.Account, amount)

	if !pay.WriteOff.IsPositive() {
		return []*posting.Posting{main}
	}

	wo := tx.newPosting(ref)
	if pay.PaymentType == model.PaymentPay {
		wo.Debit(pay.Account, pay.WriteOff)
		wo.Credit(tx.settings.WriteOffAccount, pay.WriteOff)
	} else {
		wo.Debit(tx.settings.WriteOffAccount, pay.WriteOff)
		wo.Credit(pay.Account, pay.WriteOff)
	}
	return []*posting.Posting{main, wo}
}

// validatePaymentSubmit runs the checks a payment must pass before it is
// posted. It returns the referenced invoices in allocation order.
func (tx *txn) validatePaymentSubmit(ctx context.Context, pay *model.Payment) ([]*model.Invoice, error) {
	if err := validatePaymentFields(pay); err != nil {
		return nil, err
	}
	f := tx.money
	if !pay.Amount.IsPositive() {
		return nil, apperrors.Validation("amount", "payment amount must be greater than zero, got %s", f.Format(pay.Amount))
	}
	if total := pay.ReferenceTotal(); len(pay.For) > 0 && pay.Amount.Add(pay.WriteOff).LessThan(total) {
		return nil, apperrors.Validation("amount",
			"payment amount %s plus write off %s is less than the allocated total %s",
			f.Format(pay.Amount), f.Format(pay.WriteOff), f.Format(total))
	}
	if pay.Account == pay.PaymentAccount {
		return nil, apperrors.Validation("payment_account",
			"account %s cannot be both the source and the destination of a payment", pay.Account)
	}
	if err := tx.checkWriteOffAccount(pay); err != nil {
		return nil, err
	}

	invoices := make([]*model.Invoice, 0, len(pay.For))
	// Rows naming the same invoice draw on one balance.
	remaining := make(map[string]decimal.Decimal, len(pay.For))
	for i, ref := range pay.For {
		field := fmt.Sprintf("for[%d].amount", i)
		inv, err := tx.st.GetInvoice(ctx, ref.ReferenceType, ref.ReferenceName)
		if err != nil {
			return nil, fmt.Errorf("loading %s %s: %w", ref.ReferenceType, ref.ReferenceName, err)
		}
		if inv.Status() != model.StatusSubmitted {
			return nil, apperrors.Validation(fmt.Sprintf("for[%d].reference_name", i),
				"%s %s is %s, only submitted documents can be paid", ref.ReferenceType, ref.ReferenceName, inv.Status())
		}
		key := reference(ref.ReferenceType, ref.ReferenceName)
		outstanding, seen := remaining[key]
		if !seen {
			outstanding = inv.Outstanding()
		}
		if !ref.Amount.IsPositive() {
			return nil, apperrors.Validation(field, "allocated amount for %s must be greater than zero, got %s",
				ref.ReferenceName, f.Format(ref.Amount))
		}
		if ref.Amount.GreaterThan(outstanding) {
			return nil, apperrors.Validation(field, "allocated amount %s for %s exceeds its outstanding amount %s",
				f.Format(ref.Amount), ref.ReferenceName, f.Format(outstanding))
		}
		remaining[key] = outstanding.Sub(ref.Amount)
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

func (tx *txn) submitPayment(ctx context.Context, name string) error {
	pay, err := tx.st.GetPayment(ctx, name)
	if err != nil {
		return err
	}
	if err := checkDraft(model.SchemaPayment, name, pay.Status(), "submit"); err != nil {
		return err
	}
	if _, err := tx.validatePaymentSubmit(ctx, pay); err != nil {
		return err
	}
	return tx.applyPayment(ctx, pay)
}

// applyPayment posts a payment, takes its allocations off the referenced
// invoices and marks it submitted.
func (tx *txn) applyPayment(ctx context.Context, pay *model.Payment) error {
	if err := tx.post(ctx, tx.paymentPostings(pay)...); err != nil {
		return err
	}
	parties, err := tx.allocate(ctx, pay, true)
	if err != nil {
		return err
	}

	pay.Submitted = true
	pay.Cancelled = false
	if err := tx.st.SavePayment(ctx, pay); err != nil {
		return fmt.Errorf("saving payment %s: %w", pay.Name, err)
	}
	return tx.updateParties(ctx, append(parties, pay.Party)...)
}

func (tx *txn) cancelPayment(ctx context.Context, name string) error {
	pay, err := tx.st.GetPayment(ctx, name)
	if err != nil {
		return err
	}
	if pay.Status() != model.StatusSubmitted {
		return apperrors.InvalidState("cannot cancel %s %s: document is %s", model.SchemaPayment, name, pay.Status())
	}

	if err := tx.reverse(ctx, tx.paymentPostings(pay)...); err != nil {
		return err
	}
	parties, err := tx.allocate(ctx, pay, false)
	if err != nil {
		return err
	}

	pay.Cancelled = true
	if err := tx.st.SavePayment(ctx, pay); err != nil {
		return fmt.Errorf("saving payment %s: %w", name, err)
	}
	tx.logger.Info("payment cancelled", zap.String("reference", reference(model.SchemaPayment, name)))
	return tx.updateParties(ctx, append(parties, pay.Party)...)
}

// restorePayment undoes cancelPayment by posting the payment again.
func (tx *txn) restorePayment(ctx context.Context, name string) error {
	pay, err := tx.st.GetPayment(ctx, name)
	if err != nil {
		return err
	}
	if pay.Status() != model.StatusCancelled {
		return nil
	}
	return tx.applyPayment(ctx, pay)
}

// allocate moves each allocation of pay off (submit) or back onto (cancel)
// the referenced invoice's outstanding amount and returns the parties of
// the touched invoices.
func (tx *txn) allocate(ctx context.Context, pay *model.Payment, submit bool) ([]string, error) {
	var parties []string
	for _, ref := range pay.For {
		inv, err := tx.st.GetInvoice(ctx, ref.ReferenceType, ref.ReferenceName)
		if err != nil {
			return nil, fmt.Errorf("loading %s %s: %w", ref.ReferenceType, ref.ReferenceName, err)
		}
		if submit {
			inv.SetOutstanding(inv.Outstanding().Sub(ref.Amount))
		} else {
			inv.SetOutstanding(inv.Outstanding().Add(ref.Amount))
		}
		if err := tx.st.SaveInvoice(ctx, inv); err != nil {
			return nil, fmt.Errorf("saving %s %s: %w", inv.Schema, inv.Name, err)
		}
		parties = append(parties, inv.Party)
	}
	return parties, nil
}
