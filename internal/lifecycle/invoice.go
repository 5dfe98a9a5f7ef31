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
	"github.com/cleared-dev/books/internal/workflow"
)

// SaveInvoice stores a draft sales or purchase invoice after computing its
// totals and checking that its posting balances.
func (s *Service) SaveInvoice(ctx context.Context, inv *model.Invoice) error {
	if err := validateInvoice(inv); err != nil {
		return err
	}
	if inv.Date.IsZero() {
		inv.Date = s.today()
	}
	inv.CalculateTotals()

	return s.in(ctx, func(tx *txn) error {
		if inv.Name == "" {
			name, err := tx.nameNew(ctx, inv.Schema)
			if err != nil {
				return err
			}
			inv.Name = name
		} else if err := tx.checkStoredInvoice(ctx, inv.Schema, inv.Name); err != nil {
			return err
		}

		p, err := tx.invoicePosting(inv)
		if err != nil {
			return err
		}
		if err := p.ValidateEntries(); err != nil {
			return err
		}
		if err := tx.checkAccounts(ctx, p); err != nil {
			return err
		}
		if err := tx.st.SaveInvoice(ctx, inv); err != nil {
			return fmt.Errorf("saving %s %s: %w", inv.Schema, inv.Name, err)
		}
		tx.logger.Debug("draft saved", zap.String("reference", reference(inv.Schema, inv.Name)))
		return nil
	})
}

func (tx *txn) checkStoredInvoice(ctx context.Context, schema model.Schema, name string) error {
	old, err := tx.st.GetInvoice(ctx, schema, name)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return checkDraft(schema, name, old.Status(), "save")
}

func validateInvoice(inv *model.Invoice) error {
	var errs []error
	if !inv.Schema.IsInvoice() {
		errs = append(errs, apperrors.Validation("schema", "%q is not an invoice schema", inv.Schema))
	}
	if inv.Submitted || inv.Cancelled {
		errs = append(errs, apperrors.InvalidState("a %s can only be saved as a draft", inv.Status()))
	}
	if strings.TrimSpace(inv.Party) == "" {
		errs = append(errs, apperrors.Validation("party", "party is required"))
	}
	if strings.TrimSpace(inv.Account) == "" {
		errs = append(errs, apperrors.Validation("account", "account is required"))
	}
	if inv.ExchangeRate.IsNegative() {
		errs = append(errs, apperrors.Validation("exchange_rate", "exchange rate must not be negative"))
	}
	if len(inv.Items) == 0 {
		errs = append(errs, apperrors.Validation("items", "at least one item is required"))
	}
	for i, it := range inv.Items {
		if strings.TrimSpace(it.Account) == "" {
			errs = append(errs, apperrors.Validation(fmt.Sprintf("items[%d].account", i), "account is required"))
		}
	}
	for i, t := range inv.Taxes {
		if strings.TrimSpace(t.Account) == "" {
			errs = append(errs, apperrors.Validation(fmt.Sprintf("taxes[%d].account", i), "account is required"))
		}
	}
	return errors.Join(errs...)
}

// invoicePosting builds the base-currency posting of an invoice. A sales
// invoice debits the receivable account and credits income and tax; a
// purchase invoice is the mirror image.
func (tx *txn) invoicePosting(inv *model.Invoice) (*posting.Posting, error) {
	p := tx.newPosting(posting.Reference{
		Type:     inv.Schema,
		Name:     inv.Name,
		Party:    inv.Party,
		Date:     inv.Date,
		Currency: inv.Currency,
	})

	rate := inv.Rate()
	base := func(amount decimal.Decimal) decimal.Decimal {
		return amount.Mul(rate).Round(money.Precision)
	}

	sales := inv.Schema == model.SchemaSalesInvoice
	if sales {
		p.Debit(inv.Account, base(inv.GrandTotal))
	} else {
		p.Credit(inv.Account, base(inv.GrandTotal))
	}
	for _, it := range inv.Items {
		if sales {
			p.Credit(it.Account, base(it.Amount))
		} else {
			p.Debit(it.Account, base(it.Amount))
		}
	}
	for _, t := range inv.Taxes {
		if sales {
			p.Credit(t.Account, base(t.Amount))
		} else {
			p.Debit(t.Account, base(t.Amount))
		}
	}

	if err := p.MakeRoundOffEntry(); err != nil {
		return nil, err
	}
	return p, nil
}

func (tx *txn) submitInvoice(ctx context.Context, schema model.Schema, name string) error {
	inv, err := tx.st.GetInvoice(ctx, schema, name)
	if err != nil {
		return err
	}
	if err := checkDraft(schema, name, inv.Status(), "submit"); err != nil {
		return err
	}
	if err := validateInvoice(inv); err != nil {
		return err
	}
	inv.CalculateTotals()

	p, err := tx.invoicePosting(inv)
	if err != nil {
		return err
	}
	if err := tx.post(ctx, p); err != nil {
		return err
	}

	inv.SetOutstanding(inv.GrandTotal)
	inv.Submitted = true
	if err := tx.st.SaveInvoice(ctx, inv); err != nil {
		return fmt.Errorf("saving %s %s: %w", schema, name, err)
	}

	if _, err := tx.agg.Touch(ctx, inv.Party, schema); err != nil {
		return err
	}
	return tx.updateParties(ctx, inv.Party)
}

func (tx *txn) cancelInvoice(ctx context.Context, schema model.Schema, name string) error {
	inv, err := tx.st.GetInvoice(ctx, schema, name)
	if err != nil {
		return err
	}
	if inv.Status() != model.StatusSubmitted {
		return apperrors.InvalidState("cannot cancel %s %s: document is %s", schema, name, inv.Status())
	}

	plan, err := tx.cancelInvoicePlan(ctx, inv)
	if err != nil {
		return err
	}
	return plan.Run(ctx)
}

// cancelInvoicePlan lists the steps of cancelling an invoice: every
// submitted payment against it is cancelled in name order, then the
// invoice's own posting is reversed and its party re-aggregated.
func (tx *txn) cancelInvoicePlan(ctx context.Context, inv *model.Invoice) (*workflow.Plan, error) {
	payments, err := tx.st.ListPaymentsFor(ctx, inv.Schema, inv.Name)
	if err != nil {
		return nil, fmt.Errorf("listing payments against %s: %w", inv.Name, err)
	}

	plan := workflow.NewPlan("cancel "+reference(inv.Schema, inv.Name), tx.logger)
	for _, pay := range payments {
		if pay.Status() != model.StatusSubmitted {
			continue
		}
		payName := pay.Name
		plan.Add(workflow.Step{
			Name: "cancel " + reference(model.SchemaPayment, payName),
			Do:   func(ctx context.Context) error { return tx.cancelPayment(ctx, payName) },
			Undo: func(ctx context.Context) error { return tx.restorePayment(ctx, payName) },
		})
	}
	plan.Add(workflow.Step{
		Name: "reverse " + reference(inv.Schema, inv.Name),
		Do:   func(ctx context.Context) error { return tx.reverseInvoice(ctx, inv.Schema, inv.Name) },
	})
	return plan, nil
}

func (tx *txn) reverseInvoice(ctx context.Context, schema model.Schema, name string) error {
	// Reload: the payment steps have written back to the outstanding amount.
	inv, err := tx.st.GetInvoice(ctx, schema, name)
	if err != nil {
		return err
	}

	p, err := tx.invoicePosting(inv)
	if err != nil {
		return err
	}
	if err := tx.reverse(ctx, p); err != nil {
		return err
	}

	inv.Cancelled = true
	if err := tx.st.SaveInvoice(ctx, inv); err != nil {
		return fmt.Errorf("saving %s %s: %w", schema, name, err)
	}
	return tx.updateParties(ctx, inv.Party)
}
