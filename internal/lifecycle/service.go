// Package lifecycle moves documents through Draft, Submitted and Cancelled,
// posting and reversing their ledger effects on the way.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/money"
	"github.com/cleared-dev/books/internal/outstanding"
	"github.com/cleared-dev/books/internal/posting"
	"github.com/cleared-dev/books/internal/series"
	"github.com/cleared-dev/books/internal/store"
)

// Service runs the document lifecycle against a store.
type Service struct {
	store    store.Store
	settings posting.Settings
	series   *series.Service
	agg      *outstanding.Aggregator
	logger   *zap.Logger
	money    *money.Formatter
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithFormatter sets the formatter used for amounts in error messages.
// Without one, amounts render in English with the document's currency.
func WithFormatter(f *money.Formatter) Option {
	return func(s *Service) { s.money = f }
}

// WithClock sets the clock used to date documents saved without a date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service.
func NewService(st store.Store, settings posting.Settings, opts ...Option) *Service {
	s := &Service{
		store:    st,
		settings: settings,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.series = series.NewService(st, s.logger)
	s.agg = outstanding.New(st, s.logger)
	return s
}

// txn bundles the collaborators bound to one transactional view.
type txn struct {
	*Service
	st     store.Store
	dir    *accounts.Directory
	series *series.Service
	agg    *outstanding.Aggregator
}

func (s *Service) in(ctx context.Context, fn func(tx *txn) error) error {
	return s.store.Tx(ctx, func(st store.Store) error {
		return fn(&txn{
			Service: s,
			st:      st,
			dir:     accounts.NewDirectory(st),
			series:  s.series.WithStore(st),
			agg:     s.agg.WithStore(st),
		})
	})
}

// newPosting starts a posting that formats amounts with the service's
// formatter.
func (tx *txn) newPosting(ref posting.Reference) *posting.Posting {
	return posting.New(tx.dir, tx.settings, ref, posting.WithFormatter(tx.money))
}

func (s *Service) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Save stores a draft. The document's posting is built and checked for
// balance without being committed. A document without a name is named from
// the series of its schema.
func (s *Service) Save(ctx context.Context, doc any) error {
	switch d := doc.(type) {
	case *model.Invoice:
		return s.SaveInvoice(ctx, d)
	case *model.JournalEntry:
		return s.SaveJournalEntry(ctx, d)
	case *model.Payment:
		return s.SavePayment(ctx, d)
	}
	return apperrors.Validation("document", "cannot save a %T", doc)
}

// Submit posts a draft and marks it submitted.
func (s *Service) Submit(ctx context.Context, schema model.Schema, name string) error {
	err := s.in(ctx, func(tx *txn) error {
		switch {
		case schema.IsInvoice():
			return tx.submitInvoice(ctx, schema, name)
		case schema == model.SchemaJournalEntry:
			return tx.submitJournalEntry(ctx, name)
		case schema == model.SchemaPayment:
			return tx.submitPayment(ctx, name)
		}
		return apperrors.Validation("schema", "%s cannot be submitted", schema)
	})
	if err != nil {
		return fmt.Errorf("submitting %s %s: %w", schema, name, err)
	}
	s.logger.Info("document submitted", zap.String("reference", reference(schema, name)))
	return nil
}

// Cancel reverses a submitted document. Payments made against an invoice
// are cancelled first, one after another.
func (s *Service) Cancel(ctx context.Context, schema model.Schema, name string) error {
	err := s.in(ctx, func(tx *txn) error {
		switch {
		case schema.IsInvoice():
			return tx.cancelInvoice(ctx, schema, name)
		case schema == model.SchemaJournalEntry:
			return tx.cancelJournalEntry(ctx, name)
		case schema == model.SchemaPayment:
			return tx.cancelPayment(ctx, name)
		}
		return apperrors.Validation("schema", "%s cannot be cancelled", schema)
	})
	if err != nil {
		return fmt.Errorf("cancelling %s %s: %w", schema, name, err)
	}
	s.logger.Info("document cancelled", zap.String("reference", reference(schema, name)))
	return nil
}

func reference(schema model.Schema, name string) string {
	return string(schema) + " " + name
}

func checkDraft(schema model.Schema, name string, status model.DocStatus, action string) error {
	if status == model.StatusDraft {
		return nil
	}
	return apperrors.InvalidState("cannot %s %s %s: document is %s", action, schema, name, status)
}

// nameNew takes the next name of schema's series. A name that is still
// taken after the series skipped once is refused.
func (tx *txn) nameNew(ctx context.Context, schema model.Schema) (string, error) {
	name, err := tx.series.NextFor(ctx, schema)
	if err != nil {
		return "", err
	}
	exists, err := tx.st.Exists(ctx, schema, name)
	if err != nil {
		return "", fmt.Errorf("checking %s %s: %w", schema, name, err)
	}
	if exists {
		return "", fmt.Errorf("naming new %s: %s is taken: %w", schema, name, apperrors.ErrDuplicate)
	}
	return name, nil
}

// updateParties re-derives the outstanding amount of each named party once.
// Names that no invoice has introduced as a party are skipped.
func (tx *txn) updateParties(ctx context.Context, parties ...string) error {
	seen := make(map[string]bool, len(parties))
	for _, p := range parties {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		_, err := tx.agg.Update(ctx, p)
		if errors.Is(err, apperrors.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (tx *txn) post(ctx context.Context, ps ...*posting.Posting) error {
	for _, p := range ps {
		if err := p.Post(ctx, tx.st); err != nil {
			return err
		}
		ref := p.Reference()
		tx.logger.Debug("posting committed",
			zap.String("reference", reference(ref.Type, ref.Name)), zap.Int("rows", len(p.Entries())))
	}
	return nil
}

func (tx *txn) reverse(ctx context.Context, ps ...*posting.Posting) error {
	for _, p := range ps {
		if err := p.PostReverse(ctx, tx.st); err != nil {
			return err
		}
		ref := p.Reference()
		tx.logger.Debug("posting reversed",
			zap.String("reference", reference(ref.Type, ref.Name)), zap.Int("rows", len(p.Entries())))
	}
	return nil
}

// checkAccounts rejects postings that name accounts missing from the chart.
func (tx *txn) checkAccounts(ctx context.Context, ps ...*posting.Posting) error {
	for _, p := range ps {
		for _, e := range p.Entries() {
			ok, err := tx.dir.Exists(ctx, e.Account)
			if err != nil {
				return err
			}
			if !ok {
				return apperrors.Validation("account", "account %s does not exist", e.Account)
			}
		}
	}
	return nil
}
