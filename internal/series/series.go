// Package series hands out sequential document names such as "SINV-1001".
package series

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/store"
)

const (
	DefaultStart    = 1001
	DefaultPadZeros = 4
)

// DefaultSchemas are the document types that get a series from Ensure.
var DefaultSchemas = []model.Schema{
	model.SchemaSalesInvoice,
	model.SchemaPurchaseInvoice,
	model.SchemaJournalEntry,
	model.SchemaPayment,
}

// Service reads and advances number series.
type Service struct {
	store  store.Store
	logger *zap.Logger
}

// NewService creates a Service. A nil logger discards output.
func NewService(s store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: s, logger: logger}
}

// WithStore returns a copy of the service bound to st, typically a
// transactional view.
func (s *Service) WithStore(st store.Store) *Service {
	return &Service{store: st, logger: s.logger}
}

// Next advances the series and returns the new document name. If target
// already holds that name the counter is advanced once more; a second
// collision is returned as is.
func (s *Service) Next(ctx context.Context, seriesName string, target model.Schema) (string, error) {
	ns, err := s.store.GetSeries(ctx, seriesName)
	if err != nil {
		return "", fmt.Errorf("loading number series %s: %w", seriesName, err)
	}

	current := ns.Start
	if ns.Current != nil {
		current = *ns.Current + 1
	}
	name := ns.Format(current)

	exists, err := s.store.Exists(ctx, target, name)
	if err != nil {
		return "", fmt.Errorf("checking %s %s: %w", target, name, err)
	}
	if exists {
		s.logger.Warn("number series collision, skipping",
			zap.String("series", seriesName), zap.String("name", name))
		current++
		name = ns.Format(current)
	}

	ns.Current = &current
	if err := s.store.SaveSeries(ctx, *ns); err != nil {
		return "", fmt.Errorf("saving number series %s: %w", seriesName, err)
	}
	s.logger.Debug("number series advanced", zap.String("series", seriesName), zap.String("name", name))
	return name, nil
}

// Save creates or updates a series. Start, PadZeros and ReferenceType are
// fixed once the series has produced a name, and Current never decreases.
func (s *Service) Save(ctx context.Context, ns model.NumberSeries) error {
	if err := validate(ns); err != nil {
		return err
	}

	old, err := s.store.GetSeries(ctx, ns.Name)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
	case err != nil:
		return fmt.Errorf("loading number series %s: %w", ns.Name, err)
	case old.Used():
		if ns.Start != old.Start {
			return apperrors.Validation("start", "cannot change start of used series %s", ns.Name)
		}
		if ns.PadZeros != old.PadZeros {
			return apperrors.Validation("pad_zeros", "cannot change padding of used series %s", ns.Name)
		}
		if ns.ReferenceType != old.ReferenceType {
			return apperrors.Validation("reference_type", "cannot change reference type of used series %s", ns.Name)
		}
		if ns.Current == nil || *ns.Current < *old.Current {
			return apperrors.Validation("current", "series %s cannot go back from %d", ns.Name, *old.Current)
		}
	}

	if err := s.store.SaveSeries(ctx, ns); err != nil {
		return fmt.Errorf("saving number series %s: %w", ns.Name, err)
	}
	return nil
}

func validate(ns model.NumberSeries) error {
	if strings.TrimSpace(ns.Name) == "" {
		return apperrors.Validation("name", "series name is required")
	}
	if ns.Start < 0 {
		return apperrors.Validation("start", "start must not be negative, got %d", ns.Start)
	}
	if ns.PadZeros < 0 {
		return apperrors.Validation("pad_zeros", "padding must not be negative, got %d", ns.PadZeros)
	}
	return nil
}

// Ensure creates the default series of every schema in DefaultSchemas that
// does not have one yet, and returns how many were created.
func (s *Service) Ensure(ctx context.Context) (int, error) {
	created := 0
	for _, schema := range DefaultSchemas {
		name := model.DefaultSeriesPrefix(schema)
		_, err := s.store.GetSeries(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return created, fmt.Errorf("loading number series %s: %w", name, err)
		}
		ns := model.NumberSeries{
			Name:          name,
			Start:         DefaultStart,
			PadZeros:      DefaultPadZeros,
			ReferenceType: string(schema),
		}
		if err := s.store.SaveSeries(ctx, ns); err != nil {
			return created, fmt.Errorf("creating number series %s: %w", name, err)
		}
		created++
	}
	return created, nil
}

// NextFor names a new document of schema from its default series.
func (s *Service) NextFor(ctx context.Context, schema model.Schema) (string, error) {
	return s.Next(ctx, model.DefaultSeriesPrefix(schema), schema)
}
