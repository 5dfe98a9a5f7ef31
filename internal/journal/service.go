// Package journal exports the ledger to CSV and checks exported files.
package journal

import (
	"context"
	"fmt"
	"io"

	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/store"
)

// Service reads the ledger of a store.
type Service struct {
	store store.Store
}

// NewService creates a journal Service.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// Entries lists the ledger rows selected by f.
func (s *Service) Entries(ctx context.Context, f model.LedgerFilter) ([]model.LedgerEntry, error) {
	entries, err := s.store.ListLedgerEntries(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listing ledger entries: %w", err)
	}
	return entries, nil
}

// Export writes the rows selected by f to w and returns how many were written.
func (s *Service) Export(ctx context.Context, f model.LedgerFilter, w io.Writer) (int, error) {
	entries, err := s.Entries(ctx, f)
	if err != nil {
		return 0, err
	}
	if err := WriteEntries(w, entries); err != nil {
		return 0, fmt.Errorf("exporting ledger: %w", err)
	}
	return len(entries), nil
}

// Verify reads an export from r and checks it against the store's chart of
// accounts.
func (s *Service) Verify(ctx context.Context, r io.Reader) ([]ValidationError, error) {
	entries, err := ReadEntries(r)
	if err != nil {
		return nil, err
	}
	accts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return ValidateEntries(entries, NewAccountSet(accts)), nil
}
