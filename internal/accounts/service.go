package accounts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/store"
)

// Directory answers account lookups against a store.
type Directory struct {
	r store.AccountReader
}

// NewDirectory creates a Directory reading from r.
func NewDirectory(r store.AccountReader) *Directory {
	return &Directory{r: r}
}

// Get returns an account by name.
func (d *Directory) Get(ctx context.Context, name string) (*model.Account, error) {
	return d.r.GetAccount(ctx, name)
}

// RootType returns the stored root type of an account.
func (d *Directory) RootType(ctx context.Context, name string) (model.RootType, error) {
	a, err := d.r.GetAccount(ctx, name)
	if err != nil {
		return "", err
	}
	return a.RootType, nil
}

// Exists reports whether an account exists.
func (d *Directory) Exists(ctx context.Context, name string) (bool, error) {
	_, err := d.r.GetAccount(ctx, name)
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Validate checks an account before it is created.
func Validate(a model.Account) error {
	if strings.TrimSpace(a.Name) == "" {
		return apperrors.Validation("name", "account name is required")
	}
	if !a.RootType.Valid() {
		return apperrors.Validation("root_type", "unknown root type %q for account %s", a.RootType, a.Name)
	}
	if !a.Balance.IsZero() {
		return apperrors.Validation("balance", "account %s must start with a zero balance", a.Name)
	}
	return nil
}

// Create validates and stores a new account.
func Create(ctx context.Context, s store.Store, a model.Account) error {
	if err := Validate(a); err != nil {
		return err
	}
	if err := s.CreateAccount(ctx, a); err != nil {
		return fmt.Errorf("creating account %s: %w", a.Name, err)
	}
	return nil
}

// Seed creates every account in chart that does not exist yet and returns
// how many were created.
func Seed(ctx context.Context, s store.Store, chart []model.Account) (int, error) {
	created := 0
	for _, a := range chart {
		err := Create(ctx, s, a)
		if errors.Is(err, apperrors.ErrDuplicate) {
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// Import reads a chart-of-accounts CSV and seeds the accounts it lists.
func Import(ctx context.Context, s store.Store, r io.Reader) (int, error) {
	chart, err := ReadAccounts(r)
	if err != nil {
		return 0, fmt.Errorf("reading chart of accounts: %w", err)
	}
	return Seed(ctx, s, chart)
}

// Export writes every stored account, with its balance, as CSV.
func Export(ctx context.Context, s store.Store, w io.Writer) error {
	all, err := s.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("listing accounts: %w", err)
	}
	if err := WriteAccounts(w, all); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return nil
}

// ByRootType returns the accounts with the given root type.
func ByRootType(all []model.Account, rootType model.RootType) []model.Account {
	var result []model.Account
	for _, a := range all {
		if a.RootType == rootType {
			result = append(result, a)
		}
	}
	return result
}
