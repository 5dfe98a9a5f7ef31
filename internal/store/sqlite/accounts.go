package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/model"
)

func (s *Store) GetAccount(ctx context.Context, name string) (*model.Account, error) {
	var a model.Account
	err := s.db.QueryRowContext(ctx, `
		SELECT name, root_type, balance, description
		FROM accounts
		WHERE name = ?
	`, name).Scan(&a.Name, &a.RootType, &a.Balance, &a.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound(string(model.SchemaAccount), name)
	}
	if err != nil {
		return nil, fmt.Errorf("querying account %q: %w", name, err)
	}
	return &a, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, root_type, balance, description
		FROM accounts
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.Name, &a.RootType, &a.Balance, &a.Description); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CreateAccount(ctx context.Context, a model.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (name, root_type, balance, description)
		VALUES (?, ?, ?, ?)
	`, a.Name, string(a.RootType), a.Balance.String(), a.Description)
	if err != nil {
		return mapConstraintErr(err, fmt.Sprintf("account %q", a.Name))
	}
	return nil
}

// AddAccountBalance reads, adds and writes back the balance. Decimal text
// columns cannot be summed exactly inside SQLite.
func (s *Store) AddAccountBalance(ctx context.Context, account string, delta decimal.Decimal) error {
	a, err := s.GetAccount(ctx, account)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `UPDATE accounts SET balance = ? WHERE name = ?`,
		a.Balance.Add(delta).String(), account)
	if err != nil {
		return fmt.Errorf("updating balance of %q: %w", account, err)
	}
	return nil
}
