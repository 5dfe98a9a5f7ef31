package accounts

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/store/memory"
)

func TestSeedDefaultChart(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	chart := DefaultChart()

	n, err := Seed(ctx, s, chart)
	require.NoError(t, err)
	assert.Equal(t, len(chart), n)

	n, err = Seed(ctx, s, chart)
	require.NoError(t, err)
	assert.Zero(t, n, "existing accounts are skipped")

	all, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(chart))
}

func TestDirectory(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	_, err := Seed(ctx, s, DefaultChart())
	require.NoError(t, err)
	dir := NewDirectory(s)

	rt, err := dir.RootType(ctx, Debtors)
	require.NoError(t, err)
	assert.Equal(t, model.RootTypeAsset, rt)

	rt, err = dir.RootType(ctx, TaxPayable)
	require.NoError(t, err)
	assert.Equal(t, model.RootTypeLiability, rt)

	_, err = dir.RootType(ctx, "Nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	ok, err := dir.Exists(ctx, Cash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = dir.Exists(ctx, "Nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	tests := []struct {
		name    string
		account model.Account
		field   string
	}{
		{"blank name", model.Account{Name: "  ", RootType: model.RootTypeAsset}, "name"},
		{"bad root type", model.Account{Name: "X", RootType: "Revenue"}, "root_type"},
		{"opening balance", model.Account{Name: "X", RootType: model.RootTypeAsset, Balance: decimal.NewFromInt(5)}, "balance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Create(ctx, s, tt.account)
			require.Error(t, err)
			var ve *apperrors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	require.NoError(t, Create(ctx, s, model.Account{Name: "Petty Cash", RootType: model.RootTypeAsset}))
	assert.ErrorIs(t, Create(ctx, s, model.Account{Name: "Petty Cash", RootType: model.RootTypeAsset}), apperrors.ErrDuplicate)
}

func TestImportExport(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	in := "account_name,root_type,balance,description\n" +
		"Cash,Asset,,Cash in hand\n" +
		"Sales,Income,999.00,\n"
	n, err := Import(ctx, s, strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sales, err := s.GetAccount(ctx, "Sales")
	require.NoError(t, err)
	assert.True(t, sales.Balance.IsZero(), "imported balances are ignored")

	require.NoError(t, s.AddAccountBalance(ctx, "Cash", decimal.RequireFromString("12.5")))

	var buf bytes.Buffer
	require.NoError(t, Export(ctx, s, &buf))
	assert.Contains(t, buf.String(), "Cash,Asset,12.50,Cash in hand")
	assert.Contains(t, buf.String(), "Sales,Income,0.00,")
}

func TestByRootType(t *testing.T) {
	chart := DefaultChart()

	expenses := ByRootType(chart, model.RootTypeExpense)
	assert.Len(t, expenses, 4)
	for _, a := range expenses {
		assert.Equal(t, model.RootTypeExpense, a.RootType)
	}
}
