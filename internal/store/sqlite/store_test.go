package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/store"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "books.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedAccounts(t *testing.T, s store.Store, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, s.CreateAccount(context.Background(), model.Account{Name: n, RootType: model.RootTypeAsset}))
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "books.db")
	s, err := Open(path)
	require.NoError(t, err)
	seedAccounts(t, s, "Cash")
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	a, err := s.GetAccount(context.Background(), "Cash")
	require.NoError(t, err)
	assert.Equal(t, model.RootTypeAsset, a.RootType)
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	seedAccounts(t, s, "Cash", "Bank")

	err := s.CreateAccount(ctx, model.Account{Name: "Cash", RootType: model.RootTypeAsset})
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	err = s.CreateAccount(ctx, model.Account{Name: "Odd", RootType: "Weird"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	require.NoError(t, s.AddAccountBalance(ctx, "Cash", dec("100.10")))
	require.NoError(t, s.AddAccountBalance(ctx, "Cash", dec("-0.10")))
	a, err := s.GetAccount(ctx, "Cash")
	require.NoError(t, err)
	assert.True(t, a.Balance.Equal(dec("100")), "got %s", a.Balance)

	_, err = s.GetAccount(ctx, "Nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	all, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Bank", all[0].Name)
}

func TestLedgerEntries(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	seedAccounts(t, s, "Cash", "Debtors")

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	entries := []model.LedgerEntry{
		{ID: uuid.New(), Account: "Debtors", Party: "Acme", Date: day, ReferenceType: "Payment", ReferenceName: "PAY-1001", Credit: dec("50"), CreatedAt: day},
		{ID: uuid.New(), Account: "Cash", Party: "Acme", Date: day, ReferenceType: "Payment", ReferenceName: "PAY-1001", Debit: dec("50"), CreatedAt: day},
		{ID: uuid.New(), Account: "Cash", Date: day.AddDate(0, 0, 5), ReferenceType: "Payment", ReferenceName: "PAY-1002", Debit: dec("7.25"), CreatedAt: day},
	}
	require.NoError(t, s.InsertLedgerEntries(ctx, entries))

	got, err := s.ListLedgerEntries(ctx, model.LedgerFilter{ReferenceName: "PAY-1001"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, entries[0].ID, got[0].ID, "insertion order is kept")
	assert.True(t, got[1].Debit.Equal(dec("50")))
	assert.Equal(t, day, got[0].Date)

	got, err = s.ListLedgerEntries(ctx, model.LedgerFilter{Account: "Cash", From: day.AddDate(0, 0, 1)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "PAY-1002", got[0].ReferenceName)

	n, err := s.RevertLedgerEntries(ctx, "Payment", "PAY-1001")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	live, err := s.ListLedgerEntries(ctx, model.LedgerFilter{})
	require.NoError(t, err)
	assert.Len(t, live, 1)

	all, err := s.ListLedgerEntries(ctx, model.LedgerFilter{IncludeReverted: true})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Reverted)
}

func TestLedgerEntryUnknownAccount(t *testing.T) {
	s := openTest(t)
	err := s.InsertLedgerEntries(context.Background(), []model.LedgerEntry{
		{ID: uuid.New(), Account: "Ghost", ReferenceType: "JournalEntry", ReferenceName: "JV-1001"},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSeries(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	_, err := s.GetSeries(ctx, "SINV-")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	ns := model.NumberSeries{Name: "SINV-", Start: 1001, PadZeros: 4, ReferenceType: "SalesInvoice"}
	require.NoError(t, s.SaveSeries(ctx, ns))
	got, err := s.GetSeries(ctx, "SINV-")
	require.NoError(t, err)
	assert.False(t, got.Used())

	cur := 1003
	ns.Current = &cur
	require.NoError(t, s.SaveSeries(ctx, ns))
	got, err = s.GetSeries(ctx, "SINV-")
	require.NoError(t, err)
	require.NotNil(t, got.Current)
	assert.Equal(t, 1003, *got.Current)
}

func TestInvoiceRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	inv := &model.Invoice{
		Name:         "SINV-1001",
		Schema:       model.SchemaSalesInvoice,
		Party:        "Acme",
		Account:      "Debtors",
		Date:         time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		ExchangeRate: dec("1"),
		Items:        []model.InvoiceItem{{Item: "Widget", Account: "Sales", Quantity: dec("2"), Rate: dec("500"), Amount: dec("1000")}},
		Taxes:        []model.TaxRow{{Account: "TaxPayable", Rate: dec("18"), Amount: dec("180")}},
		NetTotal:     dec("1000"),
		GrandTotal:   dec("1180"),
	}
	require.NoError(t, s.SaveInvoice(ctx, inv))

	got, err := s.GetInvoice(ctx, model.SchemaSalesInvoice, "SINV-1001")
	require.NoError(t, err)
	assert.Nil(t, got.OutstandingAmount)
	assert.True(t, got.Outstanding().Equal(dec("1180")))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Widget", got.Items[0].Item)
	assert.True(t, got.Taxes[0].Amount.Equal(dec("180")))

	got.Submitted = true
	got.SetOutstanding(dec("0"))
	require.NoError(t, s.SaveInvoice(ctx, got))

	again, err := s.GetInvoice(ctx, model.SchemaSalesInvoice, "SINV-1001")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, again.Status())
	require.NotNil(t, again.OutstandingAmount)
	assert.True(t, again.OutstandingAmount.IsZero())

	_, err = s.GetInvoice(ctx, model.SchemaPurchaseInvoice, "SINV-1001")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, s.SaveInvoice(ctx, &model.Invoice{Name: "PINV-1001", Schema: model.SchemaPurchaseInvoice, Party: "Acme"}))
	list, err := s.ListInvoices(ctx, store.InvoiceFilter{Party: "Acme", SubmittedOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "SINV-1001", list[0].Name)
}

func TestJournalEntryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	je := &model.JournalEntry{
		Name:      "JV-1001",
		EntryType: "Journal Entry",
		Date:      time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Accounts: []model.JournalEntryAccount{
			{Account: "Cash", Debit: dec("25")},
			{Account: "Sales", Credit: dec("25")},
		},
	}
	require.NoError(t, s.SaveJournalEntry(ctx, je))

	got, err := s.GetJournalEntry(ctx, "JV-1001")
	require.NoError(t, err)
	require.Len(t, got.Accounts, 2)
	assert.True(t, got.Accounts[1].Credit.Equal(dec("25")))
	assert.Equal(t, model.StatusDraft, got.Status())
}

func TestPaymentsAndReferences(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	ref := func(name, amount string) model.PaymentFor {
		return model.PaymentFor{ReferenceType: model.SchemaSalesInvoice, ReferenceName: name, Amount: dec(amount)}
	}
	p := &model.Payment{
		Name:           "PAY-1002",
		PaymentType:    model.PaymentReceive,
		Party:          "Acme",
		Account:        "Debtors",
		PaymentAccount: "Cash",
		Amount:         dec("1170"),
		WriteOff:       dec("10"),
		For:            []model.PaymentFor{ref("SINV-1001", "1000"), ref("SINV-1002", "180")},
	}
	require.NoError(t, s.SavePayment(ctx, p))
	require.NoError(t, s.SavePayment(ctx, &model.Payment{Name: "PAY-1001", PaymentType: model.PaymentReceive, For: []model.PaymentFor{ref("SINV-1001", "5")}}))

	got, err := s.GetPayment(ctx, "PAY-1002")
	require.NoError(t, err)
	assert.True(t, got.WriteOff.Equal(dec("10")))
	require.Len(t, got.For, 2)
	assert.Equal(t, "SINV-1002", got.For[1].ReferenceName)

	// Saving again replaces the reference rows.
	got.For = got.For[:1]
	require.NoError(t, s.SavePayment(ctx, got))

	byInvoice, err := s.ListPaymentsFor(ctx, model.SchemaSalesInvoice, "SINV-1001")
	require.NoError(t, err)
	require.Len(t, byInvoice, 2)
	assert.Equal(t, "PAY-1001", byInvoice[0].Name)
	assert.Equal(t, "PAY-1002", byInvoice[1].Name)

	none, err := s.ListPaymentsFor(ctx, model.SchemaSalesInvoice, "SINV-1002")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPartiesAndExists(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	require.NoError(t, s.SaveParty(ctx, &model.Party{Name: "Acme", Role: model.RoleCustomer}))
	require.NoError(t, s.SaveParty(ctx, &model.Party{Name: "Acme", Role: model.RoleBoth, OutstandingAmount: dec("12.5")}))

	p, err := s.GetParty(ctx, "Acme")
	require.NoError(t, err)
	assert.Equal(t, model.RoleBoth, p.Role)
	assert.True(t, p.OutstandingAmount.Equal(dec("12.5")))

	ok, err := s.Exists(ctx, model.SchemaParty, "Acme")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, model.SchemaPayment, "PAY-9999")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Exists(ctx, model.Schema("Bogus"), "x")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestTx(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	seedAccounts(t, s, "Cash")

	boom := errors.New("boom")
	err := s.Tx(ctx, func(tx store.Store) error {
		require.NoError(t, tx.AddAccountBalance(ctx, "Cash", dec("10")))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	a, err := s.GetAccount(ctx, "Cash")
	require.NoError(t, err)
	assert.True(t, a.Balance.IsZero(), "rolled back")

	err = s.Tx(ctx, func(tx store.Store) error {
		if err := tx.AddAccountBalance(ctx, "Cash", dec("10")); err != nil {
			return err
		}
		return tx.Tx(ctx, func(inner store.Store) error {
			return inner.AddAccountBalance(ctx, "Cash", dec("5"))
		})
	})
	require.NoError(t, err)

	a, err = s.GetAccount(ctx, "Cash")
	require.NoError(t, err)
	assert.True(t, a.Balance.Equal(dec("15")))
}
