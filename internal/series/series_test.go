package series

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/store/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	s := memory.New()
	svc := NewService(s, nil)
	_, err := svc.Ensure(context.Background())
	require.NoError(t, err)
	return svc, s
}

func TestNextSequence(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)

	want := []string{"SINV-1001", "SINV-1002", "SINV-1003", "SINV-1004"}
	for i, w := range want {
		got, err := svc.Next(ctx, "SINV-", model.SchemaSalesInvoice)
		require.NoError(t, err)
		assert.Equal(t, w, got)

		ns, err := s.GetSeries(ctx, "SINV-")
		require.NoError(t, err)
		require.NotNil(t, ns.Current)
		assert.Equal(t, 1001+i, *ns.Current)
	}
}

func TestNextPadding(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	svc := NewService(s, nil)
	require.NoError(t, svc.Save(ctx, model.NumberSeries{Name: "INV-", Start: 7, PadZeros: 5}))

	got, err := svc.Next(ctx, "INV-", model.SchemaSalesInvoice)
	require.NoError(t, err)
	assert.Equal(t, "INV-00007", got)
}

func TestNextSkipsOneCollision(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)
	require.NoError(t, s.SavePayment(ctx, &model.Payment{Name: "PAY-1001"}))

	got, err := svc.Next(ctx, "PAY-", model.SchemaPayment)
	require.NoError(t, err)
	assert.Equal(t, "PAY-1002", got)

	ns, err := s.GetSeries(ctx, "PAY-")
	require.NoError(t, err)
	assert.Equal(t, 1002, *ns.Current)
}

func TestNextSecondCollisionIsNotAnError(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)
	require.NoError(t, s.SavePayment(ctx, &model.Payment{Name: "PAY-1001"}))
	require.NoError(t, s.SavePayment(ctx, &model.Payment{Name: "PAY-1002"}))

	got, err := svc.Next(ctx, "PAY-", model.SchemaPayment)
	require.NoError(t, err)
	assert.Equal(t, "PAY-1002", got, "only one retry is made")
}

func TestNextCollisionIsPerSchema(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)
	require.NoError(t, s.SaveInvoice(ctx, &model.Invoice{Name: "SINV-1001", Schema: model.SchemaPurchaseInvoice}))

	got, err := svc.NextFor(ctx, model.SchemaSalesInvoice)
	require.NoError(t, err)
	assert.Equal(t, "SINV-1001", got)
}

func TestNextUnknownSeries(t *testing.T) {
	svc := NewService(memory.New(), nil)
	_, err := svc.Next(context.Background(), "NOPE-", model.SchemaPayment)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEnsure(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	svc := NewService(s, nil)

	n, err := svc.Ensure(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = svc.Ensure(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	for prefix, schema := range map[string]string{"SINV-": "SalesInvoice", "PINV-": "PurchaseInvoice", "JV-": "JournalEntry", "PAY-": "Payment"} {
		ns, err := s.GetSeries(ctx, prefix)
		require.NoError(t, err)
		assert.Equal(t, DefaultStart, ns.Start)
		assert.Equal(t, DefaultPadZeros, ns.PadZeros)
		assert.Equal(t, schema, ns.ReferenceType)
		assert.False(t, ns.Used())
	}
}

func TestSaveUsedSeriesIsFrozen(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)

	ns, err := s.GetSeries(ctx, "JV-")
	require.NoError(t, err)
	ns.PadZeros = 6
	require.NoError(t, svc.Save(ctx, *ns), "unused series can be changed")

	_, err = svc.Next(ctx, "JV-", model.SchemaJournalEntry)
	require.NoError(t, err)
	used, err := s.GetSeries(ctx, "JV-")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*model.NumberSeries)
		field  string
	}{
		{"start", func(ns *model.NumberSeries) { ns.Start = 1 }, "start"},
		{"padding", func(ns *model.NumberSeries) { ns.PadZeros = 2 }, "pad_zeros"},
		{"reference type", func(ns *model.NumberSeries) { ns.ReferenceType = "Payment" }, "reference_type"},
		{"current backwards", func(ns *model.NumberSeries) { c := *ns.Current - 1; ns.Current = &c }, "current"},
		{"current cleared", func(ns *model.NumberSeries) { ns.Current = nil }, "current"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed := *used
			c := *used.Current
			changed.Current = &c
			tt.mutate(&changed)

			err := svc.Save(ctx, changed)
			var ve *apperrors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	c := *used.Current + 10
	used.Current = &c
	require.NoError(t, svc.Save(ctx, *used), "current may move forward")
}

func TestSaveValidation(t *testing.T) {
	svc := NewService(memory.New(), nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Save(ctx, model.NumberSeries{Name: " "}), apperrors.ErrValidation)
	assert.ErrorIs(t, svc.Save(ctx, model.NumberSeries{Name: "X-", Start: -1}), apperrors.ErrValidation)
	assert.ErrorIs(t, svc.Save(ctx, model.NumberSeries{Name: "X-", PadZeros: -1}), apperrors.ErrValidation)
}
