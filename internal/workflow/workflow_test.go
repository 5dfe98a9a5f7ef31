package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls []string
}

func (r *recorder) step(name string, fail error) Step {
	return Step{
		Name: name,
		Do: func(context.Context) error {
			r.calls = append(r.calls, "do "+name)
			return fail
		},
		Undo: func(context.Context) error {
			r.calls = append(r.calls, "undo "+name)
			return nil
		},
	}
}

func TestRunInOrder(t *testing.T) {
	rec := &recorder{}
	p := NewPlan("cancel SINV-1001", nil).
		Add(rec.step("PAY-1001", nil)).
		Add(rec.step("PAY-1002", nil)).
		Add(rec.step("SINV-1001", nil))

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, []string{"do PAY-1001", "do PAY-1002", "do SINV-1001"}, rec.calls)
	assert.Equal(t, []string{"PAY-1001", "PAY-1002", "SINV-1001"}, p.Steps())
}

func TestRunCompensatesInReverse(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("boom")
	p := NewPlan("cancel", nil).
		Add(rec.step("a", nil)).
		Add(Step{Name: "b", Do: func(context.Context) error { rec.calls = append(rec.calls, "do b"); return nil }}).
		Add(rec.step("c", nil)).
		Add(rec.step("d", boom)).
		Add(rec.step("e", nil))

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "d", se.Step)
	assert.NoError(t, se.UndoErrors)

	assert.Equal(t, []string{"do a", "do b", "do c", "do d", "undo c", "undo a"}, rec.calls,
		"failed step is not undone, steps without Undo are skipped")
}

func TestRunReportsUndoFailures(t *testing.T) {
	undoErr := errors.New("undo broke")
	p := NewPlan("cancel", nil).
		Add(Step{
			Name: "a",
			Do:   func(context.Context) error { return nil },
			Undo: func(context.Context) error { return undoErr },
		}).
		Add(Step{Name: "b", Do: func(context.Context) error { return errors.New("boom") }})

	err := p.Run(context.Background())
	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, se.UndoErrors, undoErr)
	assert.Contains(t, err.Error(), "undo failed")
	assert.Contains(t, err.Error(), "step b")
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPlan("cancel", nil).
		Add(Step{Name: "a", Do: func(context.Context) error {
			rec.calls = append(rec.calls, "do a")
			cancel()
			return nil
		}, Undo: func(context.Context) error {
			rec.calls = append(rec.calls, "undo a")
			return nil
		}}).
		Add(rec.step("b", nil))

	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"do a", "undo a"}, rec.calls)
}

func TestEmptyPlan(t *testing.T) {
	assert.NoError(t, NewPlan("noop", nil).Run(context.Background()))
}
