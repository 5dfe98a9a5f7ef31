// Package workflow runs an ordered list of steps, undoing the completed
// ones in reverse order when a later step fails.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Step is one unit of work. Undo may be nil when the step has nothing to
// compensate.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// Plan is an ordered list of steps.
type Plan struct {
	Name   string
	steps  []Step
	logger *zap.Logger
}

// NewPlan creates an empty plan. A nil logger discards output.
func NewPlan(name string, logger *zap.Logger) *Plan {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Plan{Name: name, logger: logger}
}

// Add appends a step and returns the plan.
func (p *Plan) Add(step Step) *Plan {
	p.steps = append(p.steps, step)
	return p
}

// Steps returns the step names in run order.
func (p *Plan) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name
	}
	return names
}

// StepError reports the step that failed and any compensation failures.
type StepError struct {
	Plan       string
	Step       string
	Err        error
	UndoErrors error
}

func (e *StepError) Error() string {
	msg := fmt.Sprintf("%s: step %s: %v", e.Plan, e.Step, e.Err)
	if e.UndoErrors != nil {
		msg += fmt.Sprintf(" (undo failed: %v)", e.UndoErrors)
	}
	return msg
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Run executes the steps in order, each one completely before the next.
// When a step fails the completed steps are undone newest first and a
// *StepError is returned.
func (p *Plan) Run(ctx context.Context) error {
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return p.compensate(ctx, i, step.Name, err)
		}
		p.logger.Debug("running step", zap.String("plan", p.Name), zap.String("step", step.Name))
		if err := step.Do(ctx); err != nil {
			return p.compensate(ctx, i, step.Name, err)
		}
	}
	return nil
}

func (p *Plan) compensate(ctx context.Context, failed int, name string, cause error) error {
	p.logger.Warn("step failed, compensating",
		zap.String("plan", p.Name), zap.String("step", name), zap.Error(cause))

	var undoErrs []error
	for i := failed - 1; i >= 0; i-- {
		step := p.steps[i]
		if step.Undo == nil {
			continue
		}
		if err := step.Undo(ctx); err != nil {
			undoErrs = append(undoErrs, fmt.Errorf("undo %s: %w", step.Name, err))
		}
	}
	return &StepError{Plan: p.Name, Step: name, Err: cause, UndoErrors: errors.Join(undoErrs...)}
}
