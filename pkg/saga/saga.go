// Package saga runs a short sequence of steps with compensation: when a
// step fails, the completed steps are compensated in reverse order. Payment
// initiation uses it to void a checkout session whose tracker could not be
// persisted.
package saga

import (
	"context"
	"errors"
	"fmt"
)

// Step is one unit of work with an optional compensation.
type Step struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga orchestrates steps with automatic compensation on failure.
type Saga struct {
	name  string
	steps []Step
}

// New creates a saga with the given name.
func New(name string) *Saga {
	return &Saga{name: name}
}

// AddStep appends a step.
func (s *Saga) AddStep(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Execute runs the steps in order. On failure it compensates completed
// steps in reverse order and returns the step error; compensation errors
// are attached.
func (s *Saga) Execute(ctx context.Context) error {
	for i, step := range s.steps {
		if err := step.Execute(ctx); err != nil {
			if compErr := s.compensate(ctx, i); compErr != nil {
				return fmt.Errorf("saga %s: step %q failed (%w), compensation also failed: %v", s.name, step.Name, err, compErr)
			}
			return fmt.Errorf("saga %s: step %q failed: %w", s.name, step.Name, err)
		}
	}
	return nil
}

func (s *Saga) compensate(ctx context.Context, failedIndex int) error {
	var errs []error
	for i := failedIndex - 1; i >= 0; i-- {
		step := s.steps[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("compensate step %q: %w", step.Name, err))
		}
	}
	return errors.Join(errs...)
}
