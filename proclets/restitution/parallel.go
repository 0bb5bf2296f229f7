package restitution

import (
	"context"
	"fmt"
	"sync"
)

// Parallel runs several branch plans concurrently as a single Activity
// (Section 8, "Nested Sagas", Garcia-Molina & Salem 1987): fork all
// branches and join on the slowest. Once every branch has finished, if
// any branch failed (having already unwound itself), every branch that
// did succeed is compensated too, concurrently. Running branches are not
// cancelled when another one fails.
type Parallel struct {
	branches []*Plan
}

// NewParallel returns a Parallel activity over the given branch plans.
func NewParallel(branches ...*Plan) *Parallel {
	return &Parallel{branches: branches}
}

// Perform runs every branch concurrently.
func (pa *Parallel) Perform(ctx context.Context, _ Arguments) (Result, error) {
	errs := make([]error, len(pa.branches))
	var wg sync.WaitGroup
	for i, b := range pa.branches {
		wg.Add(1)
		go func(i int, b *Plan) {
			defer wg.Done()
			errs[i] = b.Run(ctx)
		}(i, b)
	}
	wg.Wait()

	var failures []error
	for _, err := range errs {
		if err != nil {
			failures = append(failures, err)
		}
	}
	if len(failures) > 0 {
		pa.compensateSucceeded(ctx, errs)
		return nil, fmt.Errorf("restitution: %d of %d parallel branches failed: %w",
			len(failures), len(pa.branches), failures[0])
	}
	return Result{"branches": pa.branches}, nil
}

// compensateSucceeded unwinds every branch that did not already unwind
// itself inside its own failed Run.
func (pa *Parallel) compensateSucceeded(ctx context.Context, errs []error) {
	var wg sync.WaitGroup
	for i, b := range pa.branches {
		if errs[i] != nil {
			continue
		}
		wg.Add(1)
		go func(b *Plan) {
			defer wg.Done()
			b.Unwind(ctx)
		}(b)
	}
	wg.Wait()
}

// Compensate unwinds every branch concurrently, used when Parallel
// itself is a step inside an outer plan that is unwinding.
func (pa *Parallel) Compensate(ctx context.Context, _ Result) error {
	errs := make([]error, len(pa.branches))
	var wg sync.WaitGroup
	for i, b := range pa.branches {
		wg.Add(1)
		go func(i int, b *Plan) {
			defer wg.Done()
			errs[i] = b.Unwind(ctx)
		}(i, b)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
