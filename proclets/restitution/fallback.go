package restitution

import (
	"context"
	"fmt"
)

// Fallback tries alternative plans in order until one succeeds (Section
// 6, "Recovery Blocks", Garcia-Molina & Salem 1987). A failing
// alternative has already compensated itself by the time Fallback moves
// to the next one; only the alternative that succeeds is this
// activity's own responsibility to compensate later.
type Fallback struct {
	alternatives []*Plan
	succeeded    *Plan
}

// NewFallback returns a Fallback activity over the given alternatives,
// tried in the order given.
func NewFallback(alternatives ...*Plan) *Fallback {
	return &Fallback{alternatives: alternatives}
}

// Perform tries each alternative until one completes without error.
func (fa *Fallback) Perform(ctx context.Context, _ Arguments) (Result, error) {
	var lastErr error
	for _, alt := range fa.alternatives {
		if err := alt.Run(ctx); err != nil {
			lastErr = err
			continue
		}
		fa.succeeded = alt
		return Result{"succeeded": alt}, nil
	}
	return nil, fmt.Errorf("restitution: every fallback alternative failed, last error: %w", lastErr)
}

// Compensate unwinds whichever alternative succeeded. A Fallback that
// never succeeded has nothing left to compensate.
func (fa *Fallback) Compensate(ctx context.Context, _ Result) error {
	if fa.succeeded == nil {
		return nil
	}
	return fa.succeeded.Unwind(ctx)
}
