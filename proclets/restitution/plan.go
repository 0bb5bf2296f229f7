// Package restitution gives the proclet engine's abstract Restitution
// flow-control error a concrete rollback mechanism: an in-process
// routing slip of activities, each able to compensate its own prior
// work, adapted from the Saga pattern (Garcia-Molina & Salem, 1987).
//
// Where the source saga package routes WorkItems between queues by
// address so activities can run on separate hosts, a proclet's
// restitution plan runs entirely inside one Tick call — there is no
// transport to address, so Perform and Compensate are plain function
// calls and a failure unwinds its own plan before the Tick that
// triggered it ever returns.
package restitution

import (
	"context"
	"fmt"

	"github.com/krew-solutions/proclet-go/proclets/proclet"
)

// Arguments carries the inputs to one step's Perform call.
type Arguments map[string]any

// Result carries what a step's Perform call produced, handed back to
// that same step's Compensate call if the plan later unwinds.
type Result map[string]any

// Activity is one compensatable unit of work.
type Activity interface {
	// Perform executes the activity's forward work.
	Perform(ctx context.Context, args Arguments) (Result, error)
	// Compensate reverses previously completed work. It is only ever
	// called with the Result that Activity's own Perform returned.
	Compensate(ctx context.Context, result Result) error
}

type step struct {
	activity Activity
	args     Arguments
}

type completed struct {
	activity Activity
	result   Result
}

// Plan is a forward queue of pending steps and a backward stack of
// completed ones — the in-process analogue of a saga RoutingSlip.
type Plan struct {
	pending []step
	done    []completed
}

// NewPlan returns an empty plan ready for Add calls.
func NewPlan() *Plan {
	return &Plan{}
}

// Add appends a step to the forward queue and returns the plan, so
// calls can be chained.
func (p *Plan) Add(activity Activity, args Arguments) *Plan {
	p.pending = append(p.pending, step{activity: activity, args: args})
	return p
}

// IsCompleted reports whether every step has been processed.
func (p *Plan) IsCompleted() bool {
	return len(p.pending) == 0
}

// IsInProgress reports whether any step has completed and so could be
// compensated.
func (p *Plan) IsInProgress() bool {
	return len(p.done) > 0
}

// Run processes pending steps in order. The moment one fails, Run
// unwinds every step completed so far (in reverse, stopping at the first
// compensation failure) and returns a *proclet.Restitution whose Reason
// carries the failure's message (and the compensation error, if any);
// the original error itself is not wrapped. A nil return means every
// step performed successfully.
func (p *Plan) Run(ctx context.Context) error {
	for !p.IsCompleted() {
		s := p.pending[0]
		p.pending = p.pending[1:]

		result, err := s.activity.Perform(ctx, s.args)
		if err != nil {
			if unwindErr := p.Unwind(ctx); unwindErr != nil {
				return &proclet.Restitution{
					Reason: fmt.Sprintf("%s (compensation also failed: %s)", err, unwindErr),
				}
			}
			return &proclet.Restitution{Reason: err.Error()}
		}
		p.done = append(p.done, completed{activity: s.activity, result: result})
	}
	return nil
}

// Unwind compensates every completed step, most recent first, stopping
// at the first compensation failure.
func (p *Plan) Unwind(ctx context.Context) error {
	for p.IsInProgress() {
		last := p.done[len(p.done)-1]
		p.done = p.done[:len(p.done)-1]
		if err := last.activity.Compensate(ctx, last.result); err != nil {
			return err
		}
	}
	return nil
}
