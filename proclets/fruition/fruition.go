// Package fruition implements the Winograd–Flores "conversation for
// action" state machine: the lifecycle every outstanding proclet request
// moves through as Init/Exit performatives arrive.
package fruition

import "github.com/krew-solutions/proclet-go/proclets/performative"

// Fruition is the status of one conversation.
type Fruition int

const (
	Inception Fruition = iota
	Elaboration
	Construction
	Transition
	Completion
	Discussion
	Withdrawn
	Defaulted
	Cancelled
)

func (f Fruition) String() string {
	switch f {
	case Inception:
		return "inception"
	case Elaboration:
		return "elaboration"
	case Construction:
		return "construction"
	case Transition:
		return "transition"
	case Completion:
		return "completion"
	case Discussion:
		return "discussion"
	case Withdrawn:
		return "withdrawn"
	case Defaulted:
		return "defaulted"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether f admits no further transitions.
func (f Fruition) IsTerminal() bool {
	switch f {
	case Completion, Defaulted, Withdrawn, Cancelled:
		return true
	default:
		return false
	}
}

type edge struct {
	from Fruition
	on   performative.Action
}

var table = map[edge]Fruition{
	{Inception, performative.InitRequest}: Elaboration,

	{Elaboration, performative.InitPromise}: Construction,
	{Elaboration, performative.InitCounter}: Discussion,
	{Elaboration, performative.InitAbandon}: Withdrawn,
	{Elaboration, performative.InitDecline}: Withdrawn,

	{Construction, performative.ExitDeliver}: Transition,
	{Construction, performative.ExitAbandon}: Cancelled,
	{Construction, performative.ExitDecline}: Defaulted,

	{Transition, performative.ExitConfirm}: Completion,
	{Transition, performative.ExitDecline}: Construction,
	{Transition, performative.ExitAbandon}: Cancelled,

	{Discussion, performative.InitPromise}: Construction,
	{Discussion, performative.InitConfirm}: Construction,
	{Discussion, performative.InitCounter}: Elaboration,
	{Discussion, performative.InitAbandon}: Withdrawn,
	{Discussion, performative.InitDecline}: Withdrawn,
}

// Trigger advances f on event, returning the next state. Terminal states
// are idempotent: any event leaves them unchanged. An event with no entry
// for the current state also leaves it unchanged.
func (f Fruition) Trigger(event performative.Action) Fruition {
	if f.IsTerminal() {
		return f
	}
	if next, ok := table[edge{f, event}]; ok {
		return next
	}
	return f
}
