// Package proclet implements the workflow-net execution engine: the
// arc/marking derivation described in the Proclets framework (van der
// Aalst, Barthelmess, Ellis, Wainer, 2001) and the single tick-driven,
// cooperative scheduler that fires transitions against it.
package proclet

import (
	"fmt"

	"github.com/krew-solutions/proclet-go/proclets/performative"
)

// Tag identifies one transition in a proclet's net. Nets are declared
// once per proclet kind as a constant, ordered list of (tag, successors)
// pairs — declaration order matters (see Net) because it is what the
// engine consults to classify an edge as forward, self-loop, or
// back-edge.
type Tag string

// NetEntry declares one transition and the tags of the transitions it
// feeds on firing.
type NetEntry struct {
	Tag        Tag
	Successors []Tag
}

// Net is a proclet kind's workflow graph, in declaration order. The
// first entry's transition is the one whose input place seeds the
// initial marking ({0}).
type Net []NetEntry

// Event is what a transition handler, or a recursed child tick, yields
// upward out of Proclet.Tick. The zero Event is not meaningful; use one
// of the constructors below.
type Event struct {
	spawn   *Proclet
	payload any
}

// Spawned reports the child proclet carried by this event, if any.
func (e Event) Spawned() (*Proclet, bool) {
	return e.spawn, e.spawn != nil
}

// Payload reports the passthrough value carried by this event (typically
// a performative.Performative), if any.
func (e Event) Payload() (any, bool) {
	return e.payload, e.spawn == nil && e.payload != nil
}

// SpawnEvent wraps a newly created child proclet for propagation upward.
func SpawnEvent(p *Proclet) Event {
	return Event{spawn: p}
}

// MessageEvent wraps an arbitrary passthrough value — typically a
// performative.Performative a handler has already deposited on a
// channel — for propagation upward unchanged.
func MessageEvent(payload any) Event {
	return Event{payload: payload}
}

// Sink is the output buffer a transition handler writes its yielded
// events into, in order. Calling Complete marks the transition as having
// fired this tick: once the handler returns, its input places are retired
// and its output places are marked, once per tick however many times
// Complete was called. A handler that calls Sink methods
// zero times, or only Emit, blocks for this tick.
type Sink interface {
	// Complete signals that the transition fired this tick.
	Complete()
	// Emit yields a non-sentinel event (a spawned child or a passthrough
	// payload) upward to the tick caller.
	Emit(Event)
}

// Handler is a proclet kind's logic for one transition. this is the
// transition's own tag, so a handler shared across tags (or reused
// across proclet instances of the same kind) can still identify which
// one fired.
type Handler func(p *Proclet, this Tag, out Sink) error

// Behavior is what a concrete proclet kind supplies: its net and the
// handler for each of the net's transitions. Net() is called at
// construction time to derive the arcs and again on every tick to list
// the transitions; its result must be constant for the kind (the
// "net accessor to be overridden" of the external interface).
type Behavior interface {
	Net() Net
	Handler(tag Tag) Handler
}

// FlowError is the common marker for the two flow-control exceptions a
// handler may raise: Termination (orderly stop) and Restitution
// (rollback request). Both propagate to the host unchanged.
type FlowError interface {
	error
	isFlowError()
}

// Termination signals that the host should stop ticking — the Go
// analogue of the source library's Termination exception.
type Termination struct {
	Reason string
}

func (t *Termination) Error() string {
	if t.Reason == "" {
		return "proclet: termination"
	}
	return fmt.Sprintf("proclet: termination: %s", t.Reason)
}
func (t *Termination) isFlowError() {}

// Restitution signals that the host should roll back — reserved for
// compensation semantics; see proclets/restitution for a concrete
// implementation built on top of it.
type Restitution struct {
	Reason string
}

func (r *Restitution) Error() string {
	if r.Reason == "" {
		return "proclet: restitution"
	}
	return fmt.Sprintf("proclet: restitution: %s", r.Reason)
}
func (r *Restitution) isFlowError() {}

// UID is re-exported for callers that only import this package.
type UID = performative.UID
