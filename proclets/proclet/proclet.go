package proclet

import (
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/krew-solutions/proclet-go/proclets/channel"
	"github.com/krew-solutions/proclet-go/proclets/performative"
)

// Proclet is one lightweight, interacting workflow process: a uid and
// name, a fixed behavior (net + handlers), a live marking, per-transition
// firing/blocking counters, zero or more channels it participates in,
// and zero or more child proclets it owns (its domain).
type Proclet struct {
	UID      performative.UID
	Name     string
	Group    []performative.UID
	Priority int

	behavior Behavior
	arcs     *arcTable

	marking map[place]struct{}
	tally   map[Tag]int
	slate   map[Tag]int

	domain   []*Proclet
	channels map[string]*channel.Channel

	observers []*observer

	runtime *multierror.Error
}

// observer is one registered Observe/ObserveTransition callback. tag == ""
// means "every transition"; otherwise the callback only sees events from
// that one transition. Identity (not value) is what a detach closure
// matches against, so two observers registered with the same func value
// detach independently.
type observer struct {
	tag Tag
	fn  func(Event)
}

// Option customizes a Proclet at construction time.
type Option func(*Proclet)

// WithGroup sets the proclet's Group: the peers it addresses by default.
// Channel sends do not read it; a handler passes it to
// performative.WithGroup itself.
func WithGroup(group ...performative.UID) Option {
	return func(p *Proclet) { p.Group = group }
}

// WithPriority sets the scheduling hint a parent domain uses to order
// this proclet among its siblings when ticking them (lower runs sooner).
func WithPriority(priority int) Option {
	return func(p *Proclet) { p.Priority = priority }
}

// WithChannel attaches an existing channel under name.
func WithChannel(name string, ch *channel.Channel) Option {
	return func(p *Proclet) {
		if p.channels == nil {
			p.channels = make(map[string]*channel.Channel)
		}
		p.channels[name] = ch
	}
}

// WithChild adds an already-constructed proclet to the domain at
// construction time, as if it had been spawned on tick zero.
func WithChild(child *Proclet) Option {
	return func(p *Proclet) { p.domain = append(p.domain, child) }
}

// New constructs a proclet with the given identity and behavior. Its
// net is derived once here; Net() must return the same value on every
// subsequent call for the lifetime of the proclet.
func New(uid performative.UID, name string, behavior Behavior, opts ...Option) *Proclet {
	p := &Proclet{
		UID:      uid,
		Name:     name,
		behavior: behavior,
		arcs:     buildArcs(behavior.Net()),
		marking:  make(map[place]struct{}),
		tally:    make(map[Tag]int),
		slate:    make(map[Tag]int),
		channels: make(map[string]*channel.Channel),
	}
	if p.arcs.entry >= 0 {
		p.marking[p.arcs.entry] = struct{}{}
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ProcletUID satisfies proclets/channel.Recipient, letting a Proclet be
// addressed directly as a channel party or group member.
func (p *Proclet) ProcletUID() performative.UID { return p.UID }

// Channel returns the channel registered under name, and whether one
// was found.
func (p *Proclet) Channel(name string) (*channel.Channel, bool) {
	ch, ok := p.channels[name]
	return ch, ok
}

// Domain returns a snapshot of this proclet's current children.
func (p *Proclet) Domain() []*Proclet {
	out := make([]*Proclet, len(p.domain))
	copy(out, p.domain)
	return out
}

// Marking returns a snapshot of the currently held place numbers.
func (p *Proclet) Marking() []int {
	out := make([]int, 0, len(p.marking))
	for place := range p.marking {
		out = append(out, place)
	}
	sort.Ints(out)
	return out
}

// Tally reports how many ticks have considered tag for firing, fired or
// not, since construction.
func (p *Proclet) Tally(tag Tag) int { return p.tally[tag] }

// Slate reports the current run of consecutive ticks tag was enabled
// but did not fire. It resets to zero the tick tag fires.
func (p *Proclet) Slate(tag Tag) int { return p.slate[tag] }

// Observe registers fn to receive every event this proclet's ticks yield,
// from any transition, as the push-style counterpart to draining Tick's
// returned slice. The returned func detaches it; calling it more than once
// is a no-op.
func (p *Proclet) Observe(fn func(Event)) (detach func()) {
	return p.attach("", fn)
}

// ObserveTransition registers fn to receive only the events a single
// transition's handler yields.
func (p *Proclet) ObserveTransition(tag Tag, fn func(Event)) (detach func()) {
	return p.attach(tag, fn)
}

func (p *Proclet) attach(tag Tag, fn func(Event)) func() {
	o := &observer{tag: tag, fn: fn}
	p.observers = append(p.observers, o)
	detached := false
	return func() {
		if detached {
			return
		}
		detached = true
		for i, existing := range p.observers {
			if existing == o {
				p.observers = append(p.observers[:i], p.observers[i+1:]...)
				return
			}
		}
	}
}

// notify delivers ev to every observer registered for tag or for every
// transition.
func (p *Proclet) notify(tag Tag, ev Event) {
	for _, o := range p.observers {
		if o.tag == "" || o.tag == tag {
			o.fn(ev)
		}
	}
}

// Warnings reports the malformed-net advisories recorded when the net was
// derived, merged with any held in the runtime field, or nil if there are
// none. Nothing in this package adds to the runtime field, and handlers
// have no call for reporting non-fatal conditions here.
func (p *Proclet) Warnings() error {
	var merged *multierror.Error
	if w := p.arcs.Warnings(); w != nil {
		merged = multierror.Append(merged, w)
	}
	if p.runtime != nil {
		merged = multierror.Append(merged, p.runtime)
	}
	return merged.ErrorOrNil()
}

// tickSink is the concrete Sink a tick hands to each transition handler.
type tickSink struct {
	fired  bool
	events []Event
}

func (s *tickSink) Complete()    { s.fired = true }
func (s *tickSink) Emit(e Event) { s.events = append(s.events, e) }

// Tick drives one round of this proclet's execution: it recurses into
// every domain child first (ordered by ascending priority, ties broken
// by the order children were added), then computes this proclet's own
// enabled transitions and offers each a chance to fire, in ascending
// tally order so a transition that has been starved gets first refusal.
// A handler's error — ordinarily a *Termination or *Restitution — stops
// the tick immediately and propagates to the caller.
func (p *Proclet) Tick() ([]Event, error) {
	var out []Event

	children := make([]*Proclet, len(p.domain))
	copy(children, p.domain)
	sort.SliceStable(children, func(i, j int) bool {
		return children[i].Priority < children[j].Priority
	})
	for _, child := range children {
		childEvents, err := child.Tick()
		out = append(out, childEvents...)
		if err != nil {
			return out, err
		}
	}

	enabled := p.enabledTransitions()
	for _, tag := range enabled {
		handler := p.behavior.Handler(tag)
		if handler == nil {
			continue
		}
		sink := &tickSink{}
		if err := handler(p, tag, sink); err != nil {
			return out, err
		}
		if sink.fired {
			p.fire(tag)
		} else {
			p.slate[tag]++
		}
		p.tally[tag]++

		for _, ev := range sink.events {
			if child, ok := ev.Spawned(); ok && !p.owns(child.UID) {
				p.domain = append(p.domain, child)
			}
			out = append(out, ev)
			p.notify(tag, ev)
		}
	}
	return out, nil
}

// enabledTransitions returns the tags whose input places are all held in
// the current marking, ordered by ascending tally and, among ties, by
// net declaration order.
func (p *Proclet) enabledTransitions() []Tag {
	net := p.behavior.Net()
	type candidate struct {
		tag   Tag
		order int
	}
	candidates := make([]candidate, 0, len(net))
	for idx, e := range net {
		if isSubset(p.arcs.iNodes[e.Tag], p.marking) {
			candidates = append(candidates, candidate{e.Tag, idx})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		ti, tj := candidates[i].tag, candidates[j].tag
		if p.tally[ti] != p.tally[tj] {
			return p.tally[ti] < p.tally[tj]
		}
		return candidates[i].order < candidates[j].order
	})
	tags := make([]Tag, len(candidates))
	for i, c := range candidates {
		tags[i] = c.tag
	}
	return tags
}

// fire applies tag's firing to the marking: marking = (marking \
// i_nodes(tag)) ∪ o_nodes(tag), and resets its slate.
func (p *Proclet) fire(tag Tag) {
	for place := range p.arcs.iNodes[tag] {
		delete(p.marking, place)
	}
	for place := range p.arcs.oNodes[tag] {
		p.marking[place] = struct{}{}
	}
	p.slate[tag] = 0
}

func (p *Proclet) owns(uid performative.UID) bool {
	for _, child := range p.domain {
		if child.UID == uid {
			return true
		}
	}
	return false
}

func isSubset(subset, set map[place]struct{}) bool {
	for p := range subset {
		if _, ok := set[p]; !ok {
			return false
		}
	}
	return true
}
