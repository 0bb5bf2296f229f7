package proclet

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// place is an arc's assigned number. Place 0, when present, is the
// entry place that seeds every proclet's initial marking.
type place = int

// arcTable is the per-kind derivation of a Net into i_nodes/o_nodes,
// cached once at construction (mirrors the source library's cached
// i_nodes/o_nodes properties on proclet.Proclet).
type arcTable struct {
	iNodes   map[Tag]map[place]struct{}
	oNodes   map[Tag]map[place]struct{}
	entry    place // the entry place (0), -1 if the net is empty
	warnings *multierror.Error
}

// buildArcs derives i_nodes/o_nodes from a declared net, honoring two
// special cases on top of the plain "each successor gets a fresh place"
// rule:
//
//   - self-loop: a transition that lists itself as a successor reuses
//     its own existing input place rather than gaining a new one, so
//     firing it repeatedly does not grow the token count it requires.
//   - back-edge: a successor that was declared earlier than its source
//     feeds back into that successor's own earliest input place rather
//     than allocating a fresh one, closing the loop instead of chaining
//     it forward indefinitely.
//
// A successor tag that names no transition in the net is not an arc the
// engine can wire; it is recorded as a warning and otherwise ignored,
// per the "net remains operable" requirement.
func buildArcs(net Net) *arcTable {
	t := &arcTable{
		iNodes: make(map[Tag]map[place]struct{}),
		oNodes: make(map[Tag]map[place]struct{}),
		entry:  -1,
	}
	if len(net) == 0 {
		return t
	}

	position := make(map[Tag]int, len(net))
	for idx, e := range net {
		position[e.Tag] = idx
	}

	firstInput := make(map[Tag]place, len(net))
	ensure := func(m map[Tag]map[place]struct{}, tag Tag) map[place]struct{} {
		s, ok := m[tag]
		if !ok {
			s = make(map[place]struct{})
			m[tag] = s
		}
		return s
	}

	n := 0
	for idx, e := range net {
		k := e.Tag
		if idx == 0 {
			ensure(t.iNodes, k)[n] = struct{}{}
			firstInput[k] = n
			t.entry = n
			n++
		}
		ensure(t.oNodes, k)
		for _, succ := range e.Successors {
			switch {
			case succ == k:
				p, ok := firstInput[k]
				if !ok {
					t.warnings = multierror.Append(t.warnings,
						fmt.Errorf("proclet: transition %q self-loops before it has an input place", k))
					continue
				}
				ensure(t.iNodes, k)[p] = struct{}{}
				ensure(t.oNodes, k)[p] = struct{}{}
			case isBackEdge(position, k, succ, idx):
				p, ok := firstInput[succ]
				if !ok {
					t.warnings = multierror.Append(t.warnings,
						fmt.Errorf("proclet: transition %q back-edges to %q before it has an input place", k, succ))
					continue
				}
				ensure(t.oNodes, k)[p] = struct{}{}
			default:
				if _, declared := position[succ]; !declared {
					t.warnings = multierror.Append(t.warnings,
						fmt.Errorf("proclet: transition %q names undeclared successor %q", k, succ))
				}
				ensure(t.oNodes, k)[n] = struct{}{}
				ensure(t.iNodes, succ)[n] = struct{}{}
				if _, ok := firstInput[succ]; !ok {
					firstInput[succ] = n
				}
				n++
			}
		}
	}
	return t
}

func isBackEdge(position map[Tag]int, from, to Tag, fromIdx int) bool {
	toIdx, ok := position[to]
	if !ok {
		return false
	}
	return toIdx < fromIdx
}

// Warnings returns the accumulated net-construction advisories (unknown
// or premature edges), or nil if the net was fully consistent.
func (t *arcTable) Warnings() error {
	if t.warnings == nil {
		return nil
	}
	return t.warnings.ErrorOrNil()
}
