// Package population implements the process-wide proclet registry: a
// bounded, explicit-removal UID → proclet index used only for symbolic
// lookup (pretty-printing, cross-proclet discovery by id) — never for
// ownership. Ownership runs through each proclet's domain tree.
//
// The underlying cache is a container/list LRU in the same shape as the
// session identity-map cache elsewhere in this codebase: bounding a
// lookup index this way is exactly what that cache already does,
// generalised here from "one entity per isolation level" to "one
// proclet per uid".
package population

import (
	"container/list"

	"github.com/krew-solutions/proclet-go/proclets/performative"
)

type entry struct {
	uid   performative.UID
	value any
}

// Registry is a bounded UID → proclet index. A zero Registry is not
// usable; use New.
type Registry struct {
	items map[performative.UID]*list.Element
	order *list.List
	size  int
}

// New creates a registry that retains lookups for at most size distinct
// UIDs, evicting the least-recently-touched entry once full. size <= 0
// means unbounded.
func New(size int) *Registry {
	return &Registry{
		items: make(map[performative.UID]*list.Element),
		order: list.New(),
		size:  size,
	}
}

// Register stores (or refreshes) the lookup entry for uid.
func (r *Registry) Register(uid performative.UID, value any) {
	if elem, ok := r.items[uid]; ok {
		elem.Value = entry{uid: uid, value: value}
		r.order.MoveToBack(elem)
		return
	}
	elem := r.order.PushBack(entry{uid: uid, value: value})
	r.items[uid] = elem
	if r.size > 0 && len(r.items) > r.size {
		front := r.order.Front()
		r.order.Remove(front)
		delete(r.items, front.Value.(entry).uid)
	}
}

// Lookup returns the proclet registered under uid, and whether one was
// found. A miss does not distinguish "never registered" from "evicted" —
// the registry is a lookup convenience, not a source of truth.
func (r *Registry) Lookup(uid performative.UID) (any, bool) {
	elem, ok := r.items[uid]
	if !ok {
		return nil, false
	}
	r.order.MoveToBack(elem)
	return elem.Value.(entry).value, true
}

// Retire removes uid's entry immediately, regardless of recency. A host
// that knows a proclet's lifecycle has ended should call this rather than
// waiting for LRU eviction, so population.Lookup stops returning it.
func (r *Registry) Retire(uid performative.UID) {
	elem, ok := r.items[uid]
	if !ok {
		return
	}
	delete(r.items, uid)
	r.order.Remove(elem)
}

// Len reports how many entries the registry currently holds.
func (r *Registry) Len() int {
	return len(r.items)
}
