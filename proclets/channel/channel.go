// Package channel implements the address-demultiplexed, multi-party
// broadcast mailbox store that proclets use to exchange performatives.
//
// Information is only available locally to a proclet, so synchronisation
// between collaborating proclets can only happen at a channel — the same
// framing the source corpus uses (Fahland, "Describing behaviour of
// Processes with Many-to-Many Interactions", 2019).
package channel

import (
	"iter"
	"sort"

	pkgerrors "github.com/pkg/errors"

	"github.com/krew-solutions/proclet-go/proclets/performative"
)

// ErrMailboxEmpty is returned by Get when the requested party has no
// unread performative.
var ErrMailboxEmpty = pkgerrors.New("channel: mailbox empty")

// IsMailboxEmpty reports whether err (or any error it wraps) is
// ErrMailboxEmpty.
func IsMailboxEmpty(err error) bool {
	return pkgerrors.Cause(err) == ErrMailboxEmpty
}

// Recipient is the minimal shape Reply and Respond need from a proclet:
// enough to address a reply and drain its own mailbox, without the
// channel package importing the proclet package back.
type Recipient interface {
	ProcletUID() performative.UID
}

// Channel is a shared, per-recipient FIFO mailbox store with per-party
// read cursors. A zero Channel is not usable; use New.
type Channel struct {
	maxlen    int
	store     map[performative.UID][]performative.Performative
	readIndex map[performative.UID]map[any]int
}

// New creates an empty channel. maxlen bounds the delivered-history kept
// per recipient once every registered party has read past a given point
// (0 means unbounded — the default).
func New(maxlen int) *Channel {
	return &Channel{
		maxlen:    maxlen,
		store:     make(map[performative.UID][]performative.Performative),
		readIndex: make(map[performative.UID]map[any]int),
	}
}

func (c *Channel) ensureParty(uid performative.UID, party any) int {
	parties, ok := c.readIndex[uid]
	if !ok {
		// The default reader (party nil) is registered at position 0 as
		// soon as uid's mailbox exists, so it sees every delivery.
		parties = map[any]int{nil: 0}
		c.readIndex[uid] = parties
	}
	idx, ok := parties[party]
	if !ok {
		// Any other party seen for the first time starts at the current
		// queue length, so it never observes traffic delivered before it
		// existed.
		idx = len(c.store[uid])
		parties[party] = idx
	}
	return idx
}

// QSize reports the number of unread performatives for (uid, party).
func (c *Channel) QSize(uid performative.UID, party any) int {
	idx := c.ensureParty(uid, party)
	return len(c.store[uid]) - idx
}

// Empty reports whether (uid, party) has no unread performative.
func (c *Channel) Empty(uid performative.UID, party any) bool {
	return c.QSize(uid, party) == 0
}

// Full always reports false: this channel never rejects a Put on
// capacity grounds, matching the library's external contract.
func (c *Channel) Full(performative.UID, any) bool {
	return false
}

// Put deposits item into the mailbox of every UID in item.Group. It
// returns the fan-out count. A message with an empty group is a no-op.
func (c *Channel) Put(item performative.Performative) int {
	if len(item.Group) == 0 {
		return 0
	}
	n := 0
	for _, uid := range item.Group {
		if _, ok := c.readIndex[uid]; !ok {
			c.readIndex[uid] = map[any]int{nil: 0}
		}
		c.store[uid] = append(c.store[uid], item)
		n++
	}
	c.trim(item.Group)
	return n
}

// trim enforces maxlen for the given recipients by discarding the oldest
// entries that every registered party has already read past. Entries any
// party has not yet read are never discarded, so Get's at-most-once
// contract holds regardless of maxlen.
func (c *Channel) trim(recipients []performative.UID) {
	if c.maxlen <= 0 {
		return
	}
	for _, uid := range recipients {
		queue := c.store[uid]
		if len(queue) <= c.maxlen {
			continue
		}
		minRead := len(queue)
		for _, idx := range c.readIndex[uid] {
			if idx < minRead {
				minRead = idx
			}
		}
		drop := len(queue) - c.maxlen
		if drop > minRead {
			drop = minRead
		}
		if drop <= 0 {
			continue
		}
		c.store[uid] = queue[drop:]
		for party, idx := range c.readIndex[uid] {
			c.readIndex[uid][party] = idx - drop
		}
	}
}

// Get returns the next unread performative for (uid, party) in arrival
// order, decrementing that party's unread count. It returns
// ErrMailboxEmpty if none remain.
func (c *Channel) Get(uid performative.UID, party any) (performative.Performative, error) {
	idx := c.ensureParty(uid, party)
	queue := c.store[uid]
	if idx >= len(queue) {
		return performative.Performative{}, pkgerrors.WithMessagef(ErrMailboxEmpty, "recipient %s party %v", uid, party)
	}
	item := queue[idx]
	c.readIndex[uid][party] = idx + 1
	return item, nil
}

// Send builds a Performative from opts, fills the channel and connect
// defaults, puts it, and returns one copy per delivered recipient — the
// same performative is addressed to every member of its group.
func (c *Channel) Send(opts ...performative.Option) []performative.Performative {
	item := performative.New(opts...)
	if item.Channel == nil {
		item.Channel = c
	}
	if item.Connect == performative.Nil {
		item.Connect = item.Uid
	}
	n := c.Put(item)
	sent := make([]performative.Performative, n)
	for i := range sent {
		sent[i] = item
	}
	return sent
}

// Receive returns a lazy sequence draining (uid, party)'s mailbox until
// empty.
func (c *Channel) Receive(uid performative.UID, party any) iter.Seq[performative.Performative] {
	return func(yield func(performative.Performative) bool) {
		for !c.Empty(uid, party) {
			item, err := c.Get(uid, party)
			if err != nil {
				return
			}
			if !yield(item) {
				return
			}
		}
	}
}

// Reply constructs a new performative addressed to m.Sender only,
// inheriting channel, connect, and context from m, puts it, and returns
// it — preserving conversation correlation.
func (c *Channel) Reply(r Recipient, m performative.Performative, opts ...performative.Option) performative.Performative {
	connect := m.Connect
	if connect == performative.Nil {
		connect = m.Uid
	}
	base := []performative.Option{
		performative.WithSender(r.ProcletUID()),
		performative.WithGroup(m.Sender),
		performative.WithChannel(c),
		performative.WithConnect(connect),
		performative.WithContext(m.Context),
	}
	item := performative.New(append(base, opts...)...)
	c.Put(item)
	return item
}

// Respond drains (r.ProcletUID(), party)'s mailbox. For each message
// whose action is a key of actions it yields the incoming message, then
// — if actions[action] is non-nil — sends a reply with that action, the
// content mapped for it in contents (if any), inherited-or-merged
// context, and connect = m.Connect or m.Uid.
func (c *Channel) Respond(
	r Recipient,
	party any,
	actions map[performative.Action]performative.Action,
	contents map[performative.Action]any,
	context map[performative.UID]struct{},
) []performative.Performative {
	var out []performative.Performative
	for m := range c.Receive(r.ProcletUID(), party) {
		reply, ok := actions[m.Action]
		if !ok {
			continue
		}
		out = append(out, m)
		if reply == nil {
			continue
		}

		mergedContext := mergeContext(m.Context, context)
		var content any
		if contents != nil {
			content = contents[m.Action]
		}
		out = append(out, c.Reply(r, m,
			performative.WithAction(reply),
			performative.WithContent(content),
			performative.WithContext(mergedContext),
		))
	}
	return out
}

func mergeContext(inherited, extra map[performative.UID]struct{}) map[performative.UID]struct{} {
	if len(inherited) == 0 && len(extra) == 0 {
		return nil
	}
	merged := make(map[performative.UID]struct{}, len(inherited)+len(extra))
	for k := range inherited {
		merged[k] = struct{}{}
	}
	for k := range extra {
		merged[k] = struct{}{}
	}
	return merged
}

// View scans the entire channel and returns, for every conversation
// (identified by Connect) that involves uid as sender or recipient, the
// time-ordered list of its messages.
func (c *Channel) View(uid performative.UID) map[performative.UID][]performative.Performative {
	seen := make(map[performative.UID]bool)
	grouped := make(map[performative.UID][]performative.Performative)

	for _, queue := range c.store {
		for _, m := range queue {
			if seen[m.Uid] {
				continue
			}
			if m.Sender != uid && !contains(m.Group, uid) {
				continue
			}
			seen[m.Uid] = true
			grouped[m.Connect] = append(grouped[m.Connect], m)
		}
	}

	for _, messages := range grouped {
		sort.Slice(messages, func(i, j int) bool { return messages[i].Ts < messages[j].Ts })
	}
	return grouped
}

func contains(group []performative.UID, uid performative.UID) bool {
	for _, g := range group {
		if g == uid {
			return true
		}
	}
	return false
}
