// Package performative defines the immutable message record exchanged
// between proclets over a channel, and the two speech-act action
// enumerations that label it.
package performative

import (
	"time"

	"github.com/google/uuid"
)

// UID identifies a proclet or a performative. It is a 128-bit value
// (google/uuid) rather than a bare integer so identities never collide
// across independently-created proclets or channels.
type UID = uuid.UUID

// Nil is the zero UID, used to mean "unset".
var Nil = uuid.Nil

// NewUID returns a fresh random UID.
func NewUID() UID {
	return uuid.New()
}

// Init labels a message that opens or steers a conversation during
// construction.
type Init int

const (
	InitRequest Init = iota + 1
	InitPromise
	InitDecline
	InitConfirm
	InitCounter
	InitAbandon
	InitMessage
)

func (a Init) String() string {
	switch a {
	case InitRequest:
		return "Init.request"
	case InitPromise:
		return "Init.promise"
	case InitDecline:
		return "Init.decline"
	case InitConfirm:
		return "Init.confirm"
	case InitCounter:
		return "Init.counter"
	case InitAbandon:
		return "Init.abandon"
	case InitMessage:
		return "Init.message"
	default:
		return "Init.unknown"
	}
}

// Exit labels a message that closes a conversation.
type Exit int

const (
	ExitDeliver Exit = iota + 1
	ExitDecline
	ExitConfirm
	ExitAbandon
	ExitMessage
)

func (a Exit) String() string {
	switch a {
	case ExitDeliver:
		return "Exit.deliver"
	case ExitDecline:
		return "Exit.decline"
	case ExitConfirm:
		return "Exit.confirm"
	case ExitAbandon:
		return "Exit.abandon"
	case ExitMessage:
		return "Exit.message"
	default:
		return "Exit.unknown"
	}
}

// Action is either an Init or an Exit tag. A Performative carries exactly
// one of the two families at a time.
type Action interface {
	isAction()
}

func (a Init) isAction() {}
func (a Exit) isAction() {}

// Performative is the immutable message exchanged over a Channel.
//
// Ts orders messages with nanosecond resolution; Uid is the message's own
// identity; Connect correlates every message belonging to one
// conversation — when unset at send time the channel fills it with the
// performative's own Uid, so the message that opens a thread labels it.
type Performative struct {
	Ts      int64
	Uid     UID
	Channel any
	Sender  UID
	Group   []UID
	Connect UID
	Context map[UID]struct{}
	Action  Action
	Content any
}

// Option configures a Performative built by New.
type Option func(*Performative)

// WithUID overrides the auto-generated message identity.
func WithUID(uid UID) Option {
	return func(p *Performative) { p.Uid = uid }
}

// WithChannel attaches the originating channel reference.
func WithChannel(channel any) Option {
	return func(p *Performative) { p.Channel = channel }
}

// WithSender sets the sending proclet's UID.
func WithSender(sender UID) Option {
	return func(p *Performative) { p.Sender = sender }
}

// WithGroup sets the recipient UIDs.
func WithGroup(group ...UID) Option {
	return func(p *Performative) { p.Group = group }
}

// WithConnect sets the conversation correlation id explicitly. If never
// called, New leaves Connect as Nil and the caller (normally
// Channel.Send) fills it with the performative's own Uid.
func WithConnect(connect UID) Option {
	return func(p *Performative) { p.Connect = connect }
}

// WithContext attaches the application-defined set of related ids.
func WithContext(context map[UID]struct{}) Option {
	return func(p *Performative) { p.Context = context }
}

// WithAction sets the speech-act tag.
func WithAction(action Action) Option {
	return func(p *Performative) { p.Action = action }
}

// WithContent attaches the opaque payload.
func WithContent(content any) Option {
	return func(p *Performative) { p.Content = content }
}

// epoch anchors Ts: its wall-clock UnixNano plus the monotonic time
// elapsed since it, so Ts never runs backwards when the wall clock does.
var epoch = time.Now()

// New constructs a Performative with defaulted Ts and Uid fields, applying
// the supplied options in order.
func New(opts ...Option) Performative {
	p := Performative{
		Ts:  epoch.UnixNano() + time.Since(epoch).Nanoseconds(),
		Uid: NewUID(),
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}
