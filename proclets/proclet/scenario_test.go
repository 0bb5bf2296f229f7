package proclet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/proclet-go/proclets/channel"
	"github.com/krew-solutions/proclet-go/proclets/performative"
)

const missionRoundBudget = 10

// --- Mission vignette (scenario 5): two Vehicles, two Recoveries ----------

// capsuleVehicle is what a Vehicle becomes after separation: it has
// nothing left to separate from, so its only transition is reentry.
type capsuleVehicle struct {
	vhf     *channel.Channel
	control performative.UID
}

func (b *capsuleVehicle) Net() Net {
	return Net{{Tag: "reenter", Successors: nil}}
}

func (b *capsuleVehicle) Handler(Tag) Handler {
	return func(p *Proclet, this Tag, out Sink) error {
		sent := b.vhf.Send(
			performative.WithSender(p.UID),
			performative.WithGroup(b.control),
			performative.WithAction(performative.ExitMessage),
		)
		for _, m := range sent {
			out.Emit(MessageEvent(m))
		}
		out.Complete()
		return nil
	}
}

// originalVehicle separates once — spawning a capsuleVehicle standing in
// for the jettisoned stage — then reenters itself.
type originalVehicle struct {
	vhf     *channel.Channel
	control performative.UID
}

func (b *originalVehicle) Net() Net {
	return Net{
		{Tag: "separate", Successors: []Tag{"reenter"}},
		{Tag: "reenter", Successors: nil},
	}
}

func (b *originalVehicle) Handler(tag Tag) Handler {
	switch tag {
	case "separate":
		return func(p *Proclet, this Tag, out Sink) error {
			stage := Create(&capsuleVehicle{vhf: b.vhf, control: b.control}, WithRegistry(nil))
			out.Emit(SpawnEvent(stage))
			out.Complete()
			return nil
		}
	case "reenter":
		return (&capsuleVehicle{vhf: b.vhf, control: b.control}).Handler("reenter")
	default:
		return nil
	}
}

type recoveryBehavior struct{}

func (recoveryBehavior) Net() Net { return Net{{Tag: "recover", Successors: nil}} }
func (recoveryBehavior) Handler(Tag) Handler {
	return func(p *Proclet, this Tag, out Sink) error {
		out.Complete()
		return nil
	}
}

// control watches vhf for reentering vehicles and spawns one Recovery
// per target, recording it in results keyed by the vehicle's uid. Once
// two targets have been recovered, its complete transition raises
// Termination — mirroring original_source/proclets/mission.py's
// Control.pro_complete, which raises Termination only once
// len(self.results) == 2.
type control struct {
	vhf     *channel.Channel
	results map[performative.UID]performative.UID
}

func (b *control) Net() Net {
	return Net{
		{Tag: "monitor", Successors: []Tag{"monitor"}},
		{Tag: "complete", Successors: nil},
	}
}

func (b *control) Handler(tag Tag) Handler {
	switch tag {
	case "monitor":
		return func(p *Proclet, this Tag, out Sink) error {
			for m := range b.vhf.Receive(p.UID, nil) {
				recovery := Create(recoveryBehavior{}, WithRegistry(nil))
				b.results[m.Sender] = recovery.UID
				out.Emit(SpawnEvent(recovery))
			}
			out.Complete()
			return nil
		}
	case "complete":
		return func(p *Proclet, this Tag, out Sink) error {
			if len(b.results) >= 2 {
				return &Termination{Reason: "mission complete"}
			}
			out.Complete()
			return nil
		}
	default:
		return nil
	}
}

func TestMissionVignetteYieldsTwoVehiclesAndTwoRecoveries(t *testing.T) {
	vhf := channel.New(0)

	ctrl := New(performative.NewUID(), "control", &control{vhf: vhf, results: map[performative.UID]performative.UID{}})
	ctrlBehavior := ctrl.behavior.(*control)

	v1 := New(performative.NewUID(), "vehicle", &originalVehicle{vhf: vhf, control: ctrl.UID})
	vehicles := []*Proclet{v1}
	var recoveries []*Proclet
	var terminated *Termination

	for round := 0; round < missionRoundBudget && terminated == nil; round++ {
		current := append([]*Proclet(nil), vehicles...)
		for _, v := range current {
			events, err := v.Tick()
			require.NoError(t, err)
			for _, ev := range events {
				if child, ok := ev.Spawned(); ok {
					vehicles = append(vehicles, child)
				}
			}
		}

		events, err := ctrl.Tick()
		for _, ev := range events {
			if child, ok := ev.Spawned(); ok {
				recoveries = append(recoveries, child)
			}
		}
		if err != nil {
			require.ErrorAs(t, err, &terminated,
				"control's complete transition must raise *proclet.Termination once two vehicles have been recovered")
		}
	}

	require.NotNil(t, terminated, "driving control and the vehicles must reach Termination within the round budget")
	require.Len(t, vehicles, 2, "the original vehicle plus exactly one spawned at separation")
	require.Len(t, recoveries, 2, "one Recovery per reentering vehicle")

	for _, v := range vehicles {
		target, ok := ctrlBehavior.results[v.UID]
		assert.True(t, ok, "every recovered vehicle must appear in control's results map")
		assert.NotEqual(t, performative.Nil, target)
	}
}

// --- Deliver/retry vignette (scenario 6) ----------------------------------

// packageActivity models a Package on a Delivery conveyor: luck == 1
// delivers on its first attempt; luck == 0 never does, and Delivery
// abandons it once its retry count reaches limit.
type packageActivity struct {
	luck  int
	limit int
}

func (b *packageActivity) Net() Net {
	return Net{{Tag: "attempt", Successors: []Tag{"attempt"}}}
}

func (b *packageActivity) Handler(Tag) Handler {
	return func(p *Proclet, this Tag, out Sink) error {
		if b.luck == 1 {
			out.Emit(MessageEvent(performative.New(performative.WithAction(performative.ExitDeliver))))
			out.Complete()
			return nil
		}
		if p.Tally(this)+1 >= b.limit {
			out.Emit(MessageEvent(performative.New(performative.WithAction(performative.ExitAbandon))))
			out.Complete()
			return nil
		}
		return nil
	}
}

func countActions(events []Event) (delivers, abandons int) {
	for _, ev := range events {
		payload, ok := ev.Payload()
		if !ok {
			continue
		}
		m, ok := payload.(performative.Performative)
		if !ok {
			continue
		}
		switch m.Action {
		case performative.ExitDeliver:
			delivers++
		case performative.ExitAbandon:
			abandons++
		}
	}
	return
}

func TestDeliverRetryVignetteLuckyPackageDeliversImmediately(t *testing.T) {
	p := New(performative.NewUID(), "package", &packageActivity{luck: 1, limit: 3})

	events, err := p.Tick()
	require.NoError(t, err)
	delivers, abandons := countActions(events)
	assert.Equal(t, 1, delivers)
	assert.Equal(t, 0, abandons)
	assert.Equal(t, 1, p.Tally("attempt"))
}

func TestDeliverRetryVignetteUnluckyPackageRetriesThenAbandons(t *testing.T) {
	limit := 3
	p := New(performative.NewUID(), "package", &packageActivity{luck: 0, limit: limit})

	var totalDelivers, totalAbandons int
	for i := 0; i < limit; i++ {
		events, err := p.Tick()
		require.NoError(t, err)
		d, a := countActions(events)
		totalDelivers += d
		totalAbandons += a
	}

	assert.Equal(t, 0, totalDelivers)
	assert.Equal(t, 1, totalAbandons, "exactly one Exit.abandon once the retry limit is reached")
	assert.Equal(t, limit, p.Tally("attempt"), "Delivery records one retry attempt per tick up to the limit")
}
