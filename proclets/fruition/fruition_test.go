package fruition

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/krew-solutions/proclet-go/proclets/performative"
)

func TestRoundTripRequestToCompletion(t *testing.T) {
	f := Inception
	f = f.Trigger(performative.InitRequest)
	assert.Equal(t, Elaboration, f)
	f = f.Trigger(performative.InitPromise)
	assert.Equal(t, Construction, f)
	f = f.Trigger(performative.ExitDeliver)
	assert.Equal(t, Transition, f)
	f = f.Trigger(performative.ExitConfirm)
	assert.Equal(t, Completion, f)
	assert.True(t, f.IsTerminal())
}

func TestDiscussionDetourAndReturn(t *testing.T) {
	f := Elaboration
	f = f.Trigger(performative.InitCounter)
	assert.Equal(t, Discussion, f)
	f = f.Trigger(performative.InitPromise)
	assert.Equal(t, Construction, f)
}

func TestCounterIsOnlyMeaningfulInElaborationAndDiscussion(t *testing.T) {
	f := Construction
	assert.Equal(t, Construction, f.Trigger(performative.InitCounter))
}

func TestTerminalStatesAreIdempotent(t *testing.T) {
	for _, terminal := range []Fruition{Completion, Defaulted, Withdrawn, Cancelled} {
		for _, event := range []performative.Action{
			performative.InitRequest, performative.InitPromise, performative.ExitConfirm,
		} {
			assert.Equal(t, terminal, terminal.Trigger(event))
		}
	}
}

func TestUnknownEventLeavesStateUnchanged(t *testing.T) {
	f := Elaboration
	assert.Equal(t, Elaboration, f.Trigger(performative.ExitConfirm))
}
