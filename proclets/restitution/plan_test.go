package restitution

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/proclet-go/proclets/proclet"
)

type recordingActivity struct {
	name        string
	failPerform bool
	log         *[]string
}

func (a *recordingActivity) Perform(ctx context.Context, args Arguments) (Result, error) {
	*a.log = append(*a.log, "perform:"+a.name)
	if a.failPerform {
		return nil, errors.New(a.name + " failed")
	}
	return Result{"name": a.name}, nil
}

func (a *recordingActivity) Compensate(ctx context.Context, result Result) error {
	*a.log = append(*a.log, "compensate:"+a.name)
	return nil
}

func TestPlanRunSucceedsThroughAllSteps(t *testing.T) {
	var log []string
	plan := NewPlan().
		Add(&recordingActivity{name: "a", log: &log}, nil).
		Add(&recordingActivity{name: "b", log: &log}, nil)

	err := plan.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"perform:a", "perform:b"}, log)
	assert.True(t, plan.IsCompleted())
}

func TestPlanRunUnwindsCompletedStepsOnFailure(t *testing.T) {
	var log []string
	plan := NewPlan().
		Add(&recordingActivity{name: "a", log: &log}, nil).
		Add(&recordingActivity{name: "b", failPerform: true, log: &log}, nil).
		Add(&recordingActivity{name: "c", log: &log}, nil)

	err := plan.Run(context.Background())
	require.Error(t, err)

	var restitution *proclet.Restitution
	require.ErrorAs(t, err, &restitution)
	assert.Contains(t, restitution.Reason, "b failed")

	assert.Equal(t, []string{"perform:a", "perform:b", "compensate:a"}, log,
		"c must never run and only a's successful step is compensated")
	assert.False(t, plan.IsInProgress())
}
