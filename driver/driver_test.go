package driver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberiada-go/cgml/clock"
	"github.com/cyberiada-go/cgml/model"

	_ "github.com/cyberiada-go/cgml/devices/counter"
	_ "github.com/cyberiada-go/cgml/devices/gardener"
	_ "github.com/cyberiada-go/cgml/devices/impulse"
)

// toggleMachine builds the two-state toggle of spec.md §8 scenario 2
// directly as a model.StateMachine, bypassing the XML parser so this
// package's tests focus on Build/Run wiring.
func toggleMachine() *model.StateMachine {
	sm := model.New()
	sm.Platform = "Bearloga"
	sm.StandardVersion = "1.0"

	sm.Initials["init"] = &model.InitialVertex{ID: "init"}
	sm.States["on"] = &model.State{ID: "on"}
	sm.States["off"] = &model.State{ID: "off"}

	sm.Transitions["t-init"] = &model.Transition{ID: "t-init", SourceID: "init", TargetID: "on"}
	sm.Transitions["t-on-off"] = &model.Transition{ID: "t-on-off", SourceID: "on", TargetID: "off", TriggerBlock: "toggle /"}
	sm.Transitions["t-off-on"] = &model.Transition{ID: "t-off-on", SourceID: "off", TargetID: "on", TriggerBlock: "toggle /"}
	return sm
}

func TestTwoStateToggleEndToEnd(t *testing.T) {
	sm := toggleMachine()
	rt, err := Build(sm, nil)
	require.NoError(t, err)

	res, err := Run(context.Background(), rt, []string{"toggle", "toggle", "toggle"}, RunOptions{})
	require.NoError(t, err)
	assert.False(t, res.TimedOut)

	cur := rt.Machine.Current()
	require.NotNil(t, cur)
	assert.Equal(t, "off", cur.ID())
}

// guardedLoopMachine builds scenario 4 (guarded self-loop counting to 3,
// then an else branch that fires an Impulse and transitions to "done").
func guardedLoopMachine() *model.StateMachine {
	sm := model.New()
	sm.Platform = "Bearloga"
	sm.StandardVersion = "1.0"

	sm.Components["cnt"] = &model.ComponentDecl{ID: "cnt", Type: "Counter", Parameters: map[string]string{"value": "0"}}
	sm.Components["imp"] = &model.ComponentDecl{ID: "imp", Type: "Impulse"}

	sm.Initials["init"] = &model.InitialVertex{ID: "init"}
	sm.States["s"] = &model.State{ID: "s"}
	sm.States["done"] = &model.State{ID: "done"}

	sm.Transitions["t-init"] = &model.Transition{ID: "t-init", SourceID: "init", TargetID: "s"}
	sm.Transitions["t-loop"] = &model.Transition{
		ID: "t-loop", SourceID: "s", TargetID: "s",
		TriggerBlock: "tick [cnt.value < 3] / cnt.Add(1)",
	}
	sm.Transitions["t-done"] = &model.Transition{
		ID: "t-done", SourceID: "s", TargetID: "done",
		TriggerBlock: "tick [else] / imp.ImpulseC()",
	}
	return sm
}

func TestGuardedSelfLoopEndToEnd(t *testing.T) {
	sm := guardedLoopMachine()
	rt, err := Build(sm, nil)
	require.NoError(t, err)

	res, err := Run(context.Background(), rt, []string{"tick", "tick", "tick", "tick"}, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, "done", rt.Machine.Current().ID())

	cntAttr, err := rt.Components.ReadAttr("cnt", "value")
	require.NoError(t, err)
	assert.Equal(t, int64(3), cntAttr.Int())
	assert.Contains(t, res.CalledEvents, "impulseC")
}

// choiceMachine builds scenario: a choice vertex routing on cnt.value.
func choiceMachine() *model.StateMachine {
	sm := model.New()
	sm.Platform = "Bearloga"
	sm.StandardVersion = "1.0"

	sm.Components["cnt"] = &model.ComponentDecl{ID: "cnt", Type: "Counter", Parameters: map[string]string{"value": "5"}}

	sm.Initials["init"] = &model.InitialVertex{ID: "init"}
	sm.Choices["c1"] = &model.ChoiceVertex{ID: "c1"}
	sm.States["low"] = &model.State{ID: "low"}
	sm.States["high"] = &model.State{ID: "high"}

	sm.Transitions["t-init"] = &model.Transition{ID: "t-init", SourceID: "init", TargetID: "c1"}
	sm.Transitions["t-low"] = &model.Transition{ID: "t-low", SourceID: "c1", TargetID: "low", TriggerBlock: "[cnt.value < 3] /"}
	sm.Transitions["t-high"] = &model.Transition{ID: "t-high", SourceID: "c1", TargetID: "high", TriggerBlock: "[else] /"}
	return sm
}

func TestChoiceVertexEndToEnd(t *testing.T) {
	sm := choiceMachine()
	rt, err := Build(sm, nil)
	require.NoError(t, err)

	res, err := Run(context.Background(), rt, nil, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, "high", rt.Machine.Current().ID())
	assert.Empty(t, res.CalledEvents)
}

// gardenerMachine walks forward twice and plants, matching scenario 5's
// gardener round-trip.
func gardenerMachine() *model.StateMachine {
	sm := model.New()
	sm.Platform = "Bearloga"
	sm.StandardVersion = "1.0"

	sm.Components["g"] = &model.ComponentDecl{ID: "g", Type: "Gardener", Parameters: map[string]string{"width": "3", "height": "3", "orientation": "SOUTH"}}

	sm.Initials["init"] = &model.InitialVertex{ID: "init"}
	sm.States["walking"] = &model.State{ID: "walking", ActionsBlock: "step / g.Forward()\n\nplant / g.Plant(1)"}

	sm.Transitions["t-init"] = &model.Transition{ID: "t-init", SourceID: "init", TargetID: "walking"}
	return sm
}

func TestGardenerRoundTripEndToEnd(t *testing.T) {
	sm := gardenerMachine()
	rt, err := Build(sm, nil)
	require.NoError(t, err)

	res, err := Run(context.Background(), rt, []string{"step", "step", "plant"}, RunOptions{})
	require.NoError(t, err)
	require.False(t, res.TimedOut)

	inst, ok := res.Components["g"]
	require.True(t, ok)
	assert.Equal(t, "Gardener", inst.Type)

	xAttr, err := rt.Components.ReadAttr("g", "x")
	require.NoError(t, err)
	yAttr, err := rt.Components.ReadAttr("g", "y")
	require.NoError(t, err)
	assert.Equal(t, int64(0), xAttr.Int())
	assert.Equal(t, int64(2), yAttr.Int())
}

// TestEventInsertionOrdering exercises scenario 6: events posted while
// handling "go" (here, impulseB posted by b's entry action during the a->b
// transition) must drain before any event queued behind "go".
func TestEventInsertionOrdering(t *testing.T) {
	sm := model.New()
	sm.Platform = "Bearloga"
	sm.StandardVersion = "1.0"
	sm.Components["imp"] = &model.ComponentDecl{ID: "imp", Type: "Impulse"}

	sm.Initials["init"] = &model.InitialVertex{ID: "init"}
	sm.States["a"] = &model.State{ID: "a"}
	sm.States["b"] = &model.State{ID: "b", ActionsBlock: "entry / imp.ImpulseB()"}

	sm.Transitions["t-init"] = &model.Transition{ID: "t-init", SourceID: "init", TargetID: "a"}
	sm.Transitions["t-go"] = &model.Transition{ID: "t-go", SourceID: "a", TargetID: "b", TriggerBlock: "go /"}

	rt, err := Build(sm, nil)
	require.NoError(t, err)

	res, err := Run(context.Background(), rt, []string{"go", "trailing"}, RunOptions{})
	require.NoError(t, err)

	// "trailing" is posted after "go" but must only be observed (as a
	// dropped/ignored event) once the transition chain triggered by "go"
	// -- including entry into b -- has fully drained.
	idxB := indexOfCalled(res.CalledEvents, "impulseB")
	require.GreaterOrEqual(t, idxB, 0)
	assert.Less(t, indexOfCalled(res.Events, "impulseB"), indexOfCalled(res.Events, "trailing"))
	assert.Equal(t, "b", rt.Machine.Current().ID())
}

func indexOfCalled(events []string, name string) int {
	for i, e := range events {
		if e == name {
			return i
		}
	}
	return -1
}

func TestRunTimesOutWithMockClock(t *testing.T) {
	sm := toggleMachine()
	rt, err := Build(sm, nil)
	require.NoError(t, err)

	// Mock.Sleep advances virtual time by the requested duration instead of
	// blocking, so an infinite-mode Run exceeds its Timeout deterministically
	// after a handful of idle-loop iterations, with no real sleeping.
	mock := clock.NewMock(time.Unix(0, 0))
	res, err := Run(context.Background(), rt, nil, RunOptions{
		Infinite:  true,
		Timeout:   5 * time.Millisecond,
		Clock:     mock,
		IdleSleep: time.Millisecond,
	})
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
}
