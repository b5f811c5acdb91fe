package telemetry

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/Pasqui1010/DART-Planner-sub001/spatial"
	"github.com/Pasqui1010/DART-Planner-sub001/state"
	"github.com/Pasqui1010/DART-Planner-sub001/trajectory"
)

func TestStatusWithNoPublishersHasNothing(t *testing.T) {
	tel := New(nil, nil)
	st := tel.Status()
	test.That(t, st.HasState, test.ShouldBeFalse)
	test.That(t, st.HasTrajectory, test.ShouldBeFalse)
	test.That(t, st.SchedulerStats, test.ShouldBeNil)
	test.That(t, st.SafetyState, test.ShouldEqual, state.Init)
}

func TestPublishStateIsReflectedInStatus(t *testing.T) {
	tel := New(nil, nil)
	s := state.DroneState{Position: r3.Vector{Z: 5}, Attitude: spatial.Identity, Frame: spatial.ENU}
	tel.PublishState(s)

	st := tel.Status()
	test.That(t, st.HasState, test.ShouldBeTrue)
	test.That(t, st.State.Position.Z, test.ShouldEqual, 5.0)
}

func TestPublishTrajectoryIsReflectedInStatus(t *testing.T) {
	tel := New(nil, nil)
	tr := trajectory.Trajectory{Timestamps: []float64{0, 0.1}}
	tel.PublishTrajectory(tr)

	st := tel.Status()
	test.That(t, st.HasTrajectory, test.ShouldBeTrue)
	test.That(t, st.Trajectory.N(), test.ShouldEqual, 1)
}

func TestStatusReadsWatchdogState(t *testing.T) {
	wd := state.NewWatchdog(nil)
	tel := New(nil, wd)

	st := tel.Status()
	test.That(t, st.SafetyState, test.ShouldEqual, state.Init)
}

func TestPublishStateDoesNotAliasCaller(t *testing.T) {
	tel := New(nil, nil)
	s := state.DroneState{Position: r3.Vector{Z: 5}, Attitude: spatial.Identity, Frame: spatial.ENU}
	tel.PublishState(s)

	s.Position.Z = 99 // mutate caller's copy after publish
	st := tel.Status()
	test.That(t, st.State.Position.Z, test.ShouldEqual, 5.0)
}
