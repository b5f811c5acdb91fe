// Package telemetry implements the pull-only status surface of spec.md §6:
// "A pull interface status() -> { state, trajectory_snapshot,
// scheduler_stats, safety_state } returning a consistent snapshot." Push
// channels (WebSocket, etc.) are an external collaborator and out of scope.
//
// State and trajectory are published by their owning tasks (state estimator,
// planner) via an atomic.Pointer handle-swap, so reading them never blocks a
// producer and never observes a torn struct; scheduler stats and safety state
// are read through the scheduler's and watchdog's own mutex-guarded
// accessors. The four fields may be drawn from slightly different instants.
package telemetry

import (
	"sync/atomic"

	"github.com/Pasqui1010/DART-Planner-sub001/scheduler"
	"github.com/Pasqui1010/DART-Planner-sub001/state"
	"github.com/Pasqui1010/DART-Planner-sub001/trajectory"
)

// Status is the consistent read-only snapshot handed back by Status().
type Status struct {
	State           state.DroneState
	HasState        bool
	Trajectory      trajectory.Trajectory
	HasTrajectory   bool
	SchedulerStats  map[string]scheduler.Stats
	SafetyState     state.FailsafeState
}

// Telemetry aggregates the latest published state, trajectory, scheduler
// stats, and safety state into a single pull surface. The scheduler and
// watchdog are read through their own thread-safe accessors; state and
// trajectory are published here directly since their owning tasks (the
// estimator and the planner) have no other shared telemetry channel.
type Telemetry struct {
	stateSlot atomic.Pointer[state.DroneState]
	trajSlot  atomic.Pointer[trajectory.Trajectory]

	sched    *scheduler.Scheduler
	watchdog *state.Watchdog
}

// New constructs a Telemetry reading scheduler task stats from sched and
// failsafe state from watchdog. Either may be nil, in which case its fields
// in Status stay at their zero values (SafetyState then reports INIT).
func New(sched *scheduler.Scheduler, watchdog *state.Watchdog) *Telemetry {
	return &Telemetry{sched: sched, watchdog: watchdog}
}

// PublishState swaps in the latest estimator fix. Safe for concurrent use
// with Status and with other PublishState calls.
func (t *Telemetry) PublishState(s state.DroneState) {
	cp := s
	t.stateSlot.Store(&cp)
}

// PublishTrajectory swaps in the planner's latest accepted trajectory.
func (t *Telemetry) PublishTrajectory(tr trajectory.Trajectory) {
	cp := tr
	t.trajSlot.Store(&cp)
}

// Status composes the current snapshot. State and trajectory are independent
// atomic loads that never block; scheduler stats and safety state come from
// the scheduler's/watchdog's own snapshot methods, which briefly take their
// mutexes.
func (t *Telemetry) Status() Status {
	var out Status

	if sp := t.stateSlot.Load(); sp != nil {
		out.State = *sp
		out.HasState = true
	}
	if tp := t.trajSlot.Load(); tp != nil {
		out.Trajectory = *tp
		out.HasTrajectory = true
	}
	if t.sched != nil {
		out.SchedulerStats = t.sched.Stats()
	}
	if t.watchdog != nil {
		out.SafetyState = t.watchdog.State()
	} else {
		out.SafetyState = state.Init
	}
	return out
}
