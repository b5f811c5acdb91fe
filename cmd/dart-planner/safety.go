package main

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Pasqui1010/DART-Planner-sub001/config"
	"github.com/Pasqui1010/DART-Planner-sub001/scheduler"
	"github.com/Pasqui1010/DART-Planner-sub001/state"
)

// staleness tracks the wall-clock time of the most recent heartbeat event
// (a planner update, a vehicle-state sample) for the safety task's liveness
// check (spec.md §4.D "Liveness protocol").
type staleness struct {
	lastNano atomic.Int64
}

func (s *staleness) touch(now time.Time) {
	s.lastNano.Store(now.UnixNano())
}

// elapsedSince reports how long it has been since the last touch, and false
// if touch has never been called.
func (s *staleness) elapsedSince(now time.Time) (time.Duration, bool) {
	last := s.lastNano.Load()
	if last == 0 {
		return 0, false
	}
	return now.Sub(time.Unix(0, last)), true
}

// safetyInputs bundles the liveness sources available in a given mode:
// cloud supplies planStale, edge supplies stateStale and buf/geofence.
type safetyInputs struct {
	planStale  *staleness
	stateStale *staleness
	buf        *state.Buffer
	geofence   config.WorkspaceBounds
}

// wireSafety registers the ~100Hz safety/watchdog task named in spec.md §1's
// three core pipeline elements (planner/controller, scheduler, safety): it
// compares the age of the last planner update (cloud) or vehicle-state
// sample (edge) against the configured timeouts and checks the latest known
// position against the geofence, driving the watchdog's
// OnPlanTimeout/OnStateTimeout/OnGeofenceViolation heartbeat protocol
// (spec.md §4.D).
func wireSafety(cfg config.Config, watchdog *state.Watchdog, sched *scheduler.Scheduler, in safetyInputs) error {
	planTimeout := time.Duration(cfg.Safety.PlanTimeoutMs * float64(time.Millisecond))
	stateTimeout := time.Duration(cfg.Safety.StateTimeoutMs * float64(time.Millisecond))

	safetyTask := scheduler.TaskFunc(func(ctx context.Context, now time.Time, dtSinceLast time.Duration) error {
		if in.planStale != nil {
			if elapsed, ok := in.planStale.elapsedSince(now); ok && elapsed > planTimeout {
				watchdog.OnPlanTimeout()
			}
		}
		if in.stateStale != nil {
			if elapsed, ok := in.stateStale.elapsedSince(now); ok && elapsed > stateTimeout {
				watchdog.OnStateTimeout()
			}
		}
		if in.buf != nil {
			if latest, ok := in.buf.Latest(); ok {
				p := latest.Position
				if !in.geofence.Contains(p.X, p.Y, p.Z) {
					watchdog.OnGeofenceViolation()
				}
			}
		}
		return nil
	})

	period := time.Duration(1e9 / cfg.RealTime.SafetyHz)
	return sched.Register("safety", period, 0, safetyTask)
}
