package main

import (
	"context"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/Pasqui1010/DART-Planner-sub001/config"
	"github.com/Pasqui1010/DART-Planner-sub001/logging"
	"github.com/Pasqui1010/DART-Planner-sub001/scheduler"
	"github.com/Pasqui1010/DART-Planner-sub001/state"
)

func TestStalenessElapsedSinceBeforeTouchReportsFalse(t *testing.T) {
	s := &staleness{}
	_, ok := s.elapsedSince(time.Now())
	test.That(t, ok, test.ShouldBeFalse)
}

func TestStalenessElapsedSinceReflectsTouch(t *testing.T) {
	s := &staleness{}
	t0 := time.Now()
	s.touch(t0)
	elapsed, ok := s.elapsedSince(t0.Add(50 * time.Millisecond))
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, elapsed, test.ShouldEqual, 50*time.Millisecond)
}

func TestWireSafetyEscalatesOnStateTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.Safety.StateTimeoutMs = 5
	cfg.RealTime.SafetyHz = 1000

	logger := logging.NewTestLogger(t)
	watchdog := state.NewWatchdog(logger)
	sched := scheduler.New(cfg.RealTime, logger, watchdog, nil)

	stateStale := &staleness{}
	stateStale.touch(time.Now())
	test.That(t, wireSafety(cfg, watchdog, sched, safetyInputs{stateStale: stateStale}), test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	test.That(t, sched.Start(ctx), test.ShouldBeNil)
	time.Sleep(50 * time.Millisecond)
	test.That(t, sched.Stop(time.Second), test.ShouldBeNil)

	test.That(t, watchdog.State(), test.ShouldEqual, state.EmergencyStop)
}

func TestWireSafetyEscalatesOnPlanTimeoutWhenFlying(t *testing.T) {
	cfg := config.Default()
	cfg.Safety.PlanTimeoutMs = 5
	cfg.RealTime.SafetyHz = 1000

	logger := logging.NewTestLogger(t)
	watchdog := state.NewWatchdog(logger)
	watchdog.ReadyForStandby()
	test.That(t, watchdog.Arm(), test.ShouldBeTrue)
	test.That(t, watchdog.TakeOff(), test.ShouldBeTrue)

	sched := scheduler.New(cfg.RealTime, logger, watchdog, nil)
	planStale := &staleness{}
	planStale.touch(time.Now())
	test.That(t, wireSafety(cfg, watchdog, sched, safetyInputs{planStale: planStale}), test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	test.That(t, sched.Start(ctx), test.ShouldBeNil)
	time.Sleep(50 * time.Millisecond)
	test.That(t, sched.Stop(time.Second), test.ShouldBeNil)

	test.That(t, watchdog.State(), test.ShouldEqual, state.SafeHover)
}

func TestWireSafetyTriggersGeofenceViolation(t *testing.T) {
	cfg := config.Default()
	cfg.RealTime.SafetyHz = 1000
	cfg.Safety.Geofence = config.WorkspaceBounds{MinX: -1, MaxX: 1, MinY: -1, MaxY: 1, MinZ: 0, MaxZ: 1}

	logger := logging.NewTestLogger(t)
	watchdog := state.NewWatchdog(logger)
	sched := scheduler.New(cfg.RealTime, logger, watchdog, nil)

	buf := state.NewBuffer(10, 1, 0)
	test.That(t, buf.Push(state.DroneState{Timestamp: 0, Position: r3.Vector{X: 100}}), test.ShouldBeNil)

	test.That(t, wireSafety(cfg, watchdog, sched, safetyInputs{buf: buf, geofence: cfg.Safety.Geofence}), test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	test.That(t, sched.Start(ctx), test.ShouldBeNil)
	time.Sleep(20 * time.Millisecond)
	test.That(t, sched.Stop(time.Second), test.ShouldBeNil)

	test.That(t, watchdog.State(), test.ShouldEqual, state.Land)
}
