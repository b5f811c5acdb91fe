package state

import (
	"sync"

	"github.com/Pasqui1010/DART-Planner-sub001/logging"
)

// FailsafeState enumerates the watchdog/failsafe state machine states
// (spec.md §4.D).
type FailsafeState int

const (
	Init FailsafeState = iota
	Standby
	Armed
	Flying
	SafeHover
	Land
	EmergencyStop
)

func (s FailsafeState) String() string {
	switch s {
	case Init:
		return "INIT"
	case Standby:
		return "STANDBY"
	case Armed:
		return "ARMED"
	case Flying:
		return "FLYING"
	case SafeHover:
		return "SAFE_HOVER"
	case Land:
		return "LAND"
	case EmergencyStop:
		return "EMERGENCY_STOP"
	default:
		return "UNKNOWN"
	}
}

// Reason enumerates why a transition occurred, for logging and telemetry.
type Reason string

const (
	ReasonPlanTimeout       Reason = "plan_timeout"
	ReasonStateTimeout      Reason = "state_timeout"
	ReasonDeadlineEscalated Reason = "deadline_escalated"
	ReasonGeofenceViolation Reason = "geofence_violation"
	ReasonLowBattery        Reason = "low_battery"
	ReasonPilotCommand      Reason = "pilot_command"
	ReasonManualReset       Reason = "manual_reset"
)

// Watchdog arbitrates the failsafe state machine from a heartbeat protocol
// exchanged with external producers (planner, estimator) and the scheduler's
// deadline-miss escalation (spec.md §4.D "Liveness protocol").
type Watchdog struct {
	mu     sync.Mutex
	state  FailsafeState
	logger *logging.Logger
}

// NewWatchdog constructs a Watchdog starting in INIT.
func NewWatchdog(logger *logging.Logger) *Watchdog {
	return &Watchdog{state: Init, logger: logger}
}

// State returns the current failsafe state (snapshot read, safe for
// telemetry/safety consumers).
func (w *Watchdog) State() FailsafeState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// transition moves the machine to target. The only rules it enforces itself
// are that EMERGENCY_STOP is terminal except for explicit manual reset and
// that a move to the current state is a no-op; any other precondition (e.g.
// FLYING for a plan timeout, STANDBY for Arm) is checked by the caller.
func (w *Watchdog) transition(target FailsafeState, reason Reason) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == EmergencyStop && reason != ReasonManualReset {
		return // terminal within a mission; requires manual reset
	}
	if w.state == target {
		return
	}
	prev := w.state
	w.state = target
	if w.logger != nil {
		w.logger.Warnw("failsafe transition", "from", prev.String(), "to", target.String(), "reason", string(reason))
	}
}

// OnPlanTimeout reports that the planner has not produced an update within
// plan_timeout while FLYING; transitions to SAFE_HOVER (spec.md §4.D).
func (w *Watchdog) OnPlanTimeout() {
	w.mu.Lock()
	flying := w.state == Flying
	w.mu.Unlock()
	if flying {
		w.transition(SafeHover, ReasonPlanTimeout)
	}
}

// OnStateTimeout reports that state updates have stopped arriving beyond
// state_timeout; always a hard EMERGENCY_STOP (spec.md §4.D).
func (w *Watchdog) OnStateTimeout() {
	w.transition(EmergencyStop, ReasonStateTimeout)
}

// OnDeadlineEscalation reports a safety-critical scheduler deadline-miss
// escalation; transitions to LAND.
func (w *Watchdog) OnDeadlineEscalation() {
	w.transition(Land, ReasonDeadlineEscalated)
}

// OnGeofenceViolation reports a workspace-bound violation; transitions to
// LAND.
func (w *Watchdog) OnGeofenceViolation() {
	w.transition(Land, ReasonGeofenceViolation)
}

// OnLowBattery reports a battery estimate below threshold; transitions to
// LAND.
func (w *Watchdog) OnLowBattery() {
	w.transition(Land, ReasonLowBattery)
}

// Arm moves STANDBY -> ARMED on an explicit, validated pilot command; from
// any other state it does nothing and returns false.
func (w *Watchdog) Arm() bool {
	w.mu.Lock()
	ok := w.state == Standby
	w.mu.Unlock()
	if ok {
		w.transition(Armed, ReasonPilotCommand)
	}
	return ok
}

// ReadyForStandby moves INIT -> STANDBY once startup validation completes.
func (w *Watchdog) ReadyForStandby() {
	w.mu.Lock()
	ok := w.state == Init
	w.mu.Unlock()
	if ok {
		w.transition(Standby, ReasonPilotCommand)
	}
}

// TakeOff moves ARMED -> FLYING on an explicit pilot command.
func (w *Watchdog) TakeOff() bool {
	w.mu.Lock()
	ok := w.state == Armed
	w.mu.Unlock()
	if ok {
		w.transition(Flying, ReasonPilotCommand)
	}
	return ok
}

// Resume moves SAFE_HOVER back to FLYING once the planner resumes updates
// (explicit pilot/planner-recovery command).
func (w *Watchdog) Resume() bool {
	w.mu.Lock()
	ok := w.state == SafeHover
	w.mu.Unlock()
	if ok {
		w.transition(Flying, ReasonPilotCommand)
	}
	return ok
}

// ManualReset is the only escape from EMERGENCY_STOP (spec.md §4.D:
// "Terminal within a mission: EMERGENCY_STOP requires manual reset").
func (w *Watchdog) ManualReset() {
	w.transition(Standby, ReasonManualReset)
}
