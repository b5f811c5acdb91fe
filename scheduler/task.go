package scheduler

import (
	"context"
	"time"
)

// Task is one periodic unit of work (spec.md §4.A: "Each task is a function
// (now, dt_since_last) -> Result"), grounded on fortio/periodic's
// Runnable.Run(ctx, id) (bool, string) shape generalized to real errors and
// a recoverable/fatal distinction via the returned error.
type Task interface {
	Run(ctx context.Context, now time.Time, dtSinceLast time.Duration) error
}

// TaskFunc adapts a plain function to Task.
type TaskFunc func(ctx context.Context, now time.Time, dtSinceLast time.Duration) error

func (f TaskFunc) Run(ctx context.Context, now time.Time, dtSinceLast time.Duration) error {
	return f(ctx, now, dtSinceLast)
}

// State is the per-task lifecycle state (spec.md §4.A "State machine (per
// task)": Idle -> Running -> {Running, Degraded, Stopped, Error}).
type State int

const (
	Idle State = iota
	Running
	Degraded
	Stopped
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Running:
		return "RUNNING"
	case Degraded:
		return "DEGRADED"
	case Stopped:
		return "STOPPED"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Stats is a point-in-time snapshot of one task's timing statistics
// (spec.md §4.A step 6: "mean/max/jitter statistics").
type Stats struct {
	State           State
	Priority        int
	TotalRuns       int64
	MissedDeadlines int64
	ExecMeanMs      float64
	ExecMaxMs       float64
	JitterStdMs     float64
}
