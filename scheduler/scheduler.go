// Package scheduler implements Component A, the real-time task scheduler
// (spec.md §4.A): per-task periodic dispatch with independent rates,
// deadline-miss detection and escalation, drift compensation, and timing
// statistics, grounded on fortio/periodic's Runnable dispatch loop
// (other_examples/aa5cb741_fortio-fortio__periodic-periodic.go.go)
// generalized from a single QPS-driven loop to N heterogeneous-period tasks.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Pasqui1010/DART-Planner-sub001/apperr"
	"github.com/Pasqui1010/DART-Planner-sub001/config"
	"github.com/Pasqui1010/DART-Planner-sub001/logging"
)

// Escalator receives the scheduler's safety-critical deadline-miss
// escalation (spec.md §4.A "Deadline-miss policy" step 2). state.Watchdog
// satisfies this via OnDeadlineEscalation.
type Escalator interface {
	OnDeadlineEscalation()
}

// defaultSampleWindow is the bounded circular buffer size for exec-time
// statistics (spec.md §4.A step 6 default).
const defaultSampleWindow = 1000

// registration is a frozen (name, period, priority, task) tuple collected
// before Start.
type registration struct {
	name     string
	period   time.Duration
	priority int
	task     Task
}

// Scheduler dispatches a fixed, frozen-at-start set of periodic tasks
// (spec.md §4.A contract: "registrations are frozen at start()").
type Scheduler struct {
	id        uuid.UUID
	cfg       config.RealTime
	logger    *logging.Logger
	escalator Escalator

	metrics *metrics

	mu            sync.Mutex
	registrations []registration
	handles       []*taskHandle
	started       bool
	cancel        context.CancelFunc
	group         *errgroup.Group
	done          chan struct{}
}

type metrics struct {
	execSeconds     *prometheus.HistogramVec
	missedDeadlines *prometheus.CounterVec
	taskState       *prometheus.GaugeVec
}

// New constructs a Scheduler. reg may be nil, in which case metrics are not
// registered anywhere (useful for tests); otherwise the timing metrics are
// registered on reg. Nothing in this module serves or gathers them.
func New(cfg config.RealTime, logger *logging.Logger, escalator Escalator, reg prometheus.Registerer) *Scheduler {
	m := &metrics{
		execSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dart_scheduler_task_exec_seconds",
			Help:    "Task execution duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 16),
		}, []string{"task"}),
		missedDeadlines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dart_scheduler_missed_deadlines_total",
			Help: "Cumulative missed-deadline count per task.",
		}, []string{"task"}),
		taskState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dart_scheduler_task_state",
			Help: "Current per-task lifecycle state (scheduler.State ordinal).",
		}, []string{"task"}),
	}
	if reg != nil {
		reg.MustRegister(m.execSeconds, m.missedDeadlines, m.taskState)
	}
	return &Scheduler{id: uuid.New(), cfg: cfg, logger: logger, escalator: escalator, metrics: m}
}

// Register adds a periodic task. Must be called before Start; Start freezes
// the registration set (spec.md §4.A contract).
func (s *Scheduler) Register(name string, period time.Duration, priority int, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return apperr.New(apperr.Configuration, "scheduler", true, fmt.Errorf("cannot register task %q after start", name))
	}
	s.registrations = append(s.registrations, registration{name: name, period: period, priority: priority, task: task})
	return nil
}

// Start spawns one execution context per registered task (spec.md §4.A
// "Scheduling model": parallel execution, one goroutine per task here since
// Go has no user-settable OS thread priorities without cgo — recorded as an
// accepted simplification in DESIGN.md).
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return apperr.New(apperr.Configuration, "scheduler", true, fmt.Errorf("scheduler already started"))
	}
	s.started = true
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	group, groupCtx := errgroup.WithContext(runCtx)
	s.group = group
	s.done = make(chan struct{})

	for _, r := range s.registrations {
		h := newTaskHandle(r, s.cfg, defaultSampleWindow)
		s.handles = append(s.handles, h)
		group.Go(func() error {
			s.runTask(groupCtx, h)
			return nil
		})
	}
	s.mu.Unlock()

	go func() {
		_ = group.Wait()
		close(s.done)
	}()
	return nil
}

// Stop signals cooperative termination and waits, bounded by timeout, for
// every task to finish (spec.md §4.A contract: "stop() ... waits (bounded)
// for all tasks to finish").
func (s *Scheduler) Stop(timeout time.Duration) error {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return apperr.New(apperr.Timing, "scheduler", false, fmt.Errorf("stop timed out after %v waiting for tasks", timeout))
	}
}

// Stats returns a snapshot of every task's timing statistics, keyed by name.
func (s *Scheduler) Stats() map[string]Stats {
	s.mu.Lock()
	handles := append([]*taskHandle(nil), s.handles...)
	s.mu.Unlock()

	out := make(map[string]Stats, len(handles))
	for _, h := range handles {
		out[h.name] = h.snapshot()
	}
	return out
}

// runTask executes the per-task timing protocol (spec.md §4.A steps 1-7).
func (s *Scheduler) runTask(ctx context.Context, h *taskHandle) {
	h.setState(Running)
	h.lastDeadline = time.Now()

	for {
		nextDeadline := h.lastDeadline.Add(h.period)
		earlyWake := time.Duration(s.cfg.EarlyWakeMarginMs * float64(time.Millisecond))
		wakeAt := nextDeadline.Add(-earlyWake)

		if sleepErr := sleepUntil(ctx, wakeAt); sleepErr != nil {
			h.setState(Stopped)
			return
		}
		for time.Now().Before(nextDeadline) {
			// Short-sleep spin loop (step 3): Go cannot busy-wait cheaply
			// without burning a full core, so this backs off to brief sleeps.
			time.Sleep(50 * time.Microsecond)
		}

		startTime := time.Now()
		dtSinceLast := startTime.Sub(h.lastDeadline)

		deadlineMargin := time.Duration(s.cfg.DeadlineBudgetMs * float64(time.Millisecond))
		missed := startTime.After(nextDeadline.Add(deadlineMargin))
		h.recordCycle(missed)
		if missed {
			h.recordMiss()
			s.metrics.missedDeadlines.WithLabelValues(h.name).Inc()
			if s.logger != nil {
				s.logger.Warnw("scheduler task deadline miss", "task", h.name,
					"overrun", startTime.Sub(nextDeadline), "total_missed", h.totalMissed())
			}
			if h.missRatioExceeds(s.cfg.DeadlineViolationThresh) {
				h.setState(Degraded)
				if s.escalator != nil {
					s.escalator.OnDeadlineEscalation()
				}
			}
		}

		runErr := runTaskSafely(ctx, h.task, startTime, dtSinceLast)
		execTime := time.Since(startTime)
		h.recordExec(execTime)
		s.metrics.execSeconds.WithLabelValues(h.name).Observe(execTime.Seconds())
		s.metrics.taskState.WithLabelValues(h.name).Set(float64(h.state()))

		if runErr != nil {
			h.setState(Error)
			s.metrics.taskState.WithLabelValues(h.name).Set(float64(Error))
			if s.logger != nil {
				s.logger.Errorw("scheduler task returned fatal error, stopping task", "task", h.name, "error", runErr)
			}
			if s.escalator != nil {
				// OnDeadlineEscalation is the watchdog's only scheduler-facing
				// hook; a fatal task error is routed through it too.
				s.escalator.OnDeadlineEscalation()
			}
			return // spec.md §4.A: "a task returning fatal stops that task only"
		}
		if h.state() != Degraded {
			h.setState(Running)
		}

		// Drift compensation (step 7): never catch up by skipping a
		// deadline; only nudge lastDeadline a fraction of cumulative drift.
		drift := startTime.Sub(nextDeadline)
		h.cumulativeDriftNs += drift.Nanoseconds()
		h.lastDeadline = nextDeadline

		jitterBound := time.Duration(s.cfg.JitterBoundMs * float64(time.Millisecond))
		cumulative := time.Duration(h.cumulativeDriftNs)
		if absDuration(cumulative) > jitterBound {
			shift := time.Duration(float64(cumulative) * s.cfg.DriftCompensationFactor)
			h.lastDeadline = h.lastDeadline.Add(shift)
			h.cumulativeDriftNs -= shift.Nanoseconds()
		}
	}
}

func runTaskSafely(ctx context.Context, t Task, now time.Time, dt time.Duration) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = multierr.Append(err, fmt.Errorf("task panicked: %v", r))
		}
	}()
	return t.Run(ctx, now, dt)
}

func sleepUntil(ctx context.Context, at time.Time) error {
	d := time.Until(at)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// taskHandle holds one task's mutable runtime state: lifecycle, deadline
// bookkeeping, and a bounded circular buffer of execution-time samples used
// for the mean/max/jitter statistics gonum/stat computes on demand.
type taskHandle struct {
	name     string
	period   time.Duration
	priority int
	task     Task

	mu                sync.Mutex
	st                State
	lastDeadline      time.Time
	cumulativeDriftNs int64
	runs              int64
	missed            int64
	missWindow        []bool // fixed-size sliding window of miss/hit, one entry per cycle
	missIdx           int
	missFilled        int
	samples           []float64
	sampleIdx         int
	sampleCount       int
}

func newTaskHandle(r registration, cfg config.RealTime, window int) *taskHandle {
	return &taskHandle{
		name:       r.name,
		period:     r.period,
		priority:   r.priority,
		task:       r.task,
		st:         Idle,
		samples:    make([]float64, window),
		missWindow: make([]bool, window),
	}
}

func (h *taskHandle) setState(s State) {
	h.mu.Lock()
	h.st = s
	h.mu.Unlock()
}

func (h *taskHandle) state() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.st
}

func (h *taskHandle) recordExec(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs++
	h.samples[h.sampleIdx] = d.Seconds() * 1000
	h.sampleIdx = (h.sampleIdx + 1) % len(h.samples)
	if h.sampleCount < len(h.samples) {
		h.sampleCount++
	}
}

// recordMiss increments the cumulative lifetime miss counter (spec.md §4.A
// step 2 "total_missed" telemetry), independent of the sliding window below.
func (h *taskHandle) recordMiss() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.missed++
}

func (h *taskHandle) totalMissed() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.missed
}

// recordCycle appends this cycle's hit/miss outcome to the fixed-size
// sliding window used by missRatioExceeds (spec.md §4.A "miss ratio over a
// sliding window ... default 5 in 1000"). Every cycle contributes exactly
// one entry, hit or miss, so a steady low miss rate can never accumulate
// past the configured ratio the way a miss-only counter would.
func (h *taskHandle) recordCycle(missed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.missWindow[h.missIdx] = missed
	h.missIdx = (h.missIdx + 1) % len(h.missWindow)
	if h.missFilled < len(h.missWindow) {
		h.missFilled++
	}
}

// missRatioExceeds reports whether misses within the trailing window exceed
// threshold per window-size samples (spec.md §4.A "Deadline-miss policy"
// step 2, "5 in 1000"). Before the window fills, the count is scaled against
// the partial fill rather than waiting for a full window, so a miss storm
// right after start still escalates promptly.
func (h *taskHandle) missRatioExceeds(threshold int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.missFilled == 0 {
		return false
	}
	count := 0
	for _, m := range h.missWindow[:h.missFilled] {
		if m {
			count++
		}
	}
	return count*len(h.missWindow) > threshold*h.missFilled
}

func (h *taskHandle) snapshot() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := h.sampleCount
	var meanMs, maxMs, jitterMs float64
	if n > 0 {
		window := make([]float64, n)
		copy(window, h.samples[:n])
		meanMs = stat.Mean(window, nil)
		maxMs = floats.Max(window)
		if n > 1 {
			jitterMs = stat.StdDev(window, nil)
		}
	}
	return Stats{
		State:           h.st,
		Priority:        h.priority,
		TotalRuns:       h.runs,
		MissedDeadlines: h.missed,
		ExecMeanMs:      meanMs,
		ExecMaxMs:       maxMs,
		JitterStdMs:     jitterMs,
	}
}
