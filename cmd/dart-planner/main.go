// Command dart-planner is the composition root for the navigation stack
// (spec.md §6 "CLI"): a single binary with subcommand `run --mode=cloud|edge`.
// cloud hosts the planner and mission management; edge hosts the controller,
// scheduler, safety core, and vehicle I/O. No DI container, no globals:
// every component is constructed here and threaded down explicitly.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/geo/r3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"gonum.org/v1/gonum/num/quat"

	"github.com/Pasqui1010/DART-Planner-sub001/apperr"
	"github.com/Pasqui1010/DART-Planner-sub001/config"
	"github.com/Pasqui1010/DART-Planner-sub001/control"
	"github.com/Pasqui1010/DART-Planner-sub001/logging"
	"github.com/Pasqui1010/DART-Planner-sub001/mission"
	"github.com/Pasqui1010/DART-Planner-sub001/planner"
	"github.com/Pasqui1010/DART-Planner-sub001/scheduler"
	"github.com/Pasqui1010/DART-Planner-sub001/spatial"
	"github.com/Pasqui1010/DART-Planner-sub001/state"
	"github.com/Pasqui1010/DART-Planner-sub001/telemetry"
	"github.com/Pasqui1010/DART-Planner-sub001/trajectory"
	"github.com/Pasqui1010/DART-Planner-sub001/vehicleio"
	"github.com/Pasqui1010/DART-Planner-sub001/vehicleio/fake"
)

func main() {
	os.Exit(runCLI(os.Args))
}

func runCLI(args []string) int {
	app := &cli.App{
		Name:  "dart-planner",
		Usage: "SE(3) MPC quadrotor navigation stack",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run one half of the split architecture",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mode", Value: "edge", Usage: "cloud or edge"},
					&cli.StringFlag{Name: "config", Usage: "path to a YAML config file overriding defaults"},
					&cli.StringFlag{Name: "mission", Usage: "path to a YAML mission file (cloud mode)"},
				},
				Action: func(c *cli.Context) error {
					ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
					defer cancel()
					return run(ctx, c.String("mode"), c.String("config"), c.String("mission"))
				},
			},
		},
	}

	if err := app.Run(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCodeFor(err)
	}
	return 0
}

// errSafetyAbort is returned when the watchdog reaches EMERGENCY_STOP before
// shutdown was requested by the operator (spec.md §6 exit code 4).
var errSafetyAbort = fmt.Errorf("safety abort: watchdog reached EMERGENCY_STOP")

// exitCodeFor maps a startup/run error to the exit codes in spec.md §6: 0
// normal, 2 config error, 3 hardware link failure, 4 safety abort.
func exitCodeFor(err error) int {
	if err == errSafetyAbort {
		return 4
	}
	switch code, ok := apperr.CodeOf(err); {
	case !ok:
		return 1
	case code == apperr.Configuration, code == apperr.ConstraintViolation:
		return 2
	case code == apperr.Link:
		return 3
	default:
		return 1
	}
}

func run(ctx context.Context, mode, configPath, missionPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := logging.NewLogger("dart-planner")
	defer logger.Sync()

	frame := frameFromConfig(cfg.Frames.WorldFrame)
	watchdog := state.NewWatchdog(logger.Sublogger("safety"))
	registry := prometheus.NewRegistry()
	sched := scheduler.New(cfg.RealTime, logger.Sublogger("scheduler"), watchdog, registry)
	tel := telemetry.New(sched, watchdog)

	switch mode {
	case "cloud":
		if err := wireCloud(cfg, frame, logger, sched, tel, watchdog, missionPath); err != nil {
			return err
		}
	case "edge":
		if err := wireEdge(ctx, cfg, frame, logger, sched, tel, watchdog); err != nil {
			return err
		}
	default:
		return apperr.Newf(apperr.Configuration, "cmd", true, "mode must be \"cloud\" or \"edge\", got %q", mode)
	}

	watchdog.ReadyForStandby()
	if err := sched.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Infow("shutdown requested, stopping scheduler", "mode", mode)
	if err := sched.Stop(5 * time.Second); err != nil {
		logger.Errorw("scheduler did not stop cleanly", "error", err)
	}

	if watchdog.State() == state.EmergencyStop {
		return errSafetyAbort
	}
	return nil
}

func frameFromConfig(f config.WorldFrame) spatial.Frame {
	if f == config.FrameNED {
		return spatial.NED
	}
	return spatial.ENU
}

// wireCloud constructs the planner and a periodic planning task chasing the
// uploaded mission's waypoints in sequence. There is no live vehicle-state
// feed in cloud mode (the transport carrying estimator fixes from edge to
// cloud is an external collaborator, spec.md §1): the planner instead seeds
// each cycle from its own previous terminal knot, the standard receding-
// horizon handoff, starting from the mission's first waypoint at rest.
func wireCloud(cfg config.Config, frame spatial.Frame, logger *logging.Logger, sched *scheduler.Scheduler, tel *telemetry.Telemetry, watchdog *state.Watchdog, missionPath string) error {
	if missionPath == "" {
		return apperr.New(apperr.Configuration, "cmd", true, fmt.Errorf("cloud mode requires --mission"))
	}
	waypoints, err := loadMissionFile(missionPath)
	if err != nil {
		return err
	}
	m, err := mission.UploadMission(waypoints, cfg.Planner.WorkspaceBounds)
	if err != nil {
		return err
	}
	logger.Infow("mission accepted", "mission_id", m.ID, "waypoints", m.N())

	plannerLogger := logger.Sublogger("planner")
	pl := planner.New(cfg.Planner, frame, cfg.Hardware.Mass, plannerLogger)

	seed := state.DroneState{Position: m.Waypoints[0].Position, Attitude: spatial.Identity, Frame: frame}
	idx := 0
	planStale := &staleness{}

	planTask := scheduler.TaskFunc(func(ctx context.Context, now time.Time, dtSinceLast time.Duration) error {
		goal := m.Waypoints[idx]
		tr, err := pl.Plan(seed, goal.Position, 0)
		if err != nil {
			if apperr.IsFatal(err) {
				return err
			}
			plannerLogger.Warnw("plan degraded, holding last good trajectory", "error", err)
			return nil
		}
		tel.PublishTrajectory(tr)
		planStale.touch(now)

		knot, _ := tr.Sample(tr.Timestamps[tr.N()])
		seed = state.DroneState{
			Timestamp: seed.Timestamp + cfg.Planner.DT, Position: knot.Position,
			Velocity: knot.Velocity, Attitude: knot.Attitude,
			AngularVelocity: knot.BodyRate, Frame: frame,
		}
		if seed.Position.Sub(goal.Position).Norm() <= goal.Tolerance && idx < m.N()-1 {
			idx++
			plannerLogger.Infow("advancing to next waypoint", "index", idx)
		}
		return nil
	})

	period := time.Duration(1e9 / cfg.RealTime.PlanningHz)
	if err := sched.Register("planner", period, 2, planTask); err != nil {
		return err
	}

	if err := wireSafety(cfg, watchdog, sched, safetyInputs{planStale: planStale}); err != nil {
		return err
	}

	telemetryTask := telemetryLogger(tel, logger.Sublogger("telemetry"))
	telPeriod := time.Duration(1e9 / cfg.RealTime.TelemetryHz)
	return sched.Register("telemetry", telPeriod, 4, telemetryTask)
}

// wireEdge constructs the controller, safety state buffer, and a fake
// vehicle I/O backend, then registers the control loop against a stationary
// hover setpoint. No hardware backend ships in this module (vehicleio.go:
// "concrete implementations live outside this module"), so the fake is the
// only --mode=edge backend available today.
func wireEdge(ctx context.Context, cfg config.Config, frame spatial.Frame, logger *logging.Logger, sched *scheduler.Scheduler, tel *telemetry.Telemetry, watchdog *state.Watchdog) error {
	controlLogger := logger.Sublogger("control")
	ctrl := control.New(cfg.Controller, cfg.Hardware.Mass, frame, controlLogger)

	initial := state.DroneState{Attitude: spatial.Identity, Frame: frame}
	vehicle := fake.New(initial, cfg.Hardware.Mass, cfg.Controller.HoverThrust, frame)
	if err := vehicle.Connect(ctx); err != nil {
		return apperr.New(apperr.Link, "cmd", true, err)
	}
	if err := vehicle.Arm(); err != nil {
		return apperr.New(apperr.Link, "cmd", true, err)
	}
	if err := vehicle.SetMode(vehicleio.ModeOffboard); err != nil {
		return apperr.New(apperr.Link, "cmd", true, err)
	}

	buf := state.NewBuffer(cfg.Safety.BufferSize, cfg.Safety.MaxExtrapolateMs/1000, cfg.Hardware.TransportDelayMs/1000)
	hover := hoverTrajectory(initial, cfg.Planner.DT, cfg.Planner.PredictionHorizon)
	stateStale := &staleness{}

	startedAt := time.Time{}
	var lastStep time.Time
	controlTask := scheduler.TaskFunc(func(ctx context.Context, now time.Time, dtSinceLast time.Duration) error {
		if startedAt.IsZero() {
			startedAt = now
		}
		s, err := vehicle.GetState()
		if err != nil {
			return apperr.New(apperr.Link, "cmd.control", true, err)
		}
		s.Timestamp = now.Sub(startedAt).Seconds()
		if err := buf.Push(s); err != nil {
			controlLogger.Warnw("state buffer rejected sample", "error", err)
		}
		tel.PublishState(s)
		stateStale.touch(now)

		compensated, err := buf.CompensatedState(s.Timestamp)
		if err != nil {
			compensated = s
		}

		cmd, err := ctrl.Compute(compensated, hover, s.Timestamp)
		if err != nil {
			return err
		}
		if err := vehicle.SendCommand(vehicleio.BodyRateCommand{Thrust: cmd.Thrust, BodyRates: cmd.BodyRates}); err != nil {
			return apperr.New(apperr.Link, "cmd.control", true, err)
		}

		stepDT := cfg.Hardware.ControlLoopPeriodMs / 1000
		if !lastStep.IsZero() {
			if d := now.Sub(lastStep).Seconds(); d > 0 && d < 1.0 {
				stepDT = d
			}
		}
		lastStep = now
		vehicle.Step(stepDT)
		return nil
	})

	period := time.Duration(cfg.Hardware.ControlLoopPeriodMs * float64(time.Millisecond))
	if err := sched.Register("control", period, 1, controlTask); err != nil {
		return err
	}

	if err := wireSafety(cfg, watchdog, sched, safetyInputs{stateStale: stateStale, buf: buf, geofence: cfg.Safety.Geofence}); err != nil {
		return err
	}

	telemetryTask := telemetryLogger(tel, logger.Sublogger("telemetry"))
	telPeriod := time.Duration(1e9 / cfg.RealTime.TelemetryHz)
	return sched.Register("telemetry", telPeriod, 4, telemetryTask)
}

// telemetryLogger builds the periodic telemetry task (spec.md §6
// `status()`): it pulls a consistent Status snapshot and logs it, standing
// in for the push surface explicitly out of scope.
func telemetryLogger(tel *telemetry.Telemetry, logger *logging.Logger) scheduler.Task {
	return scheduler.TaskFunc(func(ctx context.Context, now time.Time, dtSinceLast time.Duration) error {
		st := tel.Status()
		logger.Infow("status", "safety_state", st.SafetyState.String(),
			"has_state", st.HasState, "has_trajectory", st.HasTrajectory, "tasks", len(st.SchedulerStats))
		return nil
	})
}

// hoverTrajectory builds a stationary N+1-knot trajectory holding initial's
// position and attitude, used as edge mode's setpoint until a real
// cloud-to-edge trajectory transport is wired (spec.md §1: that transport is
// an external collaborator).
func hoverTrajectory(initial state.DroneState, dt float64, horizon int) trajectory.Trajectory {
	n := horizon + 1
	tr := trajectory.Trajectory{
		Timestamps:    make([]float64, n),
		Positions:     make([]r3.Vector, n),
		Velocities:    make([]r3.Vector, n),
		Accelerations: make([]r3.Vector, n),
		Attitudes:     make([]quat.Number, n),
		BodyRates:     make([]r3.Vector, n),
		Thrusts:       make([]float64, horizon),
	}
	for i := 0; i < n; i++ {
		tr.Timestamps[i] = float64(i) * dt
		tr.Positions[i] = initial.Position
		tr.Attitudes[i] = initial.Attitude
	}
	return tr
}
