// Package config loads the frozen root configuration (spec.md §6) from a
// YAML file via viper (environment variables override only keys present in
// that file; without a file the defaults are used as is), validates it
// once at startup, and returns an immutable value threaded through every
// component constructor. Nothing in this package is mutated after Load
// returns.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/Pasqui1010/DART-Planner-sub001/apperr"
)

// WorldFrame selects the active world-frame convention.
type WorldFrame string

const (
	FrameENU WorldFrame = "ENU"
	FrameNED WorldFrame = "NED"
)

// Geometry selects the rotor-arm layout used by the motor mixer.
type Geometry string

const (
	GeometryX    Geometry = "x"
	GeometryPlus Geometry = "plus"
)

// PlannerWeights are the quadratic-cost weights of the §4.B MPC.
type PlannerWeights struct {
	QPos     float64 `mapstructure:"Q_pos"`
	QVel     float64 `mapstructure:"Q_vel"`
	RU       float64 `mapstructure:"R_u"`
	RSmooth  float64 `mapstructure:"R_smooth"`
	WObstacle float64 `mapstructure:"w_obstacle"`
}

// WorkspaceBounds is an axis-aligned box the vehicle must remain within.
type WorkspaceBounds struct {
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
}

// Contains reports whether p lies within the box (inclusive).
func (b WorkspaceBounds) Contains(x, y, z float64) bool {
	return x >= b.MinX && x <= b.MaxX &&
		y >= b.MinY && y <= b.MaxY &&
		z >= b.MinZ && z <= b.MaxZ
}

// Planner holds the §4.B / §6 planner configuration group.
type Planner struct {
	PredictionHorizon    int             `mapstructure:"prediction_horizon"`
	DT                   float64         `mapstructure:"dt"`
	MaxIterations        int             `mapstructure:"max_iterations"`
	ConvergenceTolerance float64         `mapstructure:"convergence_tolerance"`
	Weights              PlannerWeights  `mapstructure:"weights"`
	SafetyMargin         float64         `mapstructure:"safety_margin"`
	WorkspaceBounds      WorkspaceBounds `mapstructure:"workspace_bounds"`
	VMax                 float64         `mapstructure:"v_max"`
	AMax                 float64         `mapstructure:"a_max"`
	ThrustMax            float64         `mapstructure:"thrust_max"`
	SolveBudget          float64         `mapstructure:"solve_budget_ms"`
}

// Controller holds the §4.C / §6 controller configuration group.
type Controller struct {
	TuningProfile  string  `mapstructure:"tuning_profile"`
	Kp, Kv, Ki     float64 `mapstructure:"-"`
	KR, KOmega     float64 `mapstructure:"-"`
	IMax           float64 `mapstructure:"i_max"`
	OmegaMax       float64 `mapstructure:"omega_max"`
	HoverThrust    float64 `mapstructure:"hover_thrust"`
	FeedForward    float64 `mapstructure:"feed_forward_scale"`
}

// RealTime holds the §4.A / §6 real-time scheduler configuration group.
type RealTime struct {
	ControlHz                float64 `mapstructure:"control_hz"`
	PlanningHz               float64 `mapstructure:"planning_hz"`
	SafetyHz                 float64 `mapstructure:"safety_hz"`
	TelemetryHz              float64 `mapstructure:"telemetry_hz"`
	DeadlineBudgetMs         float64 `mapstructure:"deadline_budget_ms"`
	JitterBoundMs            float64 `mapstructure:"jitter_bound_ms"`
	DeadlineViolationThresh  int     `mapstructure:"deadline_violation_threshold"`
	JitterCompensationWindow int     `mapstructure:"jitter_compensation_window"`
	DriftCompensationFactor  float64 `mapstructure:"drift_compensation_factor"`
	EarlyWakeMarginMs        float64 `mapstructure:"early_wake_margin_ms"`
}

// Hardware holds the §4.C / §6 hardware configuration group.
type Hardware struct {
	ArmLength             float64  `mapstructure:"arm_length"`
	NumArms               int      `mapstructure:"num_arms"`
	Geometry              Geometry `mapstructure:"geometry"`
	MaxMotorThrust        float64  `mapstructure:"max_motor_thrust"`
	MaxPropellerDragTorque float64 `mapstructure:"max_propeller_drag_torque"`
	TransportDelayMs      float64  `mapstructure:"transport_delay_ms"`
	ControlLoopPeriodMs   float64  `mapstructure:"control_loop_period_ms"`
	Mass                  float64  `mapstructure:"mass_kg"`
}

// Safety holds the §4.D / §6 safety configuration group.
type Safety struct {
	PlanTimeoutMs      float64         `mapstructure:"plan_timeout_ms"`
	StateTimeoutMs     float64         `mapstructure:"state_timeout_ms"`
	Geofence           WorkspaceBounds `mapstructure:"geofence"`
	BatteryLowFraction float64         `mapstructure:"battery_low_fraction"`
	MaxExtrapolateMs   float64         `mapstructure:"max_extrapolate_ms"`
	BufferSize         int             `mapstructure:"buffer_size"`
}

// Frames holds the §6 frame-convention configuration group.
type Frames struct {
	WorldFrame WorldFrame `mapstructure:"world_frame"`
}

// Config is the frozen configuration root. Never mutated after Load.
type Config struct {
	Planner    Planner    `mapstructure:"planner"`
	Controller Controller `mapstructure:"controller"`
	RealTime   RealTime   `mapstructure:"real_time"`
	Hardware   Hardware   `mapstructure:"hardware"`
	Safety     Safety     `mapstructure:"safety"`
	Frames     Frames     `mapstructure:"frames"`
}

// Default returns the recognized defaults for every option (spec.md §6:
// "every option carries a default").
func Default() Config {
	return Config{
		Planner: Planner{
			PredictionHorizon:    6,
			DT:                   0.1,
			MaxIterations:        20,
			ConvergenceTolerance: 1e-2,
			Weights: PlannerWeights{
				QPos: 10.0, QVel: 1.0, RU: 0.1, RSmooth: 0.05, WObstacle: 1000.0,
			},
			SafetyMargin: 0.3,
			WorkspaceBounds: WorkspaceBounds{
				MinX: -50, MinY: -50, MinZ: 0,
				MaxX: 50, MaxY: 50, MaxZ: 30,
			},
			VMax: 4.0, AMax: 6.0, ThrustMax: 30.0, SolveBudget: 20.0,
		},
		Controller: Controller{
			TuningProfile: "sitl_optimized",
			IMax:          5.0,
			OmegaMax:      6.0,
			HoverThrust:   0.5,
			FeedForward:   1.0,
		},
		RealTime: RealTime{
			ControlHz: 1000, PlanningHz: 50, SafetyHz: 100, TelemetryHz: 10,
			DeadlineBudgetMs: 0.5, JitterBoundMs: 0.2,
			DeadlineViolationThresh: 5, JitterCompensationWindow: 1000,
			DriftCompensationFactor: 0.1, EarlyWakeMarginMs: 1.0,
		},
		Hardware: Hardware{
			ArmLength: 0.2, NumArms: 4, Geometry: GeometryX,
			MaxMotorThrust: 10.0, MaxPropellerDragTorque: 0.05,
			TransportDelayMs: 25, ControlLoopPeriodMs: 1.0, Mass: 1.5,
		},
		Safety: Safety{
			PlanTimeoutMs: 200, StateTimeoutMs: 50,
			Geofence: WorkspaceBounds{
				MinX: -50, MinY: -50, MinZ: 0,
				MaxX: 50, MaxY: 50, MaxZ: 30,
			},
			BatteryLowFraction: 0.15, MaxExtrapolateMs: 10, BufferSize: 1000,
		},
		Frames: Frames{WorldFrame: FrameENU},
	}
}

// Load reads a YAML config file (if path is non-empty) over the defaults,
// applies DART_ prefixed environment overrides to the keys present in that
// file (with no file, no override applies), validates, and returns an
// immutable Config. A non-nil error is always an apperr.Configuration error.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix("DART")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, apperr.New(apperr.Configuration, "config", true, err)
		}
		if err := v.Unmarshal(&cfg); err != nil {
			return Config{}, apperr.New(apperr.Configuration, "config", true, err)
		}
	}

	if err := resolveTuningProfile(&cfg.Controller); err != nil {
		return Config{}, err
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate aborts boot on any inconsistency, aggregating every violation
// found (spec.md §6: "validation runs at startup and aborts boot on
// inconsistency").
func Validate(cfg Config) error {
	var errs error

	if cfg.Planner.DT <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("planner.dt must be > 0, got %v", cfg.Planner.DT))
	}
	if cfg.Planner.PredictionHorizon < 1 {
		errs = multierr.Append(errs, fmt.Errorf("planner.prediction_horizon must be >= 1"))
	}
	if cfg.Planner.VMax <= 0 || cfg.Planner.AMax <= 0 || cfg.Planner.ThrustMax <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("planner v_max/a_max/thrust_max must be positive"))
	}
	bounds := cfg.Planner.WorkspaceBounds
	if bounds.MinX >= bounds.MaxX || bounds.MinY >= bounds.MaxY || bounds.MinZ >= bounds.MaxZ {
		errs = multierr.Append(errs, fmt.Errorf("planner.workspace_bounds is degenerate or inverted"))
	}

	if cfg.Hardware.NumArms != 4 {
		errs = multierr.Append(errs, fmt.Errorf("hardware.num_arms: only quadrotor (4) geometry supported, got %d", cfg.Hardware.NumArms))
	}
	if cfg.Hardware.Geometry != GeometryX && cfg.Hardware.Geometry != GeometryPlus {
		errs = multierr.Append(errs, fmt.Errorf("hardware.geometry must be %q or %q, got %q", GeometryX, GeometryPlus, cfg.Hardware.Geometry))
	}
	if cfg.Hardware.Mass <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("hardware.mass_kg must be > 0"))
	}

	expectedPeriodMs := 1000.0 / cfg.RealTime.ControlHz
	if cfg.RealTime.ControlHz > 0 && !approxEqual(cfg.Hardware.ControlLoopPeriodMs, expectedPeriodMs, 1e-6) {
		errs = multierr.Append(errs, fmt.Errorf(
			"hardware.control_loop_period_ms (%v) mismatched with 1000/real_time.control_hz (%v)",
			cfg.Hardware.ControlLoopPeriodMs, expectedPeriodMs))
	}
	if cfg.RealTime.ControlHz <= 0 || cfg.RealTime.PlanningHz <= 0 || cfg.RealTime.SafetyHz <= 0 || cfg.RealTime.TelemetryHz <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("real_time frequencies must all be positive"))
	}
	if cfg.RealTime.DeadlineViolationThresh <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("real_time.deadline_violation_threshold must be > 0"))
	}

	if cfg.Frames.WorldFrame != FrameENU && cfg.Frames.WorldFrame != FrameNED {
		errs = multierr.Append(errs, fmt.Errorf("frames.world_frame must be %q or %q, got %q", FrameENU, FrameNED, cfg.Frames.WorldFrame))
	}

	if cfg.Safety.PlanTimeoutMs <= 0 || cfg.Safety.StateTimeoutMs <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("safety timeouts must be positive"))
	}

	if errs != nil {
		return apperr.New(apperr.Configuration, "config", true, errs)
	}
	return nil
}

func approxEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

// resolveTuningProfile fills in named-profile gains when explicit gains were
// not set (spec.md §4.C: "Gains ... are supplied by a tuning profile
// selected at construction ... custom profiles permitted").
func resolveTuningProfile(c *Controller) error {
	if c.Kp != 0 || c.Kv != 0 || c.Ki != 0 || c.KR != 0 || c.KOmega != 0 {
		return nil // explicit custom gains already set, leave as-is
	}
	profile, ok := namedProfiles[c.TuningProfile]
	if !ok {
		return apperr.Newf(apperr.Configuration, "config", true,
			"unknown controller.tuning_profile %q", c.TuningProfile)
	}
	c.Kp, c.Kv, c.Ki, c.KR, c.KOmega = profile.Kp, profile.Kv, profile.Ki, profile.KR, profile.KOmega
	return nil
}

type gains struct{ Kp, Kv, Ki, KR, KOmega float64 }

var namedProfiles = map[string]gains{
	"conservative":       {Kp: 4.0, Kv: 2.5, Ki: 0.1, KR: 6.0, KOmega: 1.2},
	"sitl_optimized":     {Kp: 7.0, Kv: 4.0, Ki: 0.3, KR: 8.5, KOmega: 1.8},
	"tracking_optimized": {Kp: 9.0, Kv: 5.0, Ki: 0.5, KR: 10.0, KOmega: 2.2},
	"precision":          {Kp: 11.0, Kv: 6.5, Ki: 0.6, KR: 12.0, KOmega: 2.6},
}
