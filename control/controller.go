// Package control implements Component C, the geometric SE(3) cascade
// controller (spec.md §4.C): an outer position/velocity loop producing a
// desired thrust vector and reference attitude, and an inner attitude loop
// producing body-rate commands, mirroring the teacher's configure/compute
// control-block lifecycle (control/control_loop_test.go, control/pid_test.go)
// adapted from PID to the SE(3) geometric law (see DESIGN.md).
package control

import (
	"github.com/golang/geo/r3"

	"github.com/Pasqui1010/DART-Planner-sub001/apperr"
	"github.com/Pasqui1010/DART-Planner-sub001/config"
	"github.com/Pasqui1010/DART-Planner-sub001/logging"
	"github.com/Pasqui1010/DART-Planner-sub001/spatial"
	"github.com/Pasqui1010/DART-Planner-sub001/state"
	"github.com/Pasqui1010/DART-Planner-sub001/trajectory"
)

// Command is the controller's output: a normalized collective thrust in
// [0,1] and a desired body-rate vector in rad/s (spec.md §4.C contract).
type Command struct {
	Thrust    float64
	BodyRates r3.Vector
}

// Controller is Component C. It owns integral anti-windup state and the
// timestamp of its previous call; both persist across calls the way the
// teacher's basicPID carries integral/lastErr across Compute invocations.
type Controller struct {
	cfg    config.Controller
	mass   float64
	frame  spatial.Frame
	logger *logging.Logger

	integral r3.Vector
	lastT    float64
	hasLast  bool
}

// New constructs a Controller for the given gains/limits, vehicle mass, and
// world frame.
func New(cfg config.Controller, mass float64, frame spatial.Frame, logger *logging.Logger) *Controller {
	return &Controller{cfg: cfg, mass: mass, frame: frame, logger: logger}
}

// Reset clears integral state and the last-call timestamp. Nothing in this
// module calls it automatically; the owner of the Controller decides when.
func (c *Controller) Reset() {
	c.integral = r3.Vector{}
	c.hasLast = false
}

// Compute runs one cascade step: position/velocity loop -> desired thrust
// vector and reference attitude, then attitude/rate loop -> body-rate
// command (spec.md §4.C steps 1-6). tCurrent is the wall-clock time (s) the
// command is being computed for; tr is sampled at tCurrent internally.
//
// On an invalid state or a non-finite computed command, Compute returns a
// zero-thrust, zero-rate safe command alongside a non-nil error so the
// caller can escalate via the watchdog rather than command an unbounded
// output. When tCurrent falls outside the trajectory's time window, the
// nearest knot is tracked and a warning is logged; no error is returned.
func (c *Controller) Compute(s state.DroneState, tr trajectory.Trajectory, tCurrent float64) (Command, error) {
	if !s.Valid() {
		return Command{}, apperr.New(apperr.Numeric, "control", true, errInvalidState)
	}

	knot, stale := tr.Sample(tCurrent)
	if stale && c.logger != nil {
		c.logger.Warnw("controller sampling stale trajectory knot", "t", tCurrent)
	}

	dt := c.stepDT(s.Timestamp)

	gravity := c.frame.Gravity()

	// Outer loop: position + velocity error, integral anti-windup.
	ep := s.Position.Sub(knot.Position)
	ev := s.Velocity.Sub(knot.Velocity)

	if dt > 0 {
		c.integral = c.integral.Add(ep.Mul(dt))
		if im := c.cfg.IMax; im > 0 {
			c.integral = clampVec(c.integral, im)
		}
	}

	feedForwardAccel := knot.Acceleration.Mul(c.cfg.FeedForward)
	desiredAccel := feedForwardAccel.Sub(gravity).
		Sub(ep.Mul(c.cfg.Kp)).
		Sub(ev.Mul(c.cfg.Kv)).
		Sub(c.integral.Mul(c.cfg.Ki))

	fDes := desiredAccel.Mul(c.mass)
	if fDes.Norm() < 1e-9 {
		// Degenerate desired-thrust direction (free fall / zero-force
		// solution): fall back to the hover force, i.e. a level attitude at
		// the reference yaw, instead of collapsing to the identity quaternion.
		fDes = gravity.Mul(-c.mass)
	}

	qDes := spatial.AttitudeFromThrustYaw(fDes, spatial.YawOf(knot.Attitude))

	// Thrust: project the desired force onto the actual body z-axis (not
	// the desired one) so mis-tilt is reflected in commanded thrust, then
	// normalize via the hover-thrust calibration.
	_, _, zBody := spatial.ToRotMat(s.Attitude)
	tActual := fDes.Dot(zBody)
	gMag := gravity.Norm()
	var normalizedThrust float64
	if gMag > 1e-9 {
		normalizedThrust = c.cfg.HoverThrust * (tActual / (c.mass * gMag))
	}
	normalizedThrust = spatial.Clamp(normalizedThrust, 0, 1)

	// Inner loop: attitude error and body-rate error, both referred to the
	// vehicle's actual body frame (spec.md §4.C step 5).
	eR := spatial.RotError(s.Attitude, qDes)

	omegaRefWorld := spatial.Rotate(qDes, knot.BodyRate)
	omegaRefBody := spatial.InverseRotate(s.Attitude, omegaRefWorld)
	eOmega := s.AngularVelocity.Sub(omegaRefBody)

	omegaDes := omegaRefBody.Sub(eR.Mul(c.cfg.KR)).Sub(eOmega.Mul(c.cfg.KOmega))
	if om := c.cfg.OmegaMax; om > 0 {
		omegaDes = clampVec(omegaDes, om)
	}

	if !spatial.AllFinite(normalizedThrust, omegaDes.X, omegaDes.Y, omegaDes.Z) {
		return Command{}, apperr.New(apperr.Numeric, "control", true, errNonFiniteCommand)
	}

	return Command{Thrust: normalizedThrust, BodyRates: omegaDes}, nil
}

// stepDT computes the elapsed time since the previous Compute call from the
// state timestamp, guarding against the first call and clock regressions.
func (c *Controller) stepDT(timestamp float64) float64 {
	if !c.hasLast {
		c.lastT = timestamp
		c.hasLast = true
		return 0
	}
	dt := timestamp - c.lastT
	c.lastT = timestamp
	if dt < 0 {
		return 0
	}
	return dt
}

func clampVec(v r3.Vector, limit float64) r3.Vector {
	n := v.Norm()
	if n <= limit || n == 0 {
		return v
	}
	return v.Mul(limit / n)
}
