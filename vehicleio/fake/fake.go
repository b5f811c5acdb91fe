// Package fake provides a deterministic in-memory vehicleio.Vehicle, the
// backend edge mode of cmd/dart-planner runs against and exercised by this
// package's own tests: no network, no external simulator, just a
// perfect-rate-tracking rigid-body integrator driven by the last command
// received.
package fake

import (
	"context"
	"sync"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/Pasqui1010/DART-Planner-sub001/apperr"
	"github.com/Pasqui1010/DART-Planner-sub001/spatial"
	"github.com/Pasqui1010/DART-Planner-sub001/state"
	"github.com/Pasqui1010/DART-Planner-sub001/vehicleio"
)

// Vehicle is a deterministic fake satisfying vehicleio.Vehicle. Zero value
// is not usable; construct with New.
type Vehicle struct {
	mu sync.Mutex

	connected bool
	armed     bool
	mode      vehicleio.Mode

	mass        float64
	hoverThrust float64
	frame       spatial.Frame

	s       state.DroneState
	lastCmd vehicleio.Command
}

// New constructs a fake vehicle starting at initial, with mass (kg) and
// hoverThrust (the normalized throttle that cancels gravity) used to invert
// BodyRateCommand.Thrust back into a physical force during Step.
func New(initial state.DroneState, mass, hoverThrust float64, frame spatial.Frame) *Vehicle {
	return &Vehicle{s: initial, mass: mass, hoverThrust: hoverThrust, frame: frame, mode: vehicleio.ModeManual}
}

func (v *Vehicle) Connect(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.connected = true
	return nil
}

func (v *Vehicle) Disconnect(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.connected = false
	return nil
}

func (v *Vehicle) GetState() (state.DroneState, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.connected {
		return state.DroneState{}, apperr.New(apperr.Link, "vehicleio.fake", false, errNotConnected)
	}
	return v.s, nil
}

func (v *Vehicle) SendCommand(cmd vehicleio.Command) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.connected || !v.armed {
		return apperr.New(apperr.Link, "vehicleio.fake", false, errNotArmed)
	}
	v.lastCmd = cmd
	return nil
}

func (v *Vehicle) Arm() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.armed = true
	return nil
}

func (v *Vehicle) Disarm() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.armed = false
	v.lastCmd = nil
	return nil
}

func (v *Vehicle) SetMode(mode vehicleio.Mode) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = mode
	return nil
}

// Mode returns the vehicle's current mode, for test assertions.
func (v *Vehicle) Mode() vehicleio.Mode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode
}

// Step advances the simulated rigid body by dt seconds, applying the last
// command received: thrust accelerates along the body z-axis (inverted
// through hoverThrust calibration), body rates integrate attitude exactly
// (perfect inner-loop rate tracking), translational state integrates via a
// simple semi-implicit Euler step.
func (v *Vehicle) Step(dt float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	thrustNorm, bodyRates := v.commandLocked()

	gravity := v.frame.Gravity()
	zBodyWorld := spatial.Rotate(v.s.Attitude, r3.Vector{Z: 1})

	var thrustAccelMag float64
	if v.hoverThrust > 1e-9 {
		thrustAccelMag = (thrustNorm / v.hoverThrust) * gravity.Norm()
	}
	netAccel := zBodyWorld.Mul(thrustAccelMag).Add(gravity)

	v.s.Velocity = v.s.Velocity.Add(netAccel.Mul(dt))
	v.s.Position = v.s.Position.Add(v.s.Velocity.Mul(dt))
	v.s.Attitude = spatial.Normalize(quat.Mul(v.s.Attitude, spatial.Exp(bodyRates, dt)))
	v.s.AngularVelocity = bodyRates
	v.s.Timestamp += dt
}

// commandLocked extracts (thrust, body_rates) from the last command,
// defaulting to a zero-thrust, zero-rate hold if none was received or the
// command is a MotorThrustCommand (the fake does not model per-motor
// cross-coupling; edge mode drives it via BodyRateCommand).
func (v *Vehicle) commandLocked() (float64, r3.Vector) {
	switch c := v.lastCmd.(type) {
	case vehicleio.BodyRateCommand:
		return c.Thrust, c.BodyRates
	default:
		return 0, r3.Vector{}
	}
}
