// Package state implements Component D, State & Safety Core: a thread-safe
// time-indexed history of DroneState for transport-delay compensation, and
// the watchdog/failsafe state machine that fuses task health, link
// liveness, and input validity.
package state

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/Pasqui1010/DART-Planner-sub001/spatial"
)

// DroneState is the instantaneous vehicle configuration (spec.md §3).
type DroneState struct {
	Timestamp       float64 // monotonic seconds
	Position        r3.Vector
	Velocity        r3.Vector
	Attitude        quat.Number
	AngularVelocity r3.Vector
	Frame           spatial.Frame
}

// Valid checks the §3 invariants: quaternion norm in 1+-1e-6, and all
// position/velocity/angular-velocity components finite.
func (s DroneState) Valid() bool {
	if !spatial.IsUnit(s.Attitude, 1e-6) {
		return false
	}
	return spatial.AllFinite(
		s.Position.X, s.Position.Y, s.Position.Z,
		s.Velocity.X, s.Velocity.Y, s.Velocity.Z,
		s.AngularVelocity.X, s.AngularVelocity.Y, s.AngularVelocity.Z,
	)
}

// interpolate produces the state at parameter t in [0,1] between a and b,
// using linear interpolation on position/velocity/angular_velocity and
// SLERP on attitude (spec.md §4.D get_at contract).
func interpolate(a, b DroneState, t float64) DroneState {
	return DroneState{
		Timestamp:       a.Timestamp + t*(b.Timestamp-a.Timestamp),
		Position:        lerp(a.Position, b.Position, t),
		Velocity:        lerp(a.Velocity, b.Velocity, t),
		Attitude:        spatial.Slerp(a.Attitude, b.Attitude, t),
		AngularVelocity: lerp(a.AngularVelocity, b.AngularVelocity, t),
		Frame:           a.Frame,
	}
}

func lerp(a, b r3.Vector, t float64) r3.Vector {
	return a.Add(b.Sub(a).Mul(t))
}
