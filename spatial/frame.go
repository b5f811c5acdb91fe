// Package spatial is the Coordinate & Units Kernel (spec.md §4.E): frame
// conventions, quaternion/rotation algebra, and unit-tagged scalar/vector
// primitives used pervasively by the planner, controller, and state core.
//
// Positions and velocities are represented with github.com/golang/geo's
// r3.Vector (the same type the teacher's motionplan package threads through
// its entire API); attitude is represented with gonum.org/v1/gonum/num/quat,
// mirroring kinematics/kinmath's use of the same package for angle-axis /
// quaternion round-trips.
package spatial

import "github.com/golang/geo/r3"

// Frame tags a value as expressed in a specific world-frame convention.
// Frame is a type-level tag (spec.md §4.E: "frame is a type-level tag, not
// a runtime flag"), so ENU- and NED-tagged quantities cannot be silently
// mixed by a caller that type-checks.
type Frame int

const (
	ENU Frame = iota
	NED
)

func (f Frame) String() string {
	if f == NED {
		return "NED"
	}
	return "ENU"
}

// Gravity returns the cached gravity vector for the frame, in m/s^2.
// ENU has +z up, so gravity points in -z; NED has +z down, so gravity
// points in +z.
func (f Frame) Gravity() r3.Vector {
	const g = 9.80665
	if f == NED {
		return r3.Vector{X: 0, Y: 0, Z: g}
	}
	return r3.Vector{X: 0, Y: 0, Z: -g}
}

// Up returns the frame's "up" unit vector, for geofence/altitude checks.
func (f Frame) Up() r3.Vector {
	if f == NED {
		return r3.Vector{X: 0, Y: 0, Z: -1}
	}
	return r3.Vector{X: 0, Y: 0, Z: 1}
}
