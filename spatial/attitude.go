package spatial

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// AttitudeFromThrustYaw synthesizes a desired attitude from a desired
// thrust-direction vector and a commanded yaw, shared by the planner's
// attitude synthesis (spec.md §4.B steps 1-4) and the controller's desired-
// rotation synthesis (spec.md §4.C step 4). thrust must be nonzero; yaw is
// in radians.
func AttitudeFromThrustYaw(thrust r3.Vector, yaw float64) quat.Number {
	n := thrust.Norm()
	if n < 1e-9 {
		return Identity
	}
	zBody := thrust.Mul(1 / n)

	xWorld := r3.Vector{X: math.Cos(yaw), Y: math.Sin(yaw), Z: 0}
	// Orthogonalize xWorld against zBody (Gram-Schmidt), guarding the
	// degenerate case where the yaw reference is parallel to zBody.
	xProj := xWorld.Sub(zBody.Mul(xWorld.Dot(zBody)))
	if xProj.Norm() < 1e-6 {
		// zBody is (anti)parallel to the horizontal yaw reference; fall
		// back to world Z, which is then perpendicular to zBody.
		xProj = r3.Vector{Z: 1}.Sub(zBody.Mul(zBody.Z))
	}
	xBody := xProj.Normalize()
	yBody := zBody.Cross(xBody)

	return FromBasis(xBody, yBody, zBody)
}

// YawOf extracts the heading (rotation about world Z) from a body->world
// quaternion via its x-body axis projected into the world XY plane.
func YawOf(q quat.Number) float64 {
	xBody, _, _ := ToRotMat(q)
	return math.Atan2(xBody.Y, xBody.X)
}

// Rotate applies q (body->world) to a body-frame vector v, returning it in
// world frame: v_world = q * v * q^-1.
func Rotate(q quat.Number, v r3.Vector) r3.Vector {
	q = Normalize(q)
	vq := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	rq := quat.Mul(quat.Mul(q, vq), quat.Conj(q))
	return r3.Vector{X: rq.Imag, Y: rq.Jmag, Z: rq.Kmag}
}

// InverseRotate applies q^-1 to a world-frame vector v, returning it in
// body frame: v_body = q^-1 * v * q.
func InverseRotate(q quat.Number, v r3.Vector) r3.Vector {
	return Rotate(quat.Conj(Normalize(q)), v)
}

// ShortestYawStep returns the shortest-path angular delta from current to
// target yaw, continuous and in (-pi, pi] (spec.md §4.B: "yaw schedule
// (continuous, shortest-path interpolation toward commanded yaw)").
func ShortestYawStep(current, target float64) float64 {
	delta := math.Mod(target-current, 2*math.Pi)
	if delta > math.Pi {
		delta -= 2 * math.Pi
	} else if delta <= -math.Pi {
		delta += 2 * math.Pi
	}
	return delta
}
