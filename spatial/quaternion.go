package spatial

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Identity is the zero-rotation unit quaternion (w=1).
var Identity = quat.Number{Real: 1}

// Normalize returns q scaled to unit norm. Panics is deliberately avoided:
// a near-zero quaternion indicates a programmer error upstream (an
// unnormalized attitude should never reach this kernel), so callers at a
// component boundary should validate with Norm before trusting this.
func Normalize(q quat.Number) quat.Number {
	n := Norm(q)
	if n == 0 {
		return Identity
	}
	return quat.Scale(1/n, q)
}

// Norm returns the Euclidean norm of q.
func Norm(q quat.Number) float64 {
	return math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}

// IsUnit reports whether q's norm is within tol of 1 (spec.md §3 invariant:
// "quaternion norm in [1-1e-6, 1+1e-6]").
func IsUnit(q quat.Number, tol float64) bool {
	return math.Abs(Norm(q)-1) <= tol
}

// Flip returns -q if that makes the dot product with ref nonnegative,
// enforcing the shortest-arc convention before composing/interpolating two
// quaternions (grounded on kinematics/kinmath's Flip helper in the teacher's
// quat_test.go, used before computing angle-axis deltas).
func Flip(q, ref quat.Number) quat.Number {
	if dot(q, ref) < 0 {
		return quat.Scale(-1, q)
	}
	return q
}

func dot(a, b quat.Number) float64 {
	return a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
}

// Slerp performs shortest-arc spherical linear interpolation between a and
// b at parameter t in [0,1], numerically guarded near cos(theta) = +-1
// (spec.md §4.E).
func Slerp(a, b quat.Number, t float64) quat.Number {
	b = Flip(b, a)
	cosTheta := dot(a, b)
	if cosTheta > 1 {
		cosTheta = 1
	} else if cosTheta < -1 {
		cosTheta = -1
	}

	const edgeGuard = 1e-6
	if 1-math.Abs(cosTheta) < edgeGuard {
		// Nearly parallel: fall back to normalized linear interpolation to
		// avoid dividing by sin(theta) ~= 0.
		return Normalize(quat.Add(quat.Scale(1-t, a), quat.Scale(t, b)))
	}

	theta := math.Acos(cosTheta)
	sinTheta := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sinTheta
	wb := math.Sin(t*theta) / sinTheta
	return Normalize(quat.Add(quat.Scale(wa, a), quat.Scale(wb, b)))
}

// ToRotMat converts a unit quaternion to a body->world rotation matrix,
// returned as its three columns (body x/y/z axes expressed in world frame).
func ToRotMat(q quat.Number) (x, y, z r3.Vector) {
	q = Normalize(q)
	w, i, j, k := q.Real, q.Imag, q.Jmag, q.Kmag
	x = r3.Vector{
		X: 1 - 2*(j*j+k*k),
		Y: 2 * (i*j + k*w),
		Z: 2 * (i*k - j*w),
	}
	y = r3.Vector{
		X: 2 * (i*j - k*w),
		Y: 1 - 2*(i*i+k*k),
		Z: 2 * (j*k + i*w),
	}
	z = r3.Vector{
		X: 2 * (i*k + j*w),
		Y: 2 * (j*k - i*w),
		Z: 1 - 2*(i*i+j*j),
	}
	return x, y, z
}

// FromBasis builds the quaternion whose body axes are the given orthonormal
// world-frame basis vectors (x,y,z must already be orthonormal and
// right-handed, as produced by attitude synthesis in planner/control).
func FromBasis(x, y, z r3.Vector) quat.Number {
	// Shepperd's method / standard rotation-matrix-to-quaternion conversion.
	m00, m01, m02 := x.X, y.X, z.X
	m10, m11, m12 := x.Y, y.Y, z.Y
	m20, m21, m22 := x.Z, y.Z, z.Z

	trace := m00 + m11 + m22
	var w, i, j, k float64
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1.0)
		w = 0.25 / s
		i = (m21 - m12) * s
		j = (m02 - m20) * s
		k = (m10 - m01) * s
	case m00 > m11 && m00 > m22:
		s := 2.0 * math.Sqrt(1.0+m00-m11-m22)
		w = (m21 - m12) / s
		i = 0.25 * s
		j = (m01 + m10) / s
		k = (m02 + m20) / s
	case m11 > m22:
		s := 2.0 * math.Sqrt(1.0+m11-m00-m22)
		w = (m02 - m20) / s
		i = (m01 + m10) / s
		j = 0.25 * s
		k = (m12 + m21) / s
	default:
		s := 2.0 * math.Sqrt(1.0+m22-m00-m11)
		w = (m10 - m01) / s
		i = (m02 + m20) / s
		j = (m12 + m21) / s
		k = 0.25 * s
	}
	return Normalize(quat.Number{Real: w, Imag: i, Jmag: j, Kmag: k})
}

// vee is the vee operator: extracts the 3-vector from a skew-symmetric
// matrix indexed m[row][col] (as produced by RotError below), averaging each
// pair of mirrored entries.
func vee(m [3][3]float64) r3.Vector {
	return r3.Vector{
		X: 0.5 * (m[2][1] - m[1][2]),
		Y: 0.5 * (m[0][2] - m[2][0]),
		Z: 0.5 * (m[1][0] - m[0][1]),
	}
}

// RotError computes the SE(3) geometric attitude error
// e_R = 1/2 (R_des^T R - R^T R_des)^vee used by the inner attitude loop
// (spec.md §4.C step 5).
func RotError(actual, desired quat.Number) r3.Vector {
	ax, ay, az := ToRotMat(actual)
	dx, dy, dz := ToRotMat(desired)

	// R columns as matrix M[row][col].
	r := [3][3]float64{
		{ax.X, ay.X, az.X},
		{ax.Y, ay.Y, az.Y},
		{ax.Z, ay.Z, az.Z},
	}
	rd := [3][3]float64{
		{dx.X, dy.X, dz.X},
		{dx.Y, dy.Y, dz.Y},
		{dx.Z, dy.Z, dz.Z},
	}

	// diff = R_des^T R - R^T R_des
	rdT := transpose(rd)
	rT := transpose(r)
	a := matMul(rdT, r)
	b := matMul(rT, rd)
	var diff [3][3]float64
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			diff[x][y] = 0.5 * (a[x][y] - b[x][y])
		}
	}
	return vee(diff)
}

func transpose(m [3][3]float64) [3][3]float64 {
	var t [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[j][i] = m[i][j]
		}
	}
	return t
}

func matMul(a, b [3][3]float64) [3][3]float64 {
	var c [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[i][k] * b[k][j]
			}
			c[i][j] = sum
		}
	}
	return c
}

// Exp is the quaternion exponential map of a body-rate vector scaled by dt,
// used to integrate angular velocity into an attitude increment.
func Exp(omega r3.Vector, dt float64) quat.Number {
	theta := omega.Norm() * dt
	if theta < 1e-12 {
		return Identity
	}
	axis := omega.Normalize()
	half := theta / 2
	s := math.Sin(half)
	return quat.Number{Real: math.Cos(half), Imag: axis.X * s, Jmag: axis.Y * s, Kmag: axis.Z * s}
}

// Log is the quaternion logarithm map, recovering the body-rate vector (per
// unit time) that would produce q via Exp over dt.
func Log(q quat.Number, dt float64) r3.Vector {
	q = Normalize(q)
	q = Flip(q, Identity)
	vNorm := math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if vNorm < 1e-12 {
		return r3.Vector{}
	}
	theta := 2 * math.Atan2(vNorm, q.Real)
	axis := r3.Vector{X: q.Imag / vNorm, Y: q.Jmag / vNorm, Z: q.Kmag / vNorm}
	if dt <= 0 {
		return r3.Vector{}
	}
	return axis.Mul(theta / dt)
}

// BodyRateBetween computes the body-frame angular velocity that rotates
// from q0 to q1 over dt, by finite difference of attitude quaternions
// (spec.md §4.B step 6).
func BodyRateBetween(q0, q1 quat.Number, dt float64) r3.Vector {
	if dt <= 0 {
		return r3.Vector{}
	}
	delta := quat.Mul(quat.Conj(q0), q1) // rotation from q0 to q1, in body frame of q0
	return Log(delta, dt)
}
