package control

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/Pasqui1010/DART-Planner-sub001/config"
)

// MotorThrusts holds one per-motor commanded thrust (N), indexed per the
// Mixer's geometry-specific motor ordering.
type MotorThrusts [4]float64

// arm describes one rotor's position relative to the vehicle center and its
// spin direction (+1 CCW, -1 CW), used to build the mixing matrix.
type arm struct {
	x, y float64
	spin float64
}

// Mixer allocates a desired collective thrust and body torque across the
// vehicle's four rotors, and its inverse (used for round-trip validation),
// per the standard quadrotor mixing-matrix construction (spec.md §4.C
// "Motor mixer").
type Mixer struct {
	allocation *mat.Dense // 4x4: [T, taux, tauy, tauz]^T = allocation * f
	inverse    *mat.Dense
	maxThrust  float64
}

// NewMixer builds the mixing matrix for the configured geometry and arm
// length, using MaxPropellerDragTorque/MaxMotorThrust as the drag-to-thrust
// ratio relating yaw torque to per-motor thrust.
func NewMixer(hw config.Hardware) *Mixer {
	arms := armsFor(hw.Geometry, hw.ArmLength)
	k := 0.0
	if hw.MaxMotorThrust > 0 {
		k = hw.MaxPropellerDragTorque / hw.MaxMotorThrust
	}

	a := mat.NewDense(4, 4, nil)
	for i, m := range arms {
		a.Set(0, i, 1)          // thrust row
		a.Set(1, i, m.y)        // roll torque: tau_x = sum f_i * y_i
		a.Set(2, i, -m.x)       // pitch torque: tau_y = sum -f_i * x_i
		a.Set(3, i, m.spin*k)   // yaw torque: tau_z = sum f_i * spin_i * k
	}

	inv := mat.NewDense(4, 4, nil)
	_ = inv.Inverse(a) // a is well-conditioned by construction (nonzero arm length)

	return &Mixer{allocation: a, inverse: inv, maxThrust: hw.MaxMotorThrust}
}

func armsFor(geo config.Geometry, length float64) [4]arm {
	l := length / math.Sqrt2
	switch geo {
	case config.GeometryPlus:
		return [4]arm{
			{x: length, y: 0, spin: 1},  // front
			{x: 0, y: -length, spin: -1}, // right
			{x: -length, y: 0, spin: 1},  // back
			{x: 0, y: length, spin: -1},  // left
		}
	default: // GeometryX
		return [4]arm{
			{x: l, y: l, spin: 1},   // front-left
			{x: -l, y: -l, spin: 1}, // back-right
			{x: l, y: -l, spin: -1}, // front-right
			{x: -l, y: l, spin: -1}, // back-left
		}
	}
}

// Allocate solves for the four motor thrusts that produce the requested
// collective thrust and body torque, clamping each to [0, maxThrust]
// (spec.md §4.C: "per-motor saturation clamps, applied after allocation").
func (m *Mixer) Allocate(thrust float64, torque r3.Vector) MotorThrusts {
	b := mat.NewVecDense(4, []float64{thrust, torque.X, torque.Y, torque.Z})
	var f mat.VecDense
	f.MulVec(m.inverse, b)

	var out MotorThrusts
	for i := range out {
		out[i] = clampThrust(f.AtVec(i), m.maxThrust)
	}
	return out
}

// Unmix computes the collective thrust and body torque implied by a set of
// motor thrusts — the forward map used to validate Allocate round-trips
// within saturation limits.
func (m *Mixer) Unmix(motors MotorThrusts) (thrust float64, torque r3.Vector) {
	f := mat.NewVecDense(4, motors[:])
	var out mat.VecDense
	out.MulVec(m.allocation, f)
	return out.AtVec(0), r3.Vector{X: out.AtVec(1), Y: out.AtVec(2), Z: out.AtVec(3)}
}

func clampThrust(f, max float64) float64 {
	if f < 0 {
		return 0
	}
	if max > 0 && f > max {
		return max
	}
	return f
}
