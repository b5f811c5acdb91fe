// Package trajectory defines the Reference Trajectory data model shared
// between the planner (producer) and the controller (consumer), per
// spec.md §3, plus its sampling contract (§4.C step 1, §8).
package trajectory

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/Pasqui1010/DART-Planner-sub001/spatial"
)

// Trajectory is an equal-length ordered sequence of N+1 horizon knots
// (spec.md §3). Thrusts has length N (one fewer than the other fields: the
// collective thrust that would be applied going into knot k+1).
type Trajectory struct {
	Timestamps   []float64
	Positions    []r3.Vector
	Velocities   []r3.Vector
	Accelerations []r3.Vector
	Attitudes    []quat.Number
	BodyRates    []r3.Vector
	Thrusts      []float64

	// Degraded is set when the planner returns its best iterate without a
	// clean feasible solve (solve budget exhausted, hard re-solve needed, or
	// constraints still violated). A trajectory returned alongside an
	// infeasibility error is the previously published plan, unchanged.
	Degraded bool
}

// N returns the number of horizon knots minus one (so len(Positions) == N+1).
func (tr Trajectory) N() int {
	if len(tr.Timestamps) == 0 {
		return 0
	}
	return len(tr.Timestamps) - 1
}

// Validate checks the §3 invariants: strictly monotonic timestamps spaced
// by dt +- 1us, unit-norm attitudes, nonnegative thrusts, equal-length
// sequences.
func (tr Trajectory) Validate(dt float64) error {
	n := len(tr.Timestamps)
	if len(tr.Positions) != n || len(tr.Velocities) != n || len(tr.Accelerations) != n ||
		len(tr.Attitudes) != n || len(tr.BodyRates) != n {
		return fmt.Errorf("trajectory: unequal knot-sequence lengths")
	}
	if len(tr.Thrusts) != n-1 && n > 0 {
		return fmt.Errorf("trajectory: thrusts must have length N=%d, got %d", n-1, len(tr.Thrusts))
	}
	const dtTol = 1e-6
	for k := 1; k < n; k++ {
		spacing := tr.Timestamps[k] - tr.Timestamps[k-1]
		if spacing <= 0 {
			return fmt.Errorf("trajectory: timestamps not strictly monotonic at knot %d", k)
		}
		if abs(spacing-dt) > dtTol {
			return fmt.Errorf("trajectory: knot %d spacing %v deviates from dt %v beyond 1us", k, spacing, dt)
		}
	}
	for k := 0; k < n; k++ {
		if !spatial.IsUnit(tr.Attitudes[k], 1e-6) {
			return fmt.Errorf("trajectory: attitude at knot %d is not unit norm", k)
		}
	}
	for k, th := range tr.Thrusts {
		if th < 0 {
			return fmt.Errorf("trajectory: negative thrust at step %d", k)
		}
	}
	return nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Sample interpolates the trajectory at t, clamped to [t0, tN]
// (spec.md §4.C step 1): linear on position/velocity/acceleration, SLERP on
// attitude, linear on body rates and thrust. Returns the interpolated
// Knot and whether t had to be clamped ("stale" flag per §4.C failure
// modes).
func (tr Trajectory) Sample(t float64) (Knot, bool) {
	n := len(tr.Timestamps)
	if n == 0 {
		return Knot{}, true
	}
	if t <= tr.Timestamps[0] {
		return tr.knotAt(0), t < tr.Timestamps[0]
	}
	last := n - 1
	if t >= tr.Timestamps[last] {
		return tr.knotAt(last), t > tr.Timestamps[last]
	}

	lo, hi := 0, last
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if tr.Timestamps[mid] <= t {
			lo = mid
		} else {
			hi = mid
		}
	}
	span := tr.Timestamps[hi] - tr.Timestamps[lo]
	frac := 0.0
	if span > 0 {
		frac = (t - tr.Timestamps[lo]) / span
	}

	thrustLo, thrustHi := tr.thrustAt(lo), tr.thrustAt(hi)

	return Knot{
		Timestamp:    t,
		Position:     lerp(tr.Positions[lo], tr.Positions[hi], frac),
		Velocity:     lerp(tr.Velocities[lo], tr.Velocities[hi], frac),
		Acceleration: lerp(tr.Accelerations[lo], tr.Accelerations[hi], frac),
		Attitude:     spatial.Slerp(tr.Attitudes[lo], tr.Attitudes[hi], frac),
		BodyRate:     lerp(tr.BodyRates[lo], tr.BodyRates[hi], frac),
		Thrust:       thrustLo + frac*(thrustHi-thrustLo),
	}, false
}

func (tr Trajectory) knotAt(i int) Knot {
	return Knot{
		Timestamp:    tr.Timestamps[i],
		Position:     tr.Positions[i],
		Velocity:     tr.Velocities[i],
		Acceleration: tr.Accelerations[i],
		Attitude:     tr.Attitudes[i],
		BodyRate:     tr.BodyRates[i],
		Thrust:       tr.thrustAt(i),
	}
}

// thrustAt returns the commanded thrust associated with knot i. Thrusts has
// length N, so the terminal knot reuses the last commanded thrust.
func (tr Trajectory) thrustAt(i int) float64 {
	if len(tr.Thrusts) == 0 {
		return 0
	}
	if i >= len(tr.Thrusts) {
		i = len(tr.Thrusts) - 1
	}
	return tr.Thrusts[i]
}

func lerp(a, b r3.Vector, t float64) r3.Vector {
	return a.Add(b.Sub(a).Mul(t))
}

// Knot is a single interpolated trajectory sample.
type Knot struct {
	Timestamp    float64
	Position     r3.Vector
	Velocity     r3.Vector
	Acceleration r3.Vector
	Attitude     quat.Number
	BodyRate     r3.Vector
	Thrust       float64
}
