package trajectory

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func straightLine(n int, dt float64) Trajectory {
	tr := Trajectory{}
	for k := 0; k <= n; k++ {
		t := float64(k) * dt
		tr.Timestamps = append(tr.Timestamps, t)
		tr.Positions = append(tr.Positions, r3.Vector{X: float64(k)})
		tr.Velocities = append(tr.Velocities, r3.Vector{X: 1})
		tr.Accelerations = append(tr.Accelerations, r3.Vector{})
		tr.Attitudes = append(tr.Attitudes, quat.Number{Real: 1})
		tr.BodyRates = append(tr.BodyRates, r3.Vector{})
		if k < n {
			tr.Thrusts = append(tr.Thrusts, 10.0)
		}
	}
	return tr
}

func TestValidateAcceptsWellFormed(t *testing.T) {
	tr := straightLine(6, 0.1)
	test.That(t, tr.Validate(0.1), test.ShouldBeNil)
}

func TestValidateRejectsBadSpacing(t *testing.T) {
	tr := straightLine(6, 0.1)
	tr.Timestamps[3] += 0.05
	test.That(t, tr.Validate(0.1), test.ShouldNotBeNil)
}

func TestSampleAtKnotEqualsKnot(t *testing.T) {
	tr := straightLine(6, 0.1)
	for k := 0; k <= tr.N(); k++ {
		knot, stale := tr.Sample(tr.Timestamps[k])
		test.That(t, stale, test.ShouldBeFalse)
		test.That(t, knot.Position.X, test.ShouldEqual, tr.Positions[k].X)
	}
}

func TestSampleInterpolatesFinite(t *testing.T) {
	tr := straightLine(6, 0.1)
	knot, stale := tr.Sample(0.25)
	test.That(t, stale, test.ShouldBeFalse)
	test.That(t, knot.Position.X, test.ShouldEqual, 2.5)
}

func TestSampleClampsPastHorizon(t *testing.T) {
	tr := straightLine(6, 0.1)
	knot, stale := tr.Sample(100.0)
	test.That(t, stale, test.ShouldBeTrue)
	test.That(t, knot.Position.X, test.ShouldEqual, tr.Positions[tr.N()].X)
}

func TestSampleClampsBeforeStart(t *testing.T) {
	tr := straightLine(6, 0.1)
	knot, stale := tr.Sample(-1.0)
	test.That(t, stale, test.ShouldBeTrue)
	test.That(t, knot.Position.X, test.ShouldEqual, 0.0)
}
