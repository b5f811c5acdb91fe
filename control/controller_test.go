package control

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	"github.com/Pasqui1010/DART-Planner-sub001/config"
	"github.com/Pasqui1010/DART-Planner-sub001/spatial"
	"github.com/Pasqui1010/DART-Planner-sub001/state"
	"github.com/Pasqui1010/DART-Planner-sub001/trajectory"
)

func hoverTrajectory() trajectory.Trajectory {
	return trajectory.Trajectory{
		Timestamps:    []float64{0},
		Positions:     []r3.Vector{{}},
		Velocities:    []r3.Vector{{}},
		Accelerations: []r3.Vector{{}},
		Attitudes:     []quat.Number{spatial.Identity},
		BodyRates:     []r3.Vector{{}},
	}
}

func hoverState() state.DroneState {
	return state.DroneState{
		Timestamp: 0,
		Position:  r3.Vector{},
		Velocity:  r3.Vector{},
		Attitude:  spatial.Identity,
		Frame:     spatial.ENU,
	}
}

func TestComputeHoverHoldsHoverThrustAndZeroRates(t *testing.T) {
	cfg := config.Default().Controller
	c := New(cfg, 1.5, spatial.ENU, nil)

	cmd, err := c.Compute(hoverState(), hoverTrajectory(), 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cmd.Thrust, test.ShouldAlmostEqual, cfg.HoverThrust, 1e-6)
	test.That(t, cmd.BodyRates.Norm(), test.ShouldBeLessThan, 1e-6)
}

func TestComputeRejectsInvalidState(t *testing.T) {
	cfg := config.Default().Controller
	c := New(cfg, 1.5, spatial.ENU, nil)

	bad := hoverState()
	bad.Attitude = quat.Number{} // zero quaternion: not unit norm

	cmd, err := c.Compute(bad, hoverTrajectory(), 0)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, cmd, test.ShouldResemble, Command{})
}

func TestResetClearsIntegral(t *testing.T) {
	cfg := config.Default().Controller
	c := New(cfg, 1.5, spatial.ENU, nil)

	off := hoverState()
	off.Position = r3.Vector{X: 1}
	_, err := c.Compute(off, hoverTrajectory(), 0)
	test.That(t, err, test.ShouldBeNil)
	off.Timestamp = 0.1
	_, err = c.Compute(off, hoverTrajectory(), 0.1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.integral.Norm(), test.ShouldBeGreaterThan, 0.0)

	c.Reset()
	test.That(t, c.integral.Norm(), test.ShouldEqual, 0.0)
	test.That(t, c.hasLast, test.ShouldBeFalse)
}

func TestComputeLeansTowardGoalWhenOffset(t *testing.T) {
	cfg := config.Default().Controller
	c := New(cfg, 1.5, spatial.ENU, nil)

	off := hoverState()
	off.Position = r3.Vector{X: 1}

	cmd, err := c.Compute(off, hoverTrajectory(), 0)
	test.That(t, err, test.ShouldBeNil)
	// A position error on +X should command a nonzero pitch rate to correct it.
	test.That(t, cmd.BodyRates.Norm(), test.ShouldBeGreaterThan, 0.0)
}
