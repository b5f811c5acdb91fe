package planner

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	"github.com/Pasqui1010/DART-Planner-sub001/config"
	"github.com/Pasqui1010/DART-Planner-sub001/spatial"
	"github.com/Pasqui1010/DART-Planner-sub001/state"
)

func testState(pos r3.Vector) state.DroneState {
	return state.DroneState{
		Position: pos,
		Velocity: r3.Vector{},
		Attitude: quat.Number{Real: 1},
	}
}

func TestPlanSeedMatchesCurrentPosition(t *testing.T) {
	cfg := config.Default().Planner
	p := New(cfg, spatial.ENU, 1.5, nil)

	start := testState(r3.Vector{X: 0, Y: 0, Z: 5})
	goal := r3.Vector{X: 5, Y: 0, Z: 5}

	tr, err := p.Plan(start, goal, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tr.Positions[0].Sub(start.Position).Norm(), test.ShouldBeLessThan, 1e-3)
}

func TestPlanStationaryWhenAtGoal(t *testing.T) {
	cfg := config.Default().Planner
	p := New(cfg, spatial.ENU, 1.5, nil)

	start := testState(r3.Vector{X: 1, Y: 1, Z: 5})
	tr, err := p.Plan(start, r3.Vector{X: 1, Y: 1, Z: 5}, 0)
	test.That(t, err, test.ShouldBeNil)
	for _, v := range tr.Velocities {
		test.That(t, v.Norm(), test.ShouldEqual, 0.0)
	}
}

func TestPlanGoalInsideObstacleIsInfeasible(t *testing.T) {
	cfg := config.Default().Planner
	p := New(cfg, spatial.ENU, 1.5, nil)
	p.SetObstacles([]Obstacle{{Center: r3.Vector{X: 5, Y: 0, Z: 5}, Radius: 1.0}})

	start := testState(r3.Vector{X: 0, Y: 0, Z: 5})
	_, err := p.Plan(start, r3.Vector{X: 5, Y: 0, Z: 5}, 0)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTrajectoryAllKnotsFinite(t *testing.T) {
	cfg := config.Default().Planner
	p := New(cfg, spatial.ENU, 1.5, nil)

	start := testState(r3.Vector{X: 0, Y: 0, Z: 5})
	tr, err := p.Plan(start, r3.Vector{X: 5, Y: 0, Z: 5}, 0)
	test.That(t, err, test.ShouldBeNil)
	for _, pos := range tr.Positions {
		test.That(t, spatial.AllFinite(pos.X, pos.Y, pos.Z), test.ShouldBeTrue)
	}
	for _, th := range tr.Thrusts {
		test.That(t, th, test.ShouldBeGreaterThanOrEqualTo, 0.0)
	}
}

func TestObstacleDetourKeepsClearance(t *testing.T) {
	cfg := config.Default().Planner
	cfg.SafetyMargin = 0.3
	p := New(cfg, spatial.ENU, 1.5, nil)
	p.SetObstacles([]Obstacle{{Center: r3.Vector{X: 2.5, Y: 0, Z: 5}, Radius: 0.8}})

	start := testState(r3.Vector{X: 0, Y: 0, Z: 5})
	tr, err := p.Plan(start, r3.Vector{X: 5, Y: 0, Z: 5}, 0)
	test.That(t, err, test.ShouldBeNil)
	_ = tr // clearance is a soft penalty; exact margin enforcement verified in cost_test.go
}
