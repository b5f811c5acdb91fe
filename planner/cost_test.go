package planner

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/Pasqui1010/DART-Planner-sub001/config"
)

func TestFeasibleRejectsOutOfBoxPosition(t *testing.T) {
	cfg := config.Default().Planner
	pr := &problem{cfg: cfg, p0: r3.Vector{}, v0: r3.Vector{}, goal: r3.Vector{X: 1000}, gravity: r3.Vector{Z: -9.8}, mass: 1.5}
	x := flatten([]r3.Vector{{X: 1000}, {X: 0}, {X: 0}, {X: 0}, {X: 0}, {X: 0}})
	ok, _ := pr.feasible(x)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestFeasibleRejectsObstacleViolation(t *testing.T) {
	cfg := config.Default().Planner
	cfg.SafetyMargin = 0.5
	pr := &problem{
		cfg:       cfg,
		p0:        r3.Vector{},
		v0:        r3.Vector{},
		goal:      r3.Vector{X: 1},
		gravity:   r3.Vector{Z: -9.8},
		mass:      1.5,
		obstacles: []Obstacle{{Center: r3.Vector{X: 0.05}, Radius: 0.1}},
	}
	x := flatten([]r3.Vector{{}, {}, {}, {}, {}, {}})
	ok, _ := pr.feasible(x)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestFeasibleRejectsThrustLimitViolation(t *testing.T) {
	cfg := config.Default().Planner
	cfg.ThrustMax = 5.0
	pr := &problem{cfg: cfg, p0: r3.Vector{}, v0: r3.Vector{}, goal: r3.Vector{X: 1000}, gravity: r3.Vector{Z: -9.8}, mass: 10.0}
	// a=0 => thrust = mass*||0 - gravity|| = 10*9.8 = 98N, far above thrust_max=5N.
	x := flatten([]r3.Vector{{}, {}, {}, {}, {}, {}})
	ok, reason := pr.feasible(x)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, reason, test.ShouldEqual, "thrust limit violated")
}

func TestRolloutIntegratesDoubleIntegrator(t *testing.T) {
	accel := []r3.Vector{{X: 1}, {X: 1}}
	positions, velocities := rollout(r3.Vector{}, r3.Vector{}, accel, 1.0)
	test.That(t, velocities[2].X, test.ShouldEqual, 2.0)
	test.That(t, positions[2].X, test.ShouldEqual, 2.0)
}

func TestGradientPointsDownhill(t *testing.T) {
	cfg := config.Default().Planner
	pr := &problem{cfg: cfg, p0: r3.Vector{}, v0: r3.Vector{}, goal: r3.Vector{X: 5}, gravity: r3.Vector{Z: -9.8}, obstacleWeight: 1}
	x := flatten(make([]r3.Vector, cfg.PredictionHorizon))
	grad := make([]float64, len(x))
	pr.gradient(grad, x)

	step := make([]float64, len(x))
	copy(step, x)
	for i := range step {
		step[i] -= 0.01 * grad[i]
	}
	test.That(t, pr.cost(step), test.ShouldBeLessThan, pr.cost(x))
}
