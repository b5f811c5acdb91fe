package planner

import (
	"github.com/golang/geo/r3"

	"github.com/Pasqui1010/DART-Planner-sub001/config"
)

// rollout propagates the simple double-integrator dynamics
// x[k+1] = f(x[k], u[k]) (spec.md §4.B "Algorithm") forward from p0/v0 given
// a flattened decision vector of N per-step accelerations.
func rollout(p0, v0 r3.Vector, accel []r3.Vector, dt float64) (positions, velocities []r3.Vector) {
	n := len(accel)
	positions = make([]r3.Vector, n+1)
	velocities = make([]r3.Vector, n+1)
	positions[0], velocities[0] = p0, v0
	for k := 0; k < n; k++ {
		velocities[k+1] = velocities[k].Add(accel[k].Mul(dt))
		positions[k+1] = positions[k].Add(velocities[k].Mul(dt)).Add(accel[k].Mul(0.5 * dt * dt))
	}
	return positions, velocities
}

func unflatten(x []float64) []r3.Vector {
	n := len(x) / 3
	out := make([]r3.Vector, n)
	for k := 0; k < n; k++ {
		out[k] = r3.Vector{X: x[3*k], Y: x[3*k+1], Z: x[3*k+2]}
	}
	return out
}

func flatten(vs []r3.Vector) []float64 {
	out := make([]float64, 3*len(vs))
	for k, v := range vs {
		out[3*k], out[3*k+1], out[3*k+2] = v.X, v.Y, v.Z
	}
	return out
}

// problem bundles everything the cost function needs that is constant
// across a single solve (captured obstacle snapshot, goal, weights).
type problem struct {
	cfg            config.Planner
	p0, v0         r3.Vector
	goal           r3.Vector
	obstacles      []Obstacle
	gravity        r3.Vector
	mass           float64
	obstacleWeight float64 // may be boosted across outer SQP iterations
}

// cost evaluates the total quadratic-plus-penalty cost for decision vector
// x (N flattened acceleration vectors), per spec.md §4.B "Cost terms".
func (pr *problem) cost(x []float64) float64 {
	accel := unflatten(x)
	positions, velocities := rollout(pr.p0, pr.v0, accel, pr.cfg.DT)
	n := len(accel)
	w := pr.cfg.Weights

	var j float64
	for k := 1; k <= n; k++ {
		terminalBoost := 1.0
		if k == n {
			terminalBoost = 10.0
		}
		d := positions[k].Sub(pr.goal)
		j += terminalBoost * w.QPos * d.Dot(d)
	}
	for k := 0; k <= n; k++ {
		j += w.QVel * velocities[k].Dot(velocities[k])
	}
	for k := 0; k < n; k++ {
		// Thrust-minimization term: thrust direction is m*(a - g), so
		// penalizing ||a - g||^2 discourages large collective thrust.
		du := accel[k].Sub(pr.gravity)
		j += w.RU * du.Dot(du)
	}
	for k := 1; k < n; k++ {
		d := accel[k].Sub(accel[k-1])
		j += w.RSmooth * d.Dot(d)
	}
	for k := 0; k <= n; k++ {
		for _, ob := range pr.obstacles {
			clearance := ob.Clearance(positions[k])
			violation := pr.cfg.SafetyMargin - clearance
			if violation > 0 {
				j += pr.obstacleWeight * w.WObstacle * violation * violation
			}
		}
	}
	return j
}

// gradient computes a central-difference gradient of cost at x.
func (pr *problem) gradient(grad, x []float64) {
	const h = 1e-5
	xh := make([]float64, len(x))
	copy(xh, x)
	for i := range x {
		orig := xh[i]
		xh[i] = orig + h
		fPlus := pr.cost(xh)
		xh[i] = orig - h
		fMinus := pr.cost(xh)
		xh[i] = orig
		grad[i] = (fPlus - fMinus) / (2 * h)
	}
}

// feasible reports whether the rollout produced by x respects box, velocity,
// acceleration, and obstacle-clearance constraints (spec.md §4.B contract).
func (pr *problem) feasible(x []float64) (bool, string) {
	accel := unflatten(x)
	positions, velocities := rollout(pr.p0, pr.v0, accel, pr.cfg.DT)
	b := pr.cfg.WorkspaceBounds
	for _, p := range positions {
		if !b.Contains(p.X, p.Y, p.Z) {
			return false, "workspace bound violated"
		}
	}
	for _, v := range velocities {
		if v.Norm() > pr.cfg.VMax+1e-6 {
			return false, "velocity limit violated"
		}
	}
	for _, a := range accel {
		if a.Norm() > pr.cfg.AMax+1e-6 {
			return false, "acceleration limit violated"
		}
		// Collective thrust t = m*(a_des - g) must stay within
		// [0, thrust_max] (spec.md §4.B contract).
		if thrust := pr.mass * a.Sub(pr.gravity).Norm(); thrust > pr.cfg.ThrustMax+1e-6 {
			return false, "thrust limit violated"
		}
	}
	for _, p := range positions {
		for _, ob := range pr.obstacles {
			if ob.Clearance(p) < pr.cfg.SafetyMargin-1e-9 {
				return false, "obstacle clearance violated"
			}
		}
	}
	return true, ""
}
