// Package planner implements Component B, the SE(3) MPC receding-horizon
// trajectory optimizer (spec.md §4.B). Each call to Plan solves a finite-
// horizon optimal-control problem with gonum.org/v1/gonum/optimize's LBFGS
// as the inner unconstrained minimizer, wrapped in an outer loop that
// escalates the obstacle-penalty weight and hard re-solves when the
// warm-started solution violates clearance — mirroring the
// construct-solver/DoSolve-returns-best-iterate shape of the teacher's
// motionplan/ik nlopt solver, but on a pure-Go backend (see DESIGN.md).
package planner

import (
	"math"
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/optimize"

	"github.com/Pasqui1010/DART-Planner-sub001/config"
	"github.com/Pasqui1010/DART-Planner-sub001/logging"
	"github.com/Pasqui1010/DART-Planner-sub001/spatial"
	"github.com/Pasqui1010/DART-Planner-sub001/state"
	"github.com/Pasqui1010/DART-Planner-sub001/trajectory"
)

// Planner is Component B. It owns its obstacle set and most recent plan
// (spec.md §3 "Ownership").
type Planner struct {
	cfg    config.Planner
	frame  spatial.Frame
	mass   float64
	logger *logging.Logger

	mu        sync.Mutex
	obstacles []Obstacle
	last      *trajectory.Trajectory
}

// New constructs a Planner for the given configuration group, vehicle mass
// (kg), and world frame. mass converts the solved acceleration sequence into
// collective thrust in Newtons (spec.md §4.B step 1: t = m*(a_des - g)).
func New(cfg config.Planner, frame spatial.Frame, mass float64, logger *logging.Logger) *Planner {
	return &Planner{cfg: cfg, frame: frame, mass: mass, logger: logger}
}

// stationaryTolerance is the distance below which a goal is considered
// already reached (spec.md §4.B "Edge cases").
const stationaryTolerance = 0.02

// Plan solves the receding-horizon problem for currentState and goal,
// returning a trajectory of length cfg.PredictionHorizon+1 at spacing
// cfg.DT (spec.md §4.B contract). yaw is the commanded yaw in radians.
func (p *Planner) Plan(currentState state.DroneState, goal r3.Vector, yaw float64) (trajectory.Trajectory, error) {
	deadline := time.Now().Add(time.Duration(p.cfg.SolveBudget * float64(time.Millisecond)))

	p0 := currentState.Position
	if !p.cfg.WorkspaceBounds.Contains(p0.X, p0.Y, p0.Z) {
		p0 = p.projectIntoBounds(p0)
		if p.logger != nil {
			p.logger.Warnw("seed state outside workspace bounds, projected for seeding")
		}
	}
	v0 := currentState.Velocity

	obstacles := p.snapshotObstacles()
	for _, ob := range obstacles {
		if ob.Clearance(goal) < p.cfg.SafetyMargin {
			return p.degradedOrError(errInfeasiblePlan("goal lies within an obstacle's safety margin"))
		}
	}

	if p0.Sub(goal).Norm() < stationaryTolerance {
		tr := p.stationaryTrajectory(p0, yaw)
		p.publish(tr)
		return tr, nil
	}

	n := p.cfg.PredictionHorizon
	pr := &problem{
		cfg:            p.cfg,
		p0:             p0,
		v0:             v0,
		goal:           goal,
		obstacles:      obstacles,
		gravity:        p.frame.Gravity(),
		mass:           p.mass,
		obstacleWeight: 1.0,
	}

	x0 := p.warmStart(n, p0, v0, goal)

	var best []float64
	var bestCost float64 = math.Inf(1)
	degraded := false

	for iter := 0; iter < p.cfg.MaxIterations; iter++ {
		if time.Now().After(deadline) {
			degraded = true
			break
		}

		result, err := optimize.Minimize(optimize.Problem{
			Func: pr.cost,
			Grad: pr.gradient,
		}, x0, &optimize.Settings{
			MajorIterations: 20,
			Converger:       &optimize.FunctionConverge{Relative: p.cfg.ConvergenceTolerance, Iterations: 5},
		}, &optimize.LBFGS{})

		var x []float64
		var cost float64
		if err != nil || result == nil {
			x, cost = x0, pr.cost(x0)
			degraded = true
		} else {
			x, cost = result.X, result.F
		}

		if cost < bestCost {
			bestCost, best = cost, x
		}

		if ok, _ := pr.feasible(x); ok {
			break
		}
		// Hard re-solve: escalate the obstacle penalty and try again from
		// this iterate (spec.md §4.B: "if the warm-started solve violates
		// clearance, a hard re-solve is attempted").
		pr.obstacleWeight *= 10
		x0 = x
		degraded = true

		if math.Abs(cost-bestCost) < p.cfg.ConvergenceTolerance && iter > 0 {
			break
		}
	}

	if best == nil {
		return p.degradedOrError(errInfeasiblePlan("no feasible iterate produced within the solve budget"))
	}

	feasible, reason := pr.feasible(best)
	if !feasible {
		if p.logger != nil {
			p.logger.Warnw("planner returning degraded plan", "reason", reason)
		}
		degraded = true
	}

	tr := p.assembleTrajectory(p0, v0, best, currentState.Attitude, yaw)

	tr.Degraded = degraded
	p.publish(tr)
	return tr, nil
}

// degradedOrError returns the last good trajectory (if any) alongside err,
// per spec.md §4.B: "Infeasible problem ... -> InfeasiblePlan error;
// planner keeps last good trajectory."
func (p *Planner) degradedOrError(err error) (trajectory.Trajectory, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last != nil {
		return *p.last, err
	}
	return trajectory.Trajectory{}, err
}

func (p *Planner) projectIntoBounds(v r3.Vector) r3.Vector {
	b := p.cfg.WorkspaceBounds
	return r3.Vector{
		X: spatial.Clamp(v.X, b.MinX, b.MaxX),
		Y: spatial.Clamp(v.Y, b.MinY, b.MaxY),
		Z: spatial.Clamp(v.Z, b.MinZ, b.MaxZ),
	}
}

// warmStart seeds the decision vector from the previous plan shifted by one
// step (spec.md §4.B "receding-horizon" warm start), falling back to a
// straight-line constant-acceleration guess when there is no prior plan or
// its horizon doesn't match.
func (p *Planner) warmStart(n int, p0, v0, goal r3.Vector) []float64 {
	p.mu.Lock()
	prev := p.last
	p.mu.Unlock()

	if prev != nil && prev.N() == n && len(prev.Accelerations) == n+1 {
		shifted := make([]r3.Vector, n)
		for k := 0; k < n; k++ {
			src := k + 1
			if src > n {
				src = n
			}
			shifted[k] = prev.Accelerations[src]
		}
		return flatten(shifted)
	}

	// Straight-line guess: constant acceleration that would cover the
	// displacement in n steps starting from rest-relative velocity.
	disp := goal.Sub(p0)
	dt := p.cfg.DT
	totalT := float64(n) * dt
	var accelGuess r3.Vector
	if totalT > 0 {
		accelGuess = disp.Mul(2 / (totalT * totalT)).Sub(v0.Mul(2 / totalT))
	}
	if accelGuess.Norm() > p.cfg.AMax {
		accelGuess = accelGuess.Normalize().Mul(p.cfg.AMax)
	}
	accels := make([]r3.Vector, n)
	for k := range accels {
		accels[k] = accelGuess
	}
	return flatten(accels)
}

// stationaryTrajectory emits all knots at pos with zero velocity. Plan passes
// the seed position, which is already within stationaryTolerance of the goal.
func (p *Planner) stationaryTrajectory(pos r3.Vector, yaw float64) trajectory.Trajectory {
	n := p.cfg.PredictionHorizon
	dt := p.cfg.DT
	tr := trajectory.Trajectory{}
	hoverThrustVec := p.frame.Gravity().Mul(-p.mass) // t = m*(0 - g) at rest
	q := spatial.AttitudeFromThrustYaw(hoverThrustVec, yaw)
	for k := 0; k <= n; k++ {
		tr.Timestamps = append(tr.Timestamps, float64(k)*dt)
		tr.Positions = append(tr.Positions, pos)
		tr.Velocities = append(tr.Velocities, r3.Vector{})
		tr.Accelerations = append(tr.Accelerations, r3.Vector{})
		tr.Attitudes = append(tr.Attitudes, q)
		tr.BodyRates = append(tr.BodyRates, r3.Vector{})
		if k < n {
			tr.Thrusts = append(tr.Thrusts, hoverThrustVec.Norm())
		}
	}
	return tr
}

// assembleTrajectory converts the solved acceleration sequence into a full
// Reference Trajectory: rolled-out positions/velocities, per-knot attitude
// and thrust synthesized from desired thrust direction (spec.md §4.B
// "Attitude & body-rate synthesis" steps 1-5), and body rates from finite
// difference of consecutive attitudes (step 6).
func (p *Planner) assembleTrajectory(p0, v0 r3.Vector, x []float64, currentAttitude quat.Number, yawGoal float64) trajectory.Trajectory {
	accel := unflatten(x)
	positions, velocities := rollout(p0, v0, accel, p.cfg.DT)
	n := len(accel)
	dt := p.cfg.DT
	gravity := p.frame.Gravity()

	tr := trajectory.Trajectory{}

	currentYaw := spatial.YawOf(currentAttitude)
	yaws := make([]float64, n+1)
	yaws[0] = currentYaw
	for k := 1; k <= n; k++ {
		frac := float64(k) / float64(n)
		yaws[k] = currentYaw + frac*spatial.ShortestYawStep(currentYaw, yawGoal)
	}

	for k := 0; k <= n; k++ {
		tr.Timestamps = append(tr.Timestamps, float64(k)*dt)
		tr.Positions = append(tr.Positions, positions[k])
		tr.Velocities = append(tr.Velocities, velocities[k])
		var a r3.Vector
		if k < n {
			a = accel[k]
		} else {
			a = accel[n-1]
		}
		tr.Accelerations = append(tr.Accelerations, a)

		thrustVec := a.Sub(gravity).Mul(p.mass) // t = m*(a_des - g), spec.md §4.B step 1
		q := spatial.AttitudeFromThrustYaw(thrustVec, yaws[k])
		tr.Attitudes = append(tr.Attitudes, q)
		tr.BodyRates = append(tr.BodyRates, r3.Vector{})

		if k < n {
			tr.Thrusts = append(tr.Thrusts, thrustVec.Norm())
		}
	}

	for k := 0; k < n; k++ {
		tr.BodyRates[k] = spatial.BodyRateBetween(tr.Attitudes[k], tr.Attitudes[k+1], dt)
	}
	// terminal body rate holds the last computed rate (no k+1 knot to diff against)
	if n > 0 {
		tr.BodyRates[n] = tr.BodyRates[n-1]
	}

	return tr
}

func (p *Planner) publish(tr trajectory.Trajectory) {
	p.mu.Lock()
	cp := tr
	p.last = &cp
	p.mu.Unlock()
}

// Last returns the most recently published trajectory, if any.
func (p *Planner) Last() (trajectory.Trajectory, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return trajectory.Trajectory{}, false
	}
	return *p.last, true
}
