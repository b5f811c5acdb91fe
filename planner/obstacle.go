package planner

import "github.com/golang/geo/r3"

// Obstacle is a sphere obstacle: center in meters, radius in meters
// (spec.md §3). Obstacles are created by the mission/perception layer,
// owned by the planner, and cleared when the mission changes.
type Obstacle struct {
	Center r3.Vector
	Radius float64
}

// Clearance returns the signed distance from p to the obstacle's surface:
// positive outside, negative inside.
func (o Obstacle) Clearance(p r3.Vector) float64 {
	return p.Sub(o.Center).Norm() - o.Radius
}

// SetObstacles replaces the planner's obstacle set. The set is copied once
// at solve start (spec.md §5: "obstacle set is copied once at solve
// start"), so concurrent SetObstacles calls never race with an in-flight
// solve.
func (p *Planner) SetObstacles(obstacles []Obstacle) {
	cp := make([]Obstacle, len(obstacles))
	copy(cp, obstacles)
	p.mu.Lock()
	p.obstacles = cp
	p.mu.Unlock()
}

// snapshotObstacles copies the current obstacle set for a single solve.
func (p *Planner) snapshotObstacles() []Obstacle {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]Obstacle, len(p.obstacles))
	copy(cp, p.obstacles)
	return cp
}
