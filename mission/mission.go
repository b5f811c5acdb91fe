// Package mission implements §6's mission-upload contract: validating an
// ordered list of goal waypoints against workspace bounds before acceptance,
// rejecting with a structured error enumerating every violated constraint
// rather than failing on the first (spec.md §6 "Mission input").
package mission

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/Pasqui1010/DART-Planner-sub001/apperr"
	"github.com/Pasqui1010/DART-Planner-sub001/config"
)

// Waypoint is one mission goal: a target position and the tolerance within
// which it counts as reached (spec.md §3 "Mission").
type Waypoint struct {
	Position  r3.Vector
	Tolerance float64
}

// Mission is an ordered, immutable list of waypoints once accepted (spec.md
// §3: "Immutable once accepted").
type Mission struct {
	ID        uuid.UUID
	Waypoints []Waypoint
}

// UploadMission validates waypoints against bounds and, if every waypoint is
// valid, returns an accepted, immutable Mission. On rejection, the returned
// error is an *apperr.Error wrapping a multierr aggregate naming every
// violated waypoint and bound (spec.md §6: "rejection returns a structured
// error enumerating violated constraints").
func UploadMission(waypoints []Waypoint, bounds config.WorkspaceBounds) (Mission, error) {
	if len(waypoints) == 0 {
		return Mission{}, apperr.New(apperr.ConstraintViolation, "mission", false,
			fmt.Errorf("mission must contain at least one waypoint"))
	}

	var violations error
	for i, wp := range waypoints {
		if wp.Tolerance <= 0 {
			violations = multierr.Append(violations,
				fmt.Errorf("waypoint %d: tolerance must be > 0, got %v", i, wp.Tolerance))
		}
		if !bounds.Contains(wp.Position.X, wp.Position.Y, wp.Position.Z) {
			violations = multierr.Append(violations,
				fmt.Errorf("waypoint %d: position %v outside workspace bounds", i, wp.Position))
		}
	}
	if violations != nil {
		return Mission{}, apperr.New(apperr.ConstraintViolation, "mission", false, violations)
	}

	frozen := make([]Waypoint, len(waypoints))
	copy(frozen, waypoints)
	return Mission{ID: uuid.New(), Waypoints: frozen}, nil
}

// N returns the number of waypoints in the mission.
func (m Mission) N() int { return len(m.Waypoints) }
