package planner

import "github.com/Pasqui1010/DART-Planner-sub001/apperr"

// errInfeasiblePlan builds the Infeasibility error Plan returns when the goal
// lies inside an obstacle's safety envelope or when no iterate was produced
// within the solve budget.
func errInfeasiblePlan(reason string) error {
	return apperr.Newf(apperr.Infeasibility, "planner", false, "infeasible plan: %s", reason)
}
