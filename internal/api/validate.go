package api

import (
	"fmt"

	"routesolve/internal/model"
	"routesolve/internal/solver"
)

// validateSolveRequest does shallow shape checks before handing the
// instance to the solver, which enforces the hard limits itself.
func validateSolveRequest(req *model.SolveRequest) error {
	if len(req.Locations) == 0 {
		return fmt.Errorf("locations must not be empty")
	}
	if len(req.Vehicles) == 0 {
		return fmt.Errorf("vehicles must not be empty")
	}
	switch req.Mode {
	case "", solver.ModeSingle, solver.ModeCompare:
	default:
		return fmt.Errorf("mode must be %q or %q", solver.ModeSingle, solver.ModeCompare)
	}
	if req.Mode == solver.ModeSingle && req.Algorithm == "" {
		return fmt.Errorf("algorithm is required in single mode")
	}
	depots := 0
	for _, l := range req.Locations {
		if l.ID == "" {
			return fmt.Errorf("every location needs an id")
		}
		if l.IsDepot {
			depots++
		}
	}
	if depots != 1 {
		return fmt.Errorf("exactly one depot required, got %d", depots)
	}
	return nil
}

func validateSubscription(req *model.SubscriptionRequest) error {
	if req.URL == "" {
		return fmt.Errorf("url is required")
	}
	if len(req.Events) == 0 {
		return fmt.Errorf("at least one event type is required")
	}
	if req.Secret == "" {
		return fmt.Errorf("secret is required")
	}
	return nil
}
