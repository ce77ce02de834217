package api

import (
	"fmt"

	"fleetroute/internal/model"
)

// validateOptimizeRequest checks the request shape before it reaches
// the solver. Domain validation (coordinates, capacities, windows)
// happens inside the solver and maps to coded problems.
func validateOptimizeRequest(req *model.OptimizeRequest) error {
	if req.Constraints != nil {
		c := req.Constraints
		if c.DistanceMode != "" && c.DistanceMode != "estimate" && c.DistanceMode != "mapping" {
			return fmt.Errorf("invalid distanceMode: %s (allowed: estimate, mapping)", c.DistanceMode)
		}
		if c.TimeBudgetSec < 0 {
			return fmt.Errorf("timeBudgetSec must be >= 0")
		}
		if c.Seed < 0 {
			return fmt.Errorf("seed must be >= 0")
		}
	}
	for i, st := range req.Stops {
		if st.ID == "" {
			return fmt.Errorf("stops[%d] is missing an id", i)
		}
	}
	for i, v := range req.Vehicles {
		if v.ID == "" {
			return fmt.Errorf("vehicles[%d] is missing an id", i)
		}
	}
	seen := map[string]struct{}{}
	for _, st := range req.Stops {
		if _, dup := seen[st.ID]; dup {
			return fmt.Errorf("duplicate stop id: %s", st.ID)
		}
		seen[st.ID] = struct{}{}
	}
	return nil
}
