package solver

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fleetroute/internal/geo"
	"fleetroute/internal/matrix"
	"fleetroute/internal/model"
)

const DefaultTimeBudget = 30 * time.Second

// ProgressFunc receives periodic snapshots while a solve is running.
type ProgressFunc func(SearchMetrics)

// Service owns the distance providers and runs optimize calls. Both
// providers are constructed once at startup; a request's distanceMode
// only selects between them. All per-call state lives on the stack of
// Solve, so one Service handles concurrent calls.
type Service struct {
	estimate geo.Provider
	mapping  geo.Provider
	budget   time.Duration
	log      zerolog.Logger
}

// Options configures a solver Service.
type Options struct {
	Estimate   geo.Provider  // required
	Mapping    geo.Provider  // optional, used for distanceMode=mapping
	TimeBudget time.Duration // default budget when the request sets none
	Logger     zerolog.Logger
}

func New(opts Options) *Service {
	if opts.Estimate == nil {
		opts.Estimate = geo.NewHaversineProvider(geo.DefaultSpeedKph)
	}
	if opts.TimeBudget <= 0 {
		opts.TimeBudget = DefaultTimeBudget
	}
	return &Service{
		estimate: opts.Estimate,
		mapping:  opts.Mapping,
		budget:   opts.TimeBudget,
		log:      opts.Logger,
	}
}

// Solve validates the request, builds the travel matrix and routing
// model, constructs an initial plan and improves it until the time
// budget runs out. Stops that cannot be served feasibly end up in
// UnservedStopIDs; only malformed input produces an error.
func (s *Service) Solve(ctx context.Context, req model.OptimizeRequest, progress ProgressFunc) (*model.Solution, SearchMetrics, error) {
	var sm SearchMetrics
	start := time.Now()

	if err := validateRequest(req); err != nil {
		return nil, sm, err
	}

	departAt := start.UTC()
	if req.DepartAt != "" {
		t, err := time.Parse(time.RFC3339, req.DepartAt)
		if err != nil {
			return nil, sm, model.NewValidationError(model.CodeInvalidTimeWindow, "departAt: %v", err)
		}
		departAt = t
	}

	budget := s.budget
	var con model.Constraints
	if req.Constraints != nil {
		con = *req.Constraints
	}
	if con.TimeBudgetSec > 0 {
		budget = time.Duration(con.TimeBudgetSec) * time.Second
	}
	deadline := start.Add(budget)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	provider := s.estimate
	if con.DistanceMode == "mapping" {
		if s.mapping != nil {
			provider = s.mapping
		} else {
			s.log.Warn().Msg("mapping provider not configured, using estimate")
		}
	}

	points := make([]geo.Point, len(req.Stops))
	for i, st := range req.Stops {
		points[i] = geo.Point{Lat: st.Location.Lat, Lng: st.Location.Lng}
	}
	mat, err := matrix.Build(ctx, geo.Point{Lat: req.Depot.Lat, Lng: req.Depot.Lng}, points, provider)
	if err != nil {
		return nil, sm, err
	}

	m, err := buildModel(req.Stops, req.Vehicles, mat, departAt)
	if err != nil {
		return nil, sm, err
	}

	seed := con.Seed
	if seed == 0 {
		seed = 1
	}

	p := cheapestInsertion(m)
	sm.ConstructionCost = p.dist(m)

	sr := newSearcher(m, seed, deadline, &sm, progress)
	best, converged := sr.run(p)

	routes, totals, unserved := extract(m, best, req.Depot)
	sm.Served = best.served()
	sm.Unserved = len(unserved)
	sm.ElapsedMS = time.Since(start).Milliseconds()
	sm.ConvergedBeforeBudget = converged

	status := model.StatusSolved
	switch {
	case sm.Served == 0:
		status = model.StatusInfeasible
	case !converged:
		status = model.StatusTimeout
	}

	sol := &model.Solution{
		ID:                 uuid.NewString(),
		Status:             status,
		Routes:             routes,
		Totals:             totals,
		UnservedStopIDs:    unserved,
		SolvedToOptimality: converged && len(unserved) == 0,
		Degraded:           mat.Degraded(),
		CreatedAt:          start.UTC().Format(time.RFC3339),
	}

	s.log.Info().
		Str("solutionId", sol.ID).
		Str("status", status).
		Int("served", sm.Served).
		Int("unserved", sm.Unserved).
		Float64("distanceM", totals.DistanceM).
		Int64("elapsedMs", sm.ElapsedMS).
		Bool("degraded", sol.Degraded).
		Msg("solve finished")
	return sol, sm, nil
}

func validateRequest(req model.OptimizeRequest) error {
	if len(req.Stops) == 0 {
		return model.NewValidationError(model.CodeEmptyStops, "at least one stop is required")
	}
	if len(req.Vehicles) == 0 {
		return model.NewValidationError(model.CodeEmptyVehicles, "at least one vehicle is required")
	}
	for _, v := range req.Vehicles {
		if v.Capacity <= 0 {
			return model.NewValidationError(model.CodeNonPositiveCap, "vehicle %s capacity %v must be positive", v.ID, v.Capacity)
		}
	}
	if err := matrix.ValidatePoint("depot", geo.Point{Lat: req.Depot.Lat, Lng: req.Depot.Lng}); err != nil {
		return err
	}
	for _, st := range req.Stops {
		if err := matrix.ValidatePoint("stop "+st.ID, geo.Point{Lat: st.Location.Lat, Lng: st.Location.Lng}); err != nil {
			return err
		}
	}
	return nil
}
