package store

import (
	"context"
	"errors"

	"fleetroute/internal/model"
	"fleetroute/internal/solver"
)

// Store persists solve results so they can be fetched after the
// optimize call returns. The solver itself never touches it.
type Store interface {
	SaveSolution(ctx context.Context, sol model.Solution) error
	GetSolution(ctx context.Context, id string) (model.Solution, error)
	ListSolutions(ctx context.Context, cursor string, limit int) (items []model.Solution, nextCursor string, err error)

	SaveSearchMetrics(ctx context.Context, solutionID string, m solver.SearchMetrics) error
	GetSearchMetrics(ctx context.Context, solutionID string) (solver.SearchMetrics, error)

	Ping(ctx context.Context) error
}

var ErrNotFound = errors.New("not found")
