package store

import (
	"context"
	"sync"

	"fleetroute/internal/model"
	"fleetroute/internal/solver"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
// Listing returns newest solutions first.
type Memory struct {
	mu        sync.Mutex
	solutions map[string]model.Solution
	order     []string // solution ids, insertion order
	metrics   map[string]solver.SearchMetrics
}

func NewMemory() *Memory {
	return &Memory{
		solutions: map[string]model.Solution{},
		metrics:   map[string]solver.SearchMetrics{},
	}
}

func (m *Memory) SaveSolution(ctx context.Context, sol model.Solution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.solutions[sol.ID]; !exists {
		m.order = append(m.order, sol.ID)
	}
	m.solutions[sol.ID] = sol
	return nil
}

func (m *Memory) GetSolution(ctx context.Context, id string) (model.Solution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sol, ok := m.solutions[id]
	if !ok {
		return model.Solution{}, ErrNotFound
	}
	return sol, nil
}

func (m *Memory) ListSolutions(ctx context.Context, cursor string, limit int) ([]model.Solution, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	// Walk insertion order backwards so recent solves come first.
	start := len(m.order) - 1
	if cursor != "" {
		start = -1
		for i := len(m.order) - 1; i >= 0; i-- {
			if m.order[i] == cursor {
				start = i - 1
				break
			}
		}
	}
	out := []model.Solution{}
	next := ""
	for i := start; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.solutions[m.order[i]])
	}
	if len(out) == limit && start-limit >= 0 {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func (m *Memory) SaveSearchMetrics(ctx context.Context, solutionID string, sm solver.SearchMetrics) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics[solutionID] = sm
	return nil
}

func (m *Memory) GetSearchMetrics(ctx context.Context, solutionID string) (solver.SearchMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sm, ok := m.metrics[solutionID]
	if !ok {
		return solver.SearchMetrics{}, ErrNotFound
	}
	return sm, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
