package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"fleetroute/internal/model"
	"fleetroute/internal/solver"
)

func TestMemorySolutionRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.GetSolution(ctx, "missing")
	require.True(t, errors.Is(err, ErrNotFound))

	sol := model.Solution{ID: "s1", Status: model.StatusSolved}
	require.NoError(t, m.SaveSolution(ctx, sol))

	got, err := m.GetSolution(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, sol, got)

	// Saving again must not duplicate the listing entry.
	sol.Status = model.StatusTimeout
	require.NoError(t, m.SaveSolution(ctx, sol))
	items, _, err := m.ListSolutions(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, model.StatusTimeout, items[0].Status)
}

func TestMemoryListPagination(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, m.SaveSolution(ctx, model.Solution{ID: fmt.Sprintf("s%d", i), Status: model.StatusSolved}))
	}

	page1, next, err := m.ListSolutions(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.Equal(t, "s4", page1[0].ID)
	require.Equal(t, "s3", page1[1].ID)
	require.Equal(t, "s3", next)

	page2, next, err := m.ListSolutions(ctx, next, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	require.Equal(t, "s2", page2[0].ID)
	require.Equal(t, "s1", page2[1].ID)
	require.Equal(t, "s1", next)

	page3, next, err := m.ListSolutions(ctx, next, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	require.Equal(t, "s0", page3[0].ID)
	require.Empty(t, next)
}

func TestMemorySearchMetrics(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.GetSearchMetrics(ctx, "s1")
	require.True(t, errors.Is(err, ErrNotFound))

	sm := solver.SearchMetrics{Iterations: 12, BestCost: 1500}
	require.NoError(t, m.SaveSearchMetrics(ctx, "s1", sm))
	got, err := m.GetSearchMetrics(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, sm, got)
}
