package matrix

import (
	"context"
	"fmt"

	"fleetroute/internal/geo"
	"fleetroute/internal/model"
)

// Entry is one cell of the travel matrix.
type Entry struct {
	DistanceM   float64
	DurationSec float64
	Degraded    bool
}

// Matrix is the square travel cost table over depot + stops. Index 0 is
// the depot. It is built once per optimize call and read-only afterwards.
type Matrix struct {
	entries  [][]Entry
	degraded bool
}

func (m *Matrix) Size() int         { return len(m.entries) }
func (m *Matrix) At(i, j int) Entry { return m.entries[i][j] }
func (m *Matrix) Degraded() bool    { return m.degraded }

// ValidatePoint rejects out-of-range coordinates. Values are never
// clamped; a bad coordinate aborts the whole call.
func ValidatePoint(label string, p geo.Point) error {
	if p.Lat < -90 || p.Lat > 90 {
		return model.NewValidationError(model.CodeInvalidCoordinate, "%s latitude %v out of range [-90,90]", label, p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return model.NewValidationError(model.CodeInvalidCoordinate, "%s longitude %v out of range [-180,180]", label, p.Lng)
	}
	return nil
}

// Build materializes the (n+1)x(n+1) travel matrix for depot + stops.
//
// Symmetric providers are queried once per unordered pair; asymmetric
// providers (real road networks) are queried in both directions.
// Providers implementing geo.BatchProvider resolve the whole point set
// in a single upstream call.
func Build(ctx context.Context, depot geo.Point, stops []geo.Point, p geo.Provider) (*Matrix, error) {
	points := make([]geo.Point, 0, len(stops)+1)
	points = append(points, depot)
	points = append(points, stops...)

	if err := ValidatePoint("depot", depot); err != nil {
		return nil, err
	}
	for i, pt := range stops {
		if err := ValidatePoint(fmt.Sprintf("stop[%d]", i), pt); err != nil {
			return nil, err
		}
	}

	n := len(points)
	m := &Matrix{entries: make([][]Entry, n)}
	for i := range m.entries {
		m.entries[i] = make([]Entry, n)
	}

	if bp, ok := p.(geo.BatchProvider); ok {
		legs, err := bp.Matrix(ctx, points)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				m.set(i, j, legs[i][j])
			}
		}
		return m, nil
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if p.Symmetric() && j < i {
				m.entries[i][j] = m.entries[j][i]
				continue
			}
			leg, err := p.DistanceDuration(ctx, points[i], points[j])
			if err != nil {
				return nil, fmt.Errorf("matrix entry (%d,%d): %w", i, j, err)
			}
			m.set(i, j, leg)
		}
	}
	return m, nil
}

func (m *Matrix) set(i, j int, leg geo.Leg) {
	m.entries[i][j] = Entry{DistanceM: leg.DistanceM, DurationSec: leg.DurationSec, Degraded: leg.Degraded}
	if leg.Degraded {
		m.degraded = true
	}
}
