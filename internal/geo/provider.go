package geo

import "context"

// Point is a coordinate pair consumed by providers.
type Point struct {
	Lat float64
	Lng float64
}

// Leg is the travel estimate between two points. Degraded marks values
// produced by the haversine fallback after a mapping failure.
type Leg struct {
	DistanceM   float64
	DurationSec float64
	Degraded    bool
}

// Provider computes travel distance and duration between two points.
//
// Symmetric reports whether DistanceDuration(a,b) always equals
// DistanceDuration(b,a); matrix construction relies on it to skip
// redundant lookups.
type Provider interface {
	DistanceDuration(ctx context.Context, origin, dest Point) (Leg, error)
	Symmetric() bool
}

// BatchProvider is an optional extension for providers that can resolve
// a full point set in one call.
type BatchProvider interface {
	Provider
	// Matrix returns legs for every ordered (i,j) pair of points,
	// indexed [origin][destination].
	Matrix(ctx context.Context, points []Point) ([][]Leg, error)
}
