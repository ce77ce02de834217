package geo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHaversineMeters(t *testing.T) {
	// One degree of longitude on the equator.
	d := HaversineMeters(0, 0, 0, 1)
	require.InDelta(t, 111195, d, 50)

	// Seattle to Portland, roughly 233 km great-circle.
	d = HaversineMeters(47.6062, -122.3321, 45.5152, -122.6784)
	require.InDelta(t, 233000, d, 2000)

	require.Zero(t, HaversineMeters(47.6, -122.3, 47.6, -122.3))
}

func TestHaversineProviderDuration(t *testing.T) {
	p := NewHaversineProvider(40)
	leg, err := p.DistanceDuration(context.Background(), Point{Lat: 0, Lng: 0}, Point{Lat: 0, Lng: 1})
	require.NoError(t, err)
	require.False(t, leg.Degraded)
	// 40 km/h is 11.11 m/s.
	require.InDelta(t, leg.DistanceM/(40/3.6), leg.DurationSec, 1e-9)
	require.True(t, p.Symmetric())
}

func TestHaversineProviderDefaultSpeed(t *testing.T) {
	p := NewHaversineProvider(0)
	require.Equal(t, DefaultSpeedKph, p.SpeedKph)
}
