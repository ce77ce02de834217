package geo

import (
	"context"
	"math"
)

// DefaultSpeedKph is the assumed average travel speed used to derive
// durations from great-circle distances.
const DefaultSpeedKph = 40.0

const earthRadiusM = 6371000.0

// HaversineProvider estimates travel legs with great-circle distance and
// a fixed average speed. It never fails and is always symmetric.
type HaversineProvider struct {
	SpeedKph float64
}

func NewHaversineProvider(speedKph float64) *HaversineProvider {
	if speedKph <= 0 {
		speedKph = DefaultSpeedKph
	}
	return &HaversineProvider{SpeedKph: speedKph}
}

func (h *HaversineProvider) DistanceDuration(_ context.Context, origin, dest Point) (Leg, error) {
	d := HaversineMeters(origin.Lat, origin.Lng, dest.Lat, dest.Lng)
	return Leg{DistanceM: d, DurationSec: d / (h.SpeedKph / 3.6)}, nil
}

func (h *HaversineProvider) Symmetric() bool { return true }

// HaversineMeters returns the great-circle distance between two
// coordinates in meters.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}
