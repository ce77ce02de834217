package solver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fleetroute/internal/geo"
	"fleetroute/internal/matrix"
	"fleetroute/internal/model"
)

func testModel(t *testing.T, stops []model.Stop, vehicles []model.Vehicle) *routingModel {
	t.Helper()
	depart, err := time.Parse(time.RFC3339, "2026-08-30T08:00:00Z")
	require.NoError(t, err)
	points := make([]geo.Point, len(stops))
	for i, st := range stops {
		points[i] = geo.Point{Lat: st.Location.Lat, Lng: st.Location.Lng}
	}
	mat, err := matrix.Build(context.Background(), geo.Point{Lat: 47.60, Lng: -122.33}, points, geo.NewHaversineProvider(40))
	require.NoError(t, err)
	m, err := buildModel(stops, vehicles, mat, depart)
	require.NoError(t, err)
	return m
}

func TestScheduleWaitsForWindowOpen(t *testing.T) {
	m := testModel(t, []model.Stop{
		{ID: "a", Location: model.GeoPoint{Lat: 47.61, Lng: -122.33}, Demand: 1,
			TimeWindow: &model.TimeWindow{Start: "2026-08-30T09:00:00Z", End: "2026-08-30T10:00:00Z"}},
	}, []model.Vehicle{{ID: "v1", Capacity: 5}})

	_, _, arrivals, ok := m.schedule(0, []int{1})
	require.True(t, ok)
	// Travel is a couple of minutes; arrival snaps to window open at +1h.
	require.InDelta(t, 3600, arrivals[0], 1e-9)
}

func TestScheduleFailsOnMissedWindow(t *testing.T) {
	m := testModel(t, []model.Stop{
		{ID: "a", Location: model.GeoPoint{Lat: 47.61, Lng: -122.33}, Demand: 1,
			TimeWindow: &model.TimeWindow{Start: "2026-08-30T07:00:00Z", End: "2026-08-30T08:00:00Z"}},
	}, []model.Vehicle{{ID: "v1", Capacity: 5}})

	_, _, _, ok := m.schedule(0, []int{1})
	require.False(t, ok)
	require.False(t, m.feasible(0, []int{1}))
}

func TestScheduleIncludesServiceAndReturnLeg(t *testing.T) {
	m := testModel(t, []model.Stop{
		{ID: "a", Location: model.GeoPoint{Lat: 47.61, Lng: -122.33}, Demand: 1, ServiceTimeSec: 300},
	}, []model.Vehicle{{ID: "v1", Capacity: 5}})

	distM, durSec, arrivals, ok := m.schedule(0, []int{1})
	require.True(t, ok)
	oneWay := m.dist(0, 1)
	require.InDelta(t, 2*oneWay, distM, 1e-6)
	// Duration covers travel out, service, travel back.
	require.InDelta(t, arrivals[0]+300+m.travelSec(m.vehicles[0], 1, 0), durSec, 1e-6)
}

func TestVehicleSpeedOverridesMatrixDuration(t *testing.T) {
	m := testModel(t, []model.Stop{
		{ID: "a", Location: model.GeoPoint{Lat: 47.61, Lng: -122.33}, Demand: 1},
	}, []model.Vehicle{
		{ID: "slow", Capacity: 5, SpeedKph: 20},
		{ID: "fast", Capacity: 5, SpeedKph: 80},
	})

	slow := m.travelSec(m.vehicles[0], 0, 1)
	fast := m.travelSec(m.vehicles[1], 0, 1)
	require.InDelta(t, 4, slow/fast, 1e-9)
}

func TestBuildModelRejectsBadStops(t *testing.T) {
	depart := time.Now().UTC()
	mat, err := matrix.Build(context.Background(), geo.Point{}, []geo.Point{{Lat: 1, Lng: 1}}, geo.NewHaversineProvider(40))
	require.NoError(t, err)

	var verr *model.ValidationError

	_, err = buildModel([]model.Stop{{ID: "a", Demand: -1}}, nil, mat, depart)
	require.True(t, errors.As(err, &verr))
	require.Equal(t, model.CodeNegativeDemand, verr.Code)

	_, err = buildModel([]model.Stop{{ID: "a",
		TimeWindow: &model.TimeWindow{Start: "2026-08-30T10:00:00Z", End: "2026-08-30T09:00:00Z"}}}, nil, mat, depart)
	require.True(t, errors.As(err, &verr))
	require.Equal(t, model.CodeInvalidTimeWindow, verr.Code)

	_, err = buildModel([]model.Stop{{ID: "a",
		TimeWindow: &model.TimeWindow{Start: "not-a-time", End: "2026-08-30T09:00:00Z"}}}, nil, mat, depart)
	require.True(t, errors.As(err, &verr))
	require.Equal(t, model.CodeInvalidTimeWindow, verr.Code)
}
