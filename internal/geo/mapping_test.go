package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestMappingProviderMatrix(t *testing.T) {
	var gotPath string
	var gotReq matrixRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		d01, d10, t01, t10 := 1500.0, 1600.0, 120.0, 130.0
		zero := 0.0
		_ = json.NewEncoder(w).Encode(matrixResponse{
			Distances: [][]*float64{{&zero, &d01}, {&d10, &zero}},
			Durations: [][]*float64{{&zero, &t01}, {&t10, &zero}},
		})
	}))
	defer srv.Close()

	p := NewMappingProvider(MappingConfig{BaseURL: srv.URL, APIKey: "k"}, zerolog.Nop())
	points := []Point{{Lat: 47.60, Lng: -122.33}, {Lat: 47.61, Lng: -122.34}}
	legs, err := p.Matrix(context.Background(), points)
	require.NoError(t, err)

	require.Equal(t, "/v2/matrix/driving-car", gotPath)
	// Upstream expects lon,lat ordering.
	require.Equal(t, [][]float64{{-122.33, 47.60}, {-122.34, 47.61}}, gotReq.Locations)

	require.Equal(t, 1500.0, legs[0][1].DistanceM)
	require.Equal(t, 120.0, legs[0][1].DurationSec)
	require.Equal(t, 1600.0, legs[1][0].DistanceM)
	require.False(t, legs[0][1].Degraded)
	// Asymmetric values must both survive.
	require.NotEqual(t, legs[0][1].DistanceM, legs[1][0].DistanceM)
}

func TestMappingProviderFallsBackOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewMappingProvider(MappingConfig{BaseURL: srv.URL}, zerolog.Nop())
	points := []Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}}
	legs, err := p.Matrix(context.Background(), points)
	require.NoError(t, err, "failure must degrade, not surface")

	require.True(t, legs[0][1].Degraded)
	require.InDelta(t, 111195, legs[0][1].DistanceM, 50)
	require.True(t, legs[0][0].Degraded)
}

func TestMappingProviderUnroutablePair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zero := 0.0
		d := 500.0
		// One direction is unroutable upstream.
		_ = json.NewEncoder(w).Encode(matrixResponse{
			Distances: [][]*float64{{&zero, nil}, {&d, &zero}},
			Durations: [][]*float64{{&zero, nil}, {&d, &zero}},
		})
	}))
	defer srv.Close()

	p := NewMappingProvider(MappingConfig{BaseURL: srv.URL}, zerolog.Nop())
	points := []Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}}
	legs, err := p.Matrix(context.Background(), points)
	require.NoError(t, err)

	require.True(t, legs[0][1].Degraded, "nil cell estimates just that leg")
	require.False(t, legs[1][0].Degraded)
	require.Equal(t, 500.0, legs[1][0].DistanceM)
}

func TestMappingProviderCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	p := NewMappingProvider(MappingConfig{BaseURL: srv.URL}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Matrix(ctx, []Point{{}, {}})
	require.Error(t, err, "cancellation propagates instead of degrading")
}
