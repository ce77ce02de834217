package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// MappingProvider queries an external routing service for real travel
// distances and durations (matrix endpoint, ORS wire format). Any failure
// degrades to a haversine estimate for the affected legs instead of
// surfacing an error; the returned Leg carries Degraded=true so callers
// can flag the entry. Real road networks are one-way, so the provider is
// asymmetric.
type MappingProvider struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	profile  string
	limiter  *rate.Limiter
	fallback *HaversineProvider
	log      zerolog.Logger
}

// MappingConfig carries construction parameters for MappingProvider.
type MappingConfig struct {
	BaseURL  string
	APIKey   string
	Profile  string  // defaults to driving-car
	RateRPS  float64 // external quota guard, defaults to 10 req/s
	SpeedKph float64 // fallback estimate speed
	Timeout  time.Duration
}

func NewMappingProvider(cfg MappingConfig, log zerolog.Logger) *MappingProvider {
	if cfg.Profile == "" {
		cfg.Profile = "driving-car"
	}
	if cfg.RateRPS <= 0 {
		cfg.RateRPS = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &MappingProvider{
		client:   &http.Client{Timeout: cfg.Timeout},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		profile:  cfg.Profile,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateRPS), 1),
		fallback: NewHaversineProvider(cfg.SpeedKph),
		log:      log,
	}
}

func (m *MappingProvider) Symmetric() bool { return false }

func (m *MappingProvider) DistanceDuration(ctx context.Context, origin, dest Point) (Leg, error) {
	legs, err := m.Matrix(ctx, []Point{origin, dest})
	if err != nil {
		// Matrix already degrades internally; this only happens on a
		// cancelled context.
		return Leg{}, err
	}
	return legs[0][1], nil
}

type matrixRequest struct {
	Locations [][]float64 `json:"locations"`
	Metrics   []string    `json:"metrics"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// Matrix resolves all ordered pairs in one upstream call. On timeout,
// quota rejection, or a malformed response the whole matrix falls back to
// haversine estimates marked Degraded. Per-call latency stays predictable:
// there is exactly one attempt, no retry loop.
func (m *MappingProvider) Matrix(ctx context.Context, points []Point) ([][]Leg, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	out, err := m.fetchMatrix(ctx, points)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		m.log.Warn().Err(err).Int("points", len(points)).Msg("mapping matrix failed, using haversine estimates")
		return m.estimateAll(points), nil
	}
	return out, nil
}

func (m *MappingProvider) fetchMatrix(ctx context.Context, points []Point) ([][]Leg, error) {
	locations := make([][]float64, len(points))
	for i, p := range points {
		locations[i] = []float64{p.Lng, p.Lat} // lon,lat per ORS convention
	}
	payload, err := json.Marshal(matrixRequest{Locations: locations, Metrics: []string{"distance", "duration"}})
	if err != nil {
		return nil, fmt.Errorf("marshal matrix request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/matrix/%s", m.baseURL, m.profile)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create matrix request: %w", err)
	}
	req.Header.Set("Authorization", m.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("matrix request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("matrix status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode matrix response: %w", err)
	}
	if len(mr.Distances) != len(points) || len(mr.Durations) != len(points) {
		return nil, fmt.Errorf("matrix row count mismatch: distances=%d durations=%d points=%d",
			len(mr.Distances), len(mr.Durations), len(points))
	}

	out := make([][]Leg, len(points))
	for i := range points {
		if len(mr.Distances[i]) != len(points) || len(mr.Durations[i]) != len(points) {
			return nil, fmt.Errorf("matrix column count mismatch in row %d", i)
		}
		out[i] = make([]Leg, len(points))
		for j := range points {
			dp, tp := mr.Distances[i][j], mr.Durations[i][j]
			if dp == nil || tp == nil {
				// Unroutable pair: estimate just this leg.
				leg, _ := m.fallback.DistanceDuration(ctx, points[i], points[j])
				leg.Degraded = true
				out[i][j] = leg
				continue
			}
			out[i][j] = Leg{DistanceM: *dp, DurationSec: *tp}
		}
	}
	return out, nil
}

func (m *MappingProvider) estimateAll(points []Point) [][]Leg {
	out := make([][]Leg, len(points))
	for i := range points {
		out[i] = make([]Leg, len(points))
		for j := range points {
			if i == j {
				out[i][j] = Leg{Degraded: true}
				continue
			}
			leg, _ := m.fallback.DistanceDuration(context.Background(), points[i], points[j])
			leg.Degraded = true
			out[i][j] = leg
		}
	}
	return out
}
