package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"fleetroute/internal/config"
	"fleetroute/internal/metrics"
	"fleetroute/internal/geo"
	"fleetroute/internal/solver"
	"fleetroute/internal/store"
)

type Server struct {
	Store  store.Store
	Solver *solver.Service
	Broker EventBroker
	Log    zerolog.Logger
}

// NewServer wires the service from config: in-memory store and broker by
// default, Postgres and Redis when configured, and both distance
// providers built once so requests only pick between them.
func NewServer(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Server, error) {
	var st store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		st = store.NewMemory()
	} else {
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st = pg
	}

	var broker EventBroker
	if cfg.RedisAddress != "" {
		rb, err := NewRedisBroker(cfg.RedisAddress, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		broker = rb
	} else {
		broker = NewBroker()
	}

	var mapping geo.Provider
	if cfg.MappingBaseURL != "" {
		mapping = geo.NewMappingProvider(geo.MappingConfig{
			BaseURL:  cfg.MappingBaseURL,
			APIKey:   cfg.MappingAPIKey,
			Profile:  cfg.MappingProfile,
			RateRPS:  cfg.MappingRateRPS,
			SpeedKph: cfg.EstimateSpeed,
			Timeout:  cfg.MappingTimeout,
		}, log)
	}
	svc := solver.New(solver.Options{
		Estimate:   geo.NewHaversineProvider(cfg.EstimateSpeed),
		Mapping:    mapping,
		TimeBudget: cfg.SolveTimeBudget,
		Logger:     log,
	})

	return &Server{Store: st, Solver: svc, Broker: broker, Log: log}, nil
}

// Routes builds the HTTP mux with logging and metrics middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/optimize", s.OptimizeHandler)
	mux.HandleFunc("/v1/solutions", s.SolutionsHandler)
	mux.HandleFunc("/v1/solutions/", s.SolutionByIDHandler)

	mux.HandleFunc("/v1/solve-events", s.SolveEventsHandler)
	mux.HandleFunc("/v1/solve-events/ws", s.SolveEventsWSHandler)

	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/openapi.yaml", s.OpenAPIHandler)
	mux.HandleFunc("/openapi.json", s.OpenAPIJSONHandler)
	mux.HandleFunc("/docs", s.DocsHandler)

	return s.withMiddleware(mux)
}
