package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// Solves counts optimize calls by final status
	Solves = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solves_total", Help: "Optimize calls by final status."},
		[]string{"status"},
	)
	// SolveDuration tracks wall-clock solve time in seconds
	SolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "solve_duration_seconds", Help: "Optimize call duration in seconds.", Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}},
	)
	// UnservedStops tracks how many stops each solve left unserved
	UnservedStops = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "solve_unserved_stops", Help: "Unserved stops per solve.", Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100}},
	)
	// ProviderFallbacks counts solves whose distance matrix degraded to
	// estimate values after a mapping backend failure
	ProviderFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "distance_provider_fallbacks_total", Help: "Solves with estimate-degraded distance matrices."},
	)
)

// RegisterDefault registers every collector, plus the Go and process
// collectors, on the package Registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Solves)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(UnservedStops)
		Registry.MustRegister(ProviderFallbacks)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
