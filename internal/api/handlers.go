package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"fleetroute/internal/buildinfo"
	"fleetroute/internal/metrics"
	"fleetroute/internal/model"
	"fleetroute/internal/solver"
	"fleetroute/internal/store"
)

// OptimizeHandler handles POST /v1/optimize. The call is synchronous:
// the response carries the finished solution. Progress is observable on
// /v1/solve-events using the solve id from the X-Solve-Id header.
func (s *Server) OptimizeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateOptimizeRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid optimize request", err.Error(), r.URL.Path)
		return
	}

	solveID := uuid.NewString()
	w.Header().Set("X-Solve-Id", solveID)
	s.Broker.Publish(solveID, SolveEvent{Type: "solve.accepted", Data: map[string]any{
		"solveId": solveID,
		"stops":   len(req.Stops),
	}})

	start := time.Now()
	sol, sm, err := s.Solver.Solve(r.Context(), req, func(snap solver.SearchMetrics) {
		s.Broker.Publish(solveID, SolveEvent{Type: "solve.progress", Data: map[string]any{
			"solveId":    solveID,
			"iterations": snap.Iterations,
			"bestCost":   snap.BestCost,
			"unserved":   snap.Unserved,
		}})
	})
	if err != nil {
		s.Broker.Publish(solveID, SolveEvent{Type: "solve.failed", Data: map[string]any{
			"solveId": solveID,
			"error":   err.Error(),
		}})
		writeError(w, err, r.URL.Path)
		return
	}

	metrics.Solves.WithLabelValues(sol.Status).Inc()
	metrics.SolveDuration.Observe(time.Since(start).Seconds())
	metrics.UnservedStops.Observe(float64(len(sol.UnservedStopIDs)))
	if sol.Degraded {
		metrics.ProviderFallbacks.Inc()
	}

	if err := s.Store.SaveSolution(r.Context(), *sol); err != nil {
		s.Log.Error().Err(err).Str("solutionId", sol.ID).Msg("save solution failed")
	} else if err := s.Store.SaveSearchMetrics(r.Context(), sol.ID, sm); err != nil {
		s.Log.Error().Err(err).Str("solutionId", sol.ID).Msg("save search metrics failed")
	}

	s.Broker.Publish(solveID, SolveEvent{Type: "solve.completed", Data: map[string]any{
		"solveId":    solveID,
		"solutionId": sol.ID,
		"status":     sol.Status,
		"unserved":   len(sol.UnservedStopIDs),
	}})
	writeJSON(w, http.StatusOK, sol)
}

// SolutionsHandler handles GET /v1/solutions with cursor pagination.
func (s *Server) SolutionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	cursor := r.URL.Query().Get("cursor")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	items, next, err := s.Store.ListSolutions(r.Context(), cursor, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List solutions failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// SolutionByIDHandler handles GET /v1/solutions/{id} and
// GET /v1/solutions/{id}/metrics.
func (s *Server) SolutionByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/solutions/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}

	if len(parts) > 1 && parts[1] == "metrics" {
		sm, err := s.Store.GetSearchMetrics(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "no metrics for solution "+id, r.URL.Path)
			return
		}
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Get metrics failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, sm)
		return
	}

	sol, err := s.Store.GetSolution(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "no solution "+id, r.URL.Path)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Get solution failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, sol)
}

// SolveEventsHandler streams solve events as SSE. ?solveId= narrows the
// stream to one solve; without it the stream carries every solve.
func (s *Server) SolveEventsHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	channel := r.URL.Query().Get("solveId")
	if channel == "" {
		channel = ChannelAll
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.Broker.Subscribe(channel)
	defer s.Broker.Unsubscribe(channel, ch)

	heartbeat := func() {
		fmt.Fprintf(w, "event: heartbeat\n")
		fmt.Fprintf(w, "data: {\"ts\":\"%s\"}\n\n", time.Now().Format(time.RFC3339))
		flusher.Flush()
	}
	heartbeat()

	notify := r.Context().Done()
	for {
		select {
		case <-notify:
			return
		case evt := <-ch:
			b, _ := json.Marshal(evt.Data)
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", string(b))
			flusher.Flush()
		case <-time.After(15 * time.Second):
			heartbeat()
		}
	}
}

// HealthHandler handles GET /healthz.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Info()})
}

// ReadyHandler handles GET /readyz; readiness requires the store.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
