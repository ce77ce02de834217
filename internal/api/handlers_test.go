package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"fleetroute/internal/model"
	"fleetroute/internal/solver"
	"fleetroute/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return &Server{
		Store:  store.NewMemory(),
		Solver: solver.New(solver.Options{Logger: zerolog.Nop()}),
		Broker: NewBroker(),
		Log:    zerolog.Nop(),
	}
}

func optimizeBody() []byte {
	req := model.OptimizeRequest{
		Depot:    model.GeoPoint{Lat: 47.6062, Lng: -122.3321},
		DepartAt: "2026-08-30T08:00:00Z",
		Stops: []model.Stop{
			{ID: "a", Location: model.GeoPoint{Lat: 47.61, Lng: -122.33}, Demand: 1},
			{ID: "b", Location: model.GeoPoint{Lat: 47.62, Lng: -122.34}, Demand: 1},
		},
		Vehicles:    []model.Vehicle{{ID: "v1", Capacity: 5}},
		Constraints: &model.Constraints{TimeBudgetSec: 5, Seed: 7},
	}
	b, _ := json.Marshal(req)
	return b
}

func TestHealthReady(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != 200 {
		t.Fatalf("health: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != 200 {
		t.Fatalf("ready: got %d", rr.Code)
	}
}

func TestOptimizeAndFetch(t *testing.T) {
	s := newTestServer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/optimize", bytes.NewReader(optimizeBody()))
	req.Header.Set("Content-Type", "application/json")
	s.OptimizeHandler(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("optimize: got %d body %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Solve-Id") == "" {
		t.Fatal("missing X-Solve-Id header")
	}
	var sol model.Solution
	if err := json.Unmarshal(rr.Body.Bytes(), &sol); err != nil {
		t.Fatalf("decode solution: %v", err)
	}
	if sol.Status != model.StatusSolved {
		t.Fatalf("status: got %s", sol.Status)
	}
	if len(sol.UnservedStopIDs) != 0 {
		t.Fatalf("unserved: %v", sol.UnservedStopIDs)
	}

	// Solution must be fetchable afterwards.
	rr = httptest.NewRecorder()
	s.SolutionByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/solutions/"+sol.ID, nil))
	if rr.Code != 200 {
		t.Fatalf("get solution: got %d", rr.Code)
	}

	// And so must its search metrics.
	rr = httptest.NewRecorder()
	s.SolutionByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/solutions/"+sol.ID+"/metrics", nil))
	if rr.Code != 200 {
		t.Fatalf("get metrics: got %d", rr.Code)
	}
	var sm solver.SearchMetrics
	if err := json.Unmarshal(rr.Body.Bytes(), &sm); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if sm.Iterations == 0 {
		t.Fatal("metrics iterations should be > 0")
	}

	// Listing shows the stored solution.
	rr = httptest.NewRecorder()
	s.SolutionsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/solutions?limit=10", nil))
	if rr.Code != 200 {
		t.Fatalf("list: got %d", rr.Code)
	}
	var page struct {
		Items []model.Solution `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != sol.ID {
		t.Fatalf("list items: %+v", page.Items)
	}
}

func TestOptimizeRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	// Not JSON at all.
	rr := httptest.NewRecorder()
	s.OptimizeHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/optimize", bytes.NewReader([]byte("nope"))))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad json: got %d", rr.Code)
	}

	// No stops: coded validation problem.
	body, _ := json.Marshal(model.OptimizeRequest{
		Depot:    model.GeoPoint{Lat: 1, Lng: 2},
		Vehicles: []model.Vehicle{{ID: "v1", Capacity: 5}},
	})
	rr = httptest.NewRecorder()
	s.OptimizeHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/optimize", bytes.NewReader(body)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty stops: got %d", rr.Code)
	}
	var p Problem
	if err := json.Unmarshal(rr.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if p.Code != model.CodeEmptyStops {
		t.Fatalf("code: got %q", p.Code)
	}

	// Unknown distance mode fails shape validation.
	req := model.OptimizeRequest{
		Depot:       model.GeoPoint{Lat: 1, Lng: 2},
		Stops:       []model.Stop{{ID: "a", Location: model.GeoPoint{Lat: 1, Lng: 2}}},
		Vehicles:    []model.Vehicle{{ID: "v1", Capacity: 5}},
		Constraints: &model.Constraints{DistanceMode: "teleport"},
	}
	body, _ = json.Marshal(req)
	rr = httptest.NewRecorder()
	s.OptimizeHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/optimize", bytes.NewReader(body)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("distance mode: got %d", rr.Code)
	}
}

func TestSolutionNotFound(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.SolutionByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/solutions/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d", rr.Code)
	}
}

func TestValidateOptimizeRequest(t *testing.T) {
	base := func() model.OptimizeRequest {
		return model.OptimizeRequest{
			Stops:    []model.Stop{{ID: "a"}, {ID: "b"}},
			Vehicles: []model.Vehicle{{ID: "v1", Capacity: 1}},
		}
	}

	req := base()
	if err := validateOptimizeRequest(&req); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	req = base()
	req.Stops[1].ID = "a"
	if err := validateOptimizeRequest(&req); err == nil {
		t.Fatal("duplicate stop id accepted")
	}

	req = base()
	req.Vehicles[0].ID = ""
	if err := validateOptimizeRequest(&req); err == nil {
		t.Fatal("missing vehicle id accepted")
	}

	req = base()
	req.Constraints = &model.Constraints{TimeBudgetSec: -1}
	if err := validateOptimizeRequest(&req); err == nil {
		t.Fatal("negative budget accepted")
	}
}
