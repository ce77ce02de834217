package solver

import (
	"math"
	"time"

	"fleetroute/internal/matrix"
	"fleetroute/internal/model"
)

// routingModel is the constraint graph for one optimize call: travel
// costs over depot + stops, per-node demand/service/window data and the
// vehicle fleet. Node 0 is the depot; node k (k>=1) is Stops[k-1].
// The model is rebuilt from scratch every call and never shared.
type routingModel struct {
	mat      *matrix.Matrix
	stops    []model.Stop
	vehicles []model.Vehicle

	demand   []float64 // per node, demand[0]=0
	service  []float64 // seconds, service[0]=0
	winStart []float64 // seconds from departAt
	winEnd   []float64 // +Inf when the stop has no window

	departAt time.Time
}

func buildModel(stops []model.Stop, vehicles []model.Vehicle, mat *matrix.Matrix, departAt time.Time) (*routingModel, error) {
	n := len(stops) + 1
	m := &routingModel{
		mat:      mat,
		stops:    stops,
		vehicles: vehicles,
		demand:   make([]float64, n),
		service:  make([]float64, n),
		winStart: make([]float64, n),
		winEnd:   make([]float64, n),
		departAt: departAt,
	}
	// Depot: zero demand and service, window spanning the whole horizon.
	m.winEnd[0] = math.Inf(1)

	for i, st := range stops {
		node := i + 1
		if st.Demand < 0 {
			return nil, model.NewValidationError(model.CodeNegativeDemand, "stop %s demand %v is negative", st.ID, st.Demand)
		}
		m.demand[node] = st.Demand
		m.service[node] = float64(st.ServiceTimeSec)
		m.winEnd[node] = math.Inf(1)
		if st.TimeWindow == nil {
			continue
		}
		ws, err := time.Parse(time.RFC3339, st.TimeWindow.Start)
		if err != nil {
			return nil, model.NewValidationError(model.CodeInvalidTimeWindow, "stop %s window start: %v", st.ID, err)
		}
		we, err := time.Parse(time.RFC3339, st.TimeWindow.End)
		if err != nil {
			return nil, model.NewValidationError(model.CodeInvalidTimeWindow, "stop %s window end: %v", st.ID, err)
		}
		if we.Before(ws) {
			return nil, model.NewValidationError(model.CodeInvalidTimeWindow, "stop %s window end precedes start", st.ID)
		}
		m.winStart[node] = ws.Sub(departAt).Seconds()
		m.winEnd[node] = we.Sub(departAt).Seconds()
	}
	return m, nil
}

func (m *routingModel) size() int { return m.mat.Size() }

func (m *routingModel) dist(i, j int) float64 { return m.mat.At(i, j).DistanceM }

// travelSec is the edge traversal time for a vehicle. A vehicle with an
// explicit speed derives time from distance; otherwise the provider's
// duration estimate is used.
func (m *routingModel) travelSec(v model.Vehicle, i, j int) float64 {
	if v.SpeedKph > 0 {
		return m.mat.At(i, j).DistanceM / (v.SpeedKph / 3.6)
	}
	return m.mat.At(i, j).DurationSec
}

// load sums the demand on a route order.
func (m *routingModel) load(order []int) float64 {
	total := 0.0
	for _, node := range order {
		total += m.demand[node]
	}
	return total
}

// schedule propagates the time dimension along a route for vehicle vi,
// waiting at early arrivals and failing on any missed window. It returns
// total distance (with the return leg), total elapsed seconds and the
// arrival time of each visit in seconds from departure.
func (m *routingModel) schedule(vi int, order []int) (distM, durSec float64, arrivals []float64, ok bool) {
	v := m.vehicles[vi]
	arrivals = make([]float64, len(order))
	t := 0.0
	prev := 0
	for k, node := range order {
		distM += m.dist(prev, node)
		t += m.travelSec(v, prev, node)
		if t < m.winStart[node] {
			t = m.winStart[node]
		}
		if t > m.winEnd[node] {
			return 0, 0, nil, false
		}
		arrivals[k] = t
		t += m.service[node]
		prev = node
	}
	distM += m.dist(prev, 0)
	t += m.travelSec(v, prev, 0)
	return distM, t, arrivals, true
}

// feasible checks both dimensions for a candidate route order.
func (m *routingModel) feasible(vi int, order []int) bool {
	if m.load(order) > m.vehicles[vi].Capacity {
		return false
	}
	_, _, _, ok := m.schedule(vi, order)
	return ok
}

// routeDist is the distance of a route order including both depot legs.
func (m *routingModel) routeDist(order []int) float64 {
	if len(order) == 0 {
		return 0
	}
	total := m.dist(0, order[0])
	for k := 1; k < len(order); k++ {
		total += m.dist(order[k-1], order[k])
	}
	return total + m.dist(order[len(order)-1], 0)
}
