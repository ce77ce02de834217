package solver

import (
	"sort"
	"time"

	"fleetroute/internal/model"
)

// extract turns a node-level plan back into the wire-level solution
// shape: per-vehicle routes with arrival times and cumulative loads,
// fleet totals and the sorted list of unserved stop IDs. Empty routes
// are kept so every vehicle in the request shows up in the result.
func extract(m *routingModel, p *plan, depot model.GeoPoint) ([]model.Route, model.SolutionTotals, []string) {
	routes := make([]model.Route, len(m.vehicles))
	var totals model.SolutionTotals

	for vi, v := range m.vehicles {
		order := p.orders[vi]
		r := model.Route{VehicleID: v.ID, Stops: []model.RouteStop{}}
		if len(order) > 0 {
			distM, durSec, arrivals, ok := m.schedule(vi, order)
			if !ok {
				// The search only commits feasible orders; an infeasible
				// one here is a programming error, not bad input.
				panic("solver: committed route failed scheduling")
			}
			r.DistanceM = distM
			r.DurationSec = durSec
			r.Polyline = make([]model.GeoPoint, 0, len(order)+2)
			r.Polyline = append(r.Polyline, depot)
			load := 0.0
			for k, node := range order {
				st := m.stops[node-1]
				load += m.demand[node]
				r.Stops = append(r.Stops, model.RouteStop{
					StopID:         st.ID,
					ArrivalTime:    m.departAt.Add(time.Duration(arrivals[k] * float64(time.Second))).Format(time.RFC3339),
					CumulativeLoad: load,
				})
				r.Polyline = append(r.Polyline, st.Location)
			}
			r.Polyline = append(r.Polyline, depot)
		}
		r.Cost = routeCost(v, r.DistanceM, r.DurationSec)
		totals.DistanceM += r.DistanceM
		totals.DurationSec += r.DurationSec
		totals.Cost += r.Cost
		routes[vi] = r
	}

	unserved := make([]string, 0, len(p.unserved))
	for _, node := range p.unserved {
		unserved = append(unserved, m.stops[node-1].ID)
	}
	sort.Strings(unserved)
	return routes, totals, unserved
}

// routeCost prices a route with the vehicle's tariff. The search
// minimizes distance; tariffs only price the final plan.
func routeCost(v model.Vehicle, distM, durSec float64) float64 {
	return distM/1000*v.CostPerKm + durSec/3600*v.CostPerHour
}
