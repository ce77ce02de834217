package model

// Core domain types shared by the API surface and the solver.

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TimeWindow bounds the allowed arrival time at a stop, RFC3339.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Stop is a single demand point to be visited exactly once.
type Stop struct {
	ID             string      `json:"id"`
	Location       GeoPoint    `json:"location"`
	Demand         float64     `json:"demand"`
	TimeWindow     *TimeWindow `json:"timeWindow,omitempty"`
	ServiceTimeSec int         `json:"serviceTimeSec,omitempty"`
	Priority       int         `json:"priority,omitempty"`
}

// Vehicle is an interchangeable capacity resource, created fresh per
// optimization call. SpeedKph overrides provider travel times when set.
type Vehicle struct {
	ID          string  `json:"id"`
	Capacity    float64 `json:"capacity"`
	SpeedKph    float64 `json:"speedKph,omitempty"`
	CostPerKm   float64 `json:"costPerKm,omitempty"`
	CostPerHour float64 `json:"costPerHour,omitempty"`
}

// Constraints tunes a single optimize call.
type Constraints struct {
	TimeBudgetSec int    `json:"timeBudgetSec,omitempty"`
	DistanceMode  string `json:"distanceMode,omitempty"` // estimate | mapping
	Seed          int64  `json:"seed,omitempty"`
}

// OptimizeRequest is the input of POST /v1/optimize.
type OptimizeRequest struct {
	Depot       GeoPoint     `json:"depot"`
	DepartAt    string       `json:"departAt,omitempty"`
	Stops       []Stop       `json:"stops"`
	Vehicles    []Vehicle    `json:"vehicles"`
	Constraints *Constraints `json:"constraints,omitempty"`
}

// RouteStop is one visit on a planned route.
type RouteStop struct {
	StopID         string  `json:"stopId"`
	ArrivalTime    string  `json:"arrivalTime"`
	CumulativeLoad float64 `json:"cumulativeLoad"`
}

// Route is the ordered plan for one vehicle. It begins and ends at the
// depot; the depot itself is not listed among Stops.
type Route struct {
	VehicleID   string      `json:"vehicleId"`
	Stops       []RouteStop `json:"stops"`
	DistanceM   float64     `json:"distanceM"`
	DurationSec float64     `json:"durationSec"`
	Cost        float64     `json:"cost"`
	Polyline    []GeoPoint  `json:"polyline,omitempty"`
}

// SolutionTotals aggregates route metrics across the whole solution.
type SolutionTotals struct {
	DistanceM   float64 `json:"distanceM"`
	DurationSec float64 `json:"durationSec"`
	Cost        float64 `json:"cost"`
}

// Solve outcome statuses.
const (
	StatusSolved     = "solved"
	StatusTimeout    = "timeout"
	StatusInfeasible = "infeasible"
)

// Solution is the result of one optimize call. Every input stop appears
// either on exactly one route or in UnservedStopIDs.
type Solution struct {
	ID                 string         `json:"id"`
	Status             string         `json:"status"`
	Routes             []Route        `json:"routes"`
	Totals             SolutionTotals `json:"totals"`
	UnservedStopIDs    []string       `json:"unservedStopIds"`
	SolvedToOptimality bool           `json:"solvedToOptimality"`
	Degraded           bool           `json:"degraded"`
	CreatedAt          string         `json:"createdAt,omitempty"`
}
