package model

// Core domain types. The JSON field names on Route, Stop and AlgorithmResult
// are load-bearing: exports and comparison views bind to them.

// Location is one point of a problem instance. Exactly one location per
// instance carries IsDepot; a depot's demand counts as zero everywhere.
type Location struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Demand    int     `json:"demand"`
	IsDepot   bool    `json:"isDepot,omitempty"`
}

// VehicleType describes one class of vehicle. At solve time a type expands
// into Count indistinguishable slots.
type VehicleType struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Count    int    `json:"count"`
}

// Stop denormalizes its location so the savings and metaheuristic inner
// loops never chase back into the locations table.
type Stop struct {
	LocationID string  `json:"locationId"`
	Name       string  `json:"name"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Demand     int     `json:"demand"`
	Order      int     `json:"order"`
}

// Route is a depot-rooted stop sequence. Stops[0] and Stops[len-1] are both
// the depot. Vehicle is nil until a slot is bound (by a slot-aware
// constructor or by the assigner), and stays nil on routes no slot could
// carry.
type Route struct {
	ID               string  `json:"id,omitempty"`
	Stops            []Stop  `json:"stops"`
	Vehicle          *string `json:"vehicle"`
	VehicleName      string  `json:"vehicleName,omitempty"`
	Distance         float64 `json:"distance"`
	Duration         int     `json:"duration"`
	TotalCapacity    int     `json:"totalCapacity"`
	CapacityExceeded bool    `json:"capacityExceeded,omitempty"`
}

// Interior returns the stops strictly between the two depot sentinels.
func (r *Route) Interior() []Stop {
	if len(r.Stops) < 2 {
		return nil
	}
	return r.Stops[1 : len(r.Stops)-1]
}

// AlgorithmResult is one algorithm's solution plus comparable quality
// metrics. Error is set when the algorithm failed; its metrics are then
// zeroed and the comparison driver skips it for winner selection.
type AlgorithmResult struct {
	Algorithm          string  `json:"algorithm"`
	Routes             []Route `json:"routes"`
	TotalDistance      float64 `json:"totalDistance"`
	TotalDuration      int     `json:"totalDuration"`
	ExecutionTimeMs    int64   `json:"executionTimeMs"`
	LocationsServed    int     `json:"locationsServed"`
	CoveragePercent    float64 `json:"coveragePercent"`
	TotalFleetCapacity int     `json:"totalFleetCapacity"`
	VehicleUtilization float64 `json:"vehicleUtilization"`
	RoutesCount        int     `json:"routesCount"`
	AvgRouteDistance   float64 `json:"avgRouteDistance"`
	AvgRouteDuration   float64 `json:"avgRouteDuration"`
	Error              string  `json:"error,omitempty"`
}

// SolveResult is the envelope returned to callers and persisted by the
// store. In compare mode AlgorithmResults holds one entry per registry
// algorithm and SelectedAlgorithm names the winner.
type SolveResult struct {
	ID                string            `json:"id,omitempty"`
	SelectedAlgorithm string            `json:"selectedAlgorithm"`
	Routes            []Route           `json:"routes"`
	TotalDistance     float64           `json:"totalDistance"`
	TotalDuration     int               `json:"totalDuration"`
	AlgorithmResults  []AlgorithmResult `json:"algorithmResults,omitempty"`
	ComparisonRun     bool              `json:"comparisonRun"`
	CreatedAt         string            `json:"createdAt,omitempty"`
}

// SolveRequest is the HTTP request body for POST /v1/solve.
type SolveRequest struct {
	Locations []Location    `json:"locations"`
	Vehicles  []VehicleType `json:"vehicles"`
	Mode      string        `json:"mode,omitempty"`      // single, compare
	Algorithm string        `json:"algorithm,omitempty"` // required for single
	Seed      int64         `json:"seed,omitempty"`
}

// SubscriptionRequest registers a webhook endpoint for solve events.
type SubscriptionRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret"`
}

// Subscription is a stored webhook registration.
type Subscription struct {
	ID     string   `json:"id"`
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret,omitempty"`
}
