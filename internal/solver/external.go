package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"routesolve/internal/model"
)

// externalTimeout bounds one remote solve round-trip.
const externalTimeout = 30 * time.Second

// ExternalSolver calls the remote OR-Tools CVRP service. Every failure mode
// collapses to ErrExternalSolver; the engine then falls back to Enhanced
// Clarke-Wright, so callers never see this adapter fail.
type ExternalSolver struct {
	URL     string
	Client  *http.Client
	Limiter *rate.Limiter
}

// NewExternalSolver builds an adapter for the given endpoint. The limiter
// keeps a burst of compare runs from hammering the shared remote service.
func NewExternalSolver(url string) *ExternalSolver {
	return &ExternalSolver{
		URL:     url,
		Client:  &http.Client{Timeout: externalTimeout},
		Limiter: rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

// Request/response shapes of the remote service. Field names match its
// API verbatim.
type externalLocation struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type externalVehicle struct {
	ID              string  `json:"id"`
	Capacity        int     `json:"capacity"`
	FuelCostPerKm   float64 `json:"fuel_cost_per_km"`
	DriverCostPerKm float64 `json:"driver_cost_per_km"`
	Type            string  `json:"type"`
}

type externalRequest struct {
	Locations        []externalLocation `json:"locations"`
	Vehicles         []externalVehicle  `json:"vehicles"`
	Demands          []int              `json:"demands"`
	IncludeGeometry  bool               `json:"include_geometry"`
	TimeLimitSeconds int                `json:"time_limit_seconds"`
}

type externalRouteResult struct {
	VehicleID    string  `json:"Vehicle ID"`
	RouteIndices []int   `json:"Route Indices"`
	DistanceKm   float64 `json:"Distance (km)"`
	LoadCarried  int     `json:"Load Carried"`
}

type externalResponse struct {
	Result []externalRouteResult `json:"result"`
}

// Solve posts the instance (depot first, demand 0) and decodes the
// per-vehicle index routes back into native routes.
func (e *ExternalSolver) Solve(ctx context.Context, in *Instance) ([]model.Route, error) {
	if e == nil || e.URL == "" {
		return nil, fmt.Errorf("%w: no endpoint configured", ErrExternalSolver)
	}
	ctx, cancel := context.WithTimeout(ctx, externalTimeout)
	defer cancel()
	if err := e.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalSolver, err)
	}

	ordered := append([]model.Location{in.Depot}, in.Customers...)
	req := externalRequest{
		IncludeGeometry:  false,
		TimeLimitSeconds: 15,
	}
	for _, l := range ordered {
		req.Locations = append(req.Locations, externalLocation{Name: l.Name, Latitude: l.Latitude, Longitude: l.Longitude})
		if l.IsDepot {
			req.Demands = append(req.Demands, 0)
		} else {
			req.Demands = append(req.Demands, l.Demand)
		}
	}
	for _, sl := range expandSlots(in.Vehicles) {
		req.Vehicles = append(req.Vehicles, externalVehicle{ID: sl.ID, Capacity: sl.Capacity, Type: sl.Name})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrExternalSolver, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalSolver, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalSolver, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrExternalSolver, resp.StatusCode)
	}

	var decoded externalResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrExternalSolver, err)
	}
	if len(decoded.Result) == 0 {
		return nil, fmt.Errorf("%w: empty result", ErrExternalSolver)
	}

	slotName := map[string]string{}
	for _, sl := range expandSlots(in.Vehicles) {
		slotName[sl.ID] = sl.Name
	}

	var routes []model.Route
	for _, rr := range decoded.Result {
		var customers []model.Location
		for _, idx := range rr.RouteIndices {
			if idx <= 0 || idx >= len(ordered) {
				continue // depot sentinel or out-of-range index
			}
			customers = append(customers, ordered[idx])
		}
		if len(customers) == 0 {
			continue
		}
		r := newRoute(in.Matrix, in.Depot, customers...)
		if rr.VehicleID != "" {
			id := rr.VehicleID
			r.Vehicle = &id
			r.VehicleName = slotName[id]
		}
		routes = append(routes, r)
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("%w: no usable routes in result", ErrExternalSolver)
	}
	return routes, nil
}
