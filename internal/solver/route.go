package solver

import (
	"math"
	"sort"
	"strings"

	"routesolve/internal/model"
)

// AvgSpeedKmh converts route distance to duration throughout the solver.
// A fixed design constant, not configuration.
const AvgSpeedKmh = 40.0

// newStop denormalizes a location into a stop record.
func newStop(l model.Location, order int) model.Stop {
	return model.Stop{
		LocationID: l.ID,
		Name:       l.Name,
		Latitude:   l.Latitude,
		Longitude:  l.Longitude,
		Demand:     l.Demand,
		Order:      order,
	}
}

// newRoute builds depot -> customers... -> depot with metrics computed.
func newRoute(m *Matrix, depot model.Location, customers ...model.Location) model.Route {
	stops := make([]model.Stop, 0, len(customers)+2)
	stops = append(stops, newStop(depot, 0))
	for i, c := range customers {
		stops = append(stops, newStop(c, i+1))
	}
	stops = append(stops, newStop(depot, len(stops)))
	r := model.Route{Stops: stops}
	RecomputeRouteMetrics(m, &r)
	return r
}

// renumber rewrites Stop.Order to match slice positions.
func renumber(r *model.Route) {
	for i := range r.Stops {
		r.Stops[i].Order = i
	}
}

// RecomputeRouteMetrics walks the stop sequence pairwise and refreshes
// distance, duration and total demand. Idempotent; must be called after any
// structural change before the route is exposed.
func RecomputeRouteMetrics(m *Matrix, r *model.Route) {
	dist := 0.0
	demand := 0
	for i := 0; i+1 < len(r.Stops); i++ {
		dist += m.StopDist(r.Stops[i], r.Stops[i+1])
	}
	for i, s := range r.Stops {
		if i == 0 || i == len(r.Stops)-1 {
			continue
		}
		demand += s.Demand
	}
	r.Distance = dist
	r.Duration = DurationMinutes(dist)
	r.TotalCapacity = demand
}

// DurationMinutes converts a distance in km to minutes at AvgSpeedKmh.
func DurationMinutes(distanceKm float64) int {
	return int(math.Round(distanceKm / AvgSpeedKmh * 60))
}

// routeDemand sums interior demand without touching cached metrics.
func routeDemand(r *model.Route) int {
	total := 0
	for _, s := range r.Interior() {
		total += s.Demand
	}
	return total
}

// totalDistance sums cached route distances.
func totalDistance(routes []model.Route) float64 {
	total := 0.0
	for i := range routes {
		total += routes[i].Distance
	}
	return total
}

// servedIDs collects the distinct non-depot location ids across routes.
func servedIDs(routes []model.Route, depotID string) map[string]struct{} {
	seen := map[string]struct{}{}
	for i := range routes {
		for _, s := range routes[i].Interior() {
			if s.LocationID == depotID {
				continue
			}
			seen[s.LocationID] = struct{}{}
		}
	}
	return seen
}

// SolutionKey canonicalizes a route set: each route's stop ids joined with
// "-", the strings sorted, then joined with "|". Tabu search memoizes
// visited neighborhoods under this key.
func SolutionKey(routes []model.Route) string {
	parts := make([]string, 0, len(routes))
	for i := range routes {
		ids := make([]string, len(routes[i].Stops))
		for j, s := range routes[i].Stops {
			ids[j] = s.LocationID
		}
		parts = append(parts, strings.Join(ids, "-"))
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// clampInt bounds derived iteration parameters.
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// cloneRoutes deep-copies a working solution so metaheuristics can snapshot
// and restore freely.
func cloneRoutes(routes []model.Route) []model.Route {
	out := make([]model.Route, len(routes))
	for i := range routes {
		out[i] = routes[i]
		out[i].Stops = append([]model.Stop(nil), routes[i].Stops...)
	}
	return out
}
