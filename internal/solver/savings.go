package solver

import (
	"math"
	"sort"

	"routesolve/internal/geo"
	"routesolve/internal/model"
)

// Clarke-Wright savings construction, basic and enhanced. Both start from
// one round-trip per customer and merge route endpoints in descending
// savings order under the fleet's max single-vehicle capacity.

type saving struct {
	i, j  string  // location ids, i < j in customer order
	value float64 // sort key (basic saving or enhanced score)
}

// savingsFactors are the multiplicative enrichments of the enhanced score.
// timeCompatibility is constant 1 today; the field stays so tuning
// extensions have somewhere to land.
type savingsFactors struct {
	angularContinuity  float64
	capacityCompat     float64
	urgency            float64
	distanceEfficiency float64
	timeCompatibility  float64
}

func (f savingsFactors) product() float64 {
	return f.angularContinuity * f.capacityCompat * f.urgency * f.distanceEfficiency * f.timeCompatibility
}

// ClarkeWright builds routes with the classic savings heuristic, then
// polishes each route with 2-opt, one 3-opt pass, and 2-opt again.
func ClarkeWright(in *Instance) []model.Route {
	routes := savingsConstruct(in, basicSavings(in))
	basicKernel(in.Matrix, routes)
	return routes
}

// EnhancedClarkeWright scores savings with angular, capacity, urgency and
// distance factors before merging, then runs the enhanced local search.
func EnhancedClarkeWright(in *Instance) []model.Route {
	routes := savingsConstruct(in, enhancedSavings(in))
	enhancedKernel(in.Matrix, routes)
	return routes
}

func basicSavings(in *Instance) []saving {
	m := in.Matrix
	depot := in.Depot.ID
	var out []saving
	for i := 0; i < len(in.Customers); i++ {
		for j := i + 1; j < len(in.Customers); j++ {
			a, b := in.Customers[i], in.Customers[j]
			s := m.Dist(depot, a.ID) + m.Dist(depot, b.ID) - m.Dist(a.ID, b.ID)
			out = append(out, saving{i: a.ID, j: b.ID, value: s})
		}
	}
	return out
}

func enhancedSavings(in *Instance) []saving {
	m := in.Matrix
	depot := in.Depot
	maxCap := in.MaxCapacity()

	angle := make(map[string]float64, len(in.Customers))
	for _, c := range in.Customers {
		angle[c.ID] = geo.PolarAngle(depot.Latitude, depot.Longitude, c.Latitude, c.Longitude)
	}

	var out []saving
	for i := 0; i < len(in.Customers); i++ {
		for j := i + 1; j < len(in.Customers); j++ {
			a, b := in.Customers[i], in.Customers[j]
			basic := m.Dist(depot.ID, a.ID) + m.Dist(depot.ID, b.ID) - m.Dist(a.ID, b.ID)

			combined := a.Demand + b.Demand
			f := savingsFactors{timeCompatibility: 1}

			angularBonus := geo.AngularSeparation(angle[a.ID], angle[b.ID]) / math.Pi
			f.angularContinuity = 1 + 0.15*angularBonus

			if combined <= maxCap {
				f.capacityCompat = 1
			} else {
				f.capacityCompat = math.Max(0.1, float64(maxCap)/float64(combined))
			}

			f.urgency = math.Min(1.2, 1+float64(combined)/float64(maxCap)*0.2)
			f.distanceEfficiency = math.Max(0.8, 1-m.Dist(a.ID, b.ID)/50)

			out = append(out, saving{i: a.ID, j: b.ID, value: basic * f.product()})
		}
	}
	return out
}

// savingsConstruct runs the shared merge phase: singleton routes, endpoint
// merges in descending score order, then demand-sorted merging while the
// route count still exceeds the fleet's slot count.
func savingsConstruct(in *Instance, savings []saving) []model.Route {
	m := in.Matrix
	maxCap := in.MaxCapacity()

	routes := make([]model.Route, 0, len(in.Customers))
	routeOf := make(map[string]int, len(in.Customers)) // location id -> routes index
	for _, c := range in.Customers {
		routes = append(routes, newRoute(m, in.Depot, c))
		routeOf[c.ID] = len(routes) - 1
	}

	sort.SliceStable(savings, func(a, b int) bool { return savings[a].value > savings[b].value })

	for _, s := range savings {
		r1, r2 := routeOf[s.i], routeOf[s.j]
		if r1 == r2 {
			continue
		}
		// A merge is only valid endpoint-to-endpoint: one location at its
		// route's end (index len-2), the other at the start (index 1).
		switch {
		case atEnd(&routes[r1], s.i) && atStart(&routes[r2], s.j):
			mergeRoutes(in, routes, routeOf, r1, r2, maxCap)
		case atEnd(&routes[r2], s.j) && atStart(&routes[r1], s.i):
			mergeRoutes(in, routes, routeOf, r2, r1, maxCap)
		}
	}

	routes = compactRoutes(routes, routeOf)
	routes = mergeUnderSlotPressure(in, routes, maxCap)
	return routes
}

func atStart(r *model.Route, id string) bool {
	return len(r.Stops) >= 3 && r.Stops[1].LocationID == id
}

func atEnd(r *model.Route, id string) bool {
	return len(r.Stops) >= 3 && r.Stops[len(r.Stops)-2].LocationID == id
}

// mergeRoutes appends r2's interior after r1's, if capacity allows. r2 is
// emptied in place and compacted out later.
func mergeRoutes(in *Instance, routes []model.Route, routeOf map[string]int, r1, r2 int, maxCap int) {
	if routeDemand(&routes[r1])+routeDemand(&routes[r2]) > maxCap {
		return
	}
	head := routes[r1].Stops[:len(routes[r1].Stops)-1] // drop trailing depot
	tail := routes[r2].Stops[1:]                       // drop leading depot
	merged := make([]model.Stop, 0, len(head)+len(tail))
	merged = append(merged, head...)
	merged = append(merged, tail...)
	routes[r1].Stops = merged
	renumber(&routes[r1])
	RecomputeRouteMetrics(in.Matrix, &routes[r1])

	for _, s := range routes[r2].Interior() {
		routeOf[s.LocationID] = r1
	}
	routes[r2].Stops = nil
}

// compactRoutes drops emptied routes and fixes the id index.
func compactRoutes(routes []model.Route, routeOf map[string]int) []model.Route {
	out := routes[:0]
	for i := range routes {
		if len(routes[i].Stops) == 0 {
			continue
		}
		out = append(out, routes[i])
		for _, s := range routes[i].Interior() {
			routeOf[s.LocationID] = len(out) - 1
		}
	}
	return out
}

// mergeUnderSlotPressure keeps endpoint-merging the smallest-demand route
// pair while there are more routes than physical vehicles. Bounded at 1000
// passes; stops early once a full pass merges nothing.
func mergeUnderSlotPressure(in *Instance, routes []model.Route, maxCap int) []model.Route {
	totalSlots := in.TotalSlots()
	for pass := 0; pass < 1000 && len(routes) > totalSlots; pass++ {
		sort.SliceStable(routes, func(a, b int) bool {
			return routeDemand(&routes[a]) < routeDemand(&routes[b])
		})
		merged := false
		for a := 0; a < len(routes) && !merged; a++ {
			for b := a + 1; b < len(routes) && !merged; b++ {
				if routeDemand(&routes[a])+routeDemand(&routes[b]) > maxCap {
					continue
				}
				head := routes[a].Stops[:len(routes[a].Stops)-1]
				tail := routes[b].Stops[1:]
				stops := make([]model.Stop, 0, len(head)+len(tail))
				stops = append(stops, head...)
				stops = append(stops, tail...)
				routes[a].Stops = stops
				renumber(&routes[a])
				RecomputeRouteMetrics(in.Matrix, &routes[a])
				routes = append(routes[:b], routes[b+1:]...)
				merged = true
			}
		}
		if !merged {
			break
		}
	}
	return routes
}
