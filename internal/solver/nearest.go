package solver

import (
	"math"
	"sort"

	"routesolve/internal/geo"
	"routesolve/internal/model"
)

// NearestNeighbor fills each vehicle slot greedily: starting from the
// depot, repeatedly drive to the closest unvisited customer whose demand
// still fits the slot's remaining capacity. Customers left over after the
// slot pass get singleton routes on the first slot that can carry them.
func NearestNeighbor(in *Instance) []model.Route {
	m := in.Matrix
	visited := make(map[string]bool, len(in.Customers))
	slots := expandSlots(in.Vehicles)

	var routes []model.Route
	for _, sl := range slots {
		remaining := sl.Capacity
		current := in.Depot
		var picked []model.Location

		for {
			best := -1
			bestDist := math.MaxFloat64
			for i, c := range in.Customers {
				if visited[c.ID] || c.Demand > remaining {
					continue
				}
				if d := m.Dist(current.ID, c.ID); d < bestDist {
					bestDist = d
					best = i
				}
			}
			if best < 0 {
				break
			}
			next := in.Customers[best]
			visited[next.ID] = true
			remaining -= next.Demand
			picked = append(picked, next)
			current = next
		}

		if len(picked) == 0 {
			continue
		}
		r := newRoute(m, in.Depot, picked...)
		sl.Used = true
		sl.CurrentLoad = sl.Capacity - remaining
		bindSlot(&r, sl)
		routes = append(routes, r)
	}

	// Anything still unvisited gets its own round-trip on the first slot
	// big enough for it.
	for _, c := range in.Customers {
		if visited[c.ID] {
			continue
		}
		for _, sl := range slots {
			if c.Demand > sl.Capacity {
				continue
			}
			r := newRoute(m, in.Depot, c)
			bindSlot(&r, sl)
			routes = append(routes, r)
			visited[c.ID] = true
			break
		}
	}

	return routes
}

// bindSlot records a slot identity on a route.
func bindSlot(r *model.Route, sl *slot) {
	id := sl.ID
	r.Vehicle = &id
	r.VehicleName = sl.Name
}

// Sweep orders customers by polar angle around the depot and packs them
// into vehicle slots in that order, advancing to the next slot whenever the
// current one runs out of capacity. No local search follows; Sweep is a
// building block and is deliberately absent from the comparison registry.
func Sweep(in *Instance) []model.Route {
	m := in.Matrix
	ordered := sortByPolarAngle(in)
	slots := expandSlots(in.Vehicles)

	var routes []model.Route
	si := 0
	var picked []model.Location
	load := 0

	flush := func() {
		if len(picked) == 0 {
			return
		}
		r := newRoute(m, in.Depot, picked...)
		if si < len(slots) {
			slots[si].Used = true
			slots[si].CurrentLoad = load
			bindSlot(&r, slots[si])
		}
		routes = append(routes, r)
		picked = nil
		load = 0
	}

	for _, c := range ordered {
		if si >= len(slots) {
			break
		}
		if load+c.Demand > slots[si].Capacity {
			flush()
			si++
			if si >= len(slots) {
				break
			}
		}
		picked = append(picked, c)
		load += c.Demand
	}
	flush()

	return routes
}

// sortByPolarAngle returns customers ordered by bearing from the depot.
func sortByPolarAngle(in *Instance) []model.Location {
	out := append([]model.Location(nil), in.Customers...)
	depot := in.Depot
	sort.SliceStable(out, func(a, b int) bool {
		ta := geo.PolarAngle(depot.Latitude, depot.Longitude, out[a].Latitude, out[a].Longitude)
		tb := geo.PolarAngle(depot.Latitude, depot.Longitude, out[b].Latitude, out[b].Longitude)
		return ta < tb
	})
	return out
}
