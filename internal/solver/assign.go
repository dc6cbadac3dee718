package solver

import (
	"log"
	"sort"

	"routesolve/internal/model"
)

// UnassignedVehicleName marks routes no slot could carry.
const UnassignedVehicleName = "Unassigned — Insufficient Capacity"

// kernelFunc is the per-algorithm local-search polish re-applied after
// assignment.
type kernelFunc func(*Matrix, []model.Route)

// AssignVehicles binds physical vehicle slots to constructed routes and
// repairs what does not fit: overloaded leftovers are packed into slots
// with slack, split across fresh slots, or finally marked
// capacityExceeded. polish may be nil.
func AssignVehicles(in *Instance, routes []model.Route, polish kernelFunc) []model.Route {
	m := in.Matrix
	work := cloneRoutes(routes)
	slots := expandSlots(in.Vehicles)
	slotByID := make(map[string]*slot, len(slots))
	for _, sl := range slots {
		slotByID[sl.ID] = sl
	}

	for i := range work {
		RecomputeRouteMetrics(m, &work[i])
		work[i].CapacityExceeded = false
	}

	// Constructor bindings survive when the slot exists, is free, and fits.
	for i := range work {
		r := &work[i]
		if r.Vehicle == nil {
			continue
		}
		sl, ok := slotByID[*r.Vehicle]
		if ok && !sl.Used && sl.Capacity >= r.TotalCapacity {
			sl.Used = true
			sl.CurrentLoad = r.TotalCapacity
		} else {
			r.Vehicle = nil
			r.VehicleName = ""
		}
	}

	// Strict assignment: heaviest routes first, each taking the unused slot
	// that leaves the least slack.
	order := make([]int, 0, len(work))
	for i := range work {
		if work[i].Vehicle == nil {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return work[order[a]].TotalCapacity > work[order[b]].TotalCapacity
	})
	for _, i := range order {
		r := &work[i]
		if sl := bestFit(slots, r.TotalCapacity); sl != nil {
			sl.Used = true
			sl.CurrentLoad += r.TotalCapacity
			bindSlot(r, sl)
		}
	}

	assignedBySlot := make(map[string]int, len(work)) // slot id -> work index
	var out []model.Route
	var leftovers []model.Route
	for i := range work {
		if work[i].Vehicle != nil {
			assignedBySlot[*work[i].Vehicle] = len(out)
			out = append(out, work[i])
		} else {
			leftovers = append(leftovers, work[i])
		}
	}

	var still []model.Route
	for _, r := range leftovers {
		if !packIntoUsedSlot(m, slots, assignedBySlot, out, r) {
			still = append(still, r)
		}
	}

	for _, r := range still {
		if len(r.Interior()) > 1 {
			out = append(out, splitAcrossSlots(in, slots, r)...)
			continue
		}
		// Singleton: any unused slot that fits, else reported infeasible.
		if sl := bestFit(slots, r.TotalCapacity); sl != nil {
			sl.Used = true
			sl.CurrentLoad += r.TotalCapacity
			bindSlot(&r, sl)
		} else {
			r.Vehicle = nil
			r.VehicleName = UnassignedVehicleName
			r.CapacityExceeded = true
		}
		out = append(out, r)
	}

	for i := range out {
		RecomputeRouteMetrics(m, &out[i])
	}
	if polish != nil {
		polish(m, out)
	}
	return out
}

// bestFit picks the unused slot with capacity >= demand that minimizes the
// slack left after insertion.
func bestFit(slots []*slot, demand int) *slot {
	var best *slot
	bestSlack := -1
	for _, sl := range slots {
		if sl.Used || sl.Capacity < demand {
			continue
		}
		slack := sl.Capacity - (sl.CurrentLoad + demand)
		if best == nil || slack < bestSlack {
			best = sl
			bestSlack = slack
		}
	}
	return best
}

// packIntoUsedSlot merges an unassigned route into an already-used slot
// with enough remaining capacity: the interior stops slide in before the
// target route's trailing depot.
func packIntoUsedSlot(m *Matrix, slots []*slot, assignedBySlot map[string]int, out []model.Route, r model.Route) bool {
	demand := r.TotalCapacity
	for _, sl := range slots {
		if !sl.Used || sl.Capacity-sl.CurrentLoad < demand {
			continue
		}
		ti, ok := assignedBySlot[sl.ID]
		if !ok {
			continue
		}
		target := &out[ti]
		tail := target.Stops[len(target.Stops)-1]
		stops := append(target.Stops[:len(target.Stops)-1], r.Interior()...)
		stops = append(stops, tail)
		target.Stops = stops
		renumber(target)
		RecomputeRouteMetrics(m, target)
		sl.CurrentLoad += demand
		return true
	}
	return false
}

// splitAcrossSlots walks a large route's interior left to right, closing
// the current slot with a depot stop whenever the next customer would
// overflow it and claiming a fresh slot for the remainder. Customers no
// slot can carry are logged and skipped.
func splitAcrossSlots(in *Instance, slots []*slot, r model.Route) []model.Route {
	m := in.Matrix
	depotHead := r.Stops[0]
	depotTail := r.Stops[len(r.Stops)-1]

	var pieces []model.Route
	var current *slot
	var stops []model.Stop
	load := 0

	emit := func() {
		if current == nil || len(stops) == 0 {
			return
		}
		piece := model.Route{Stops: append([]model.Stop{depotHead}, append(stops, depotTail)...)}
		renumber(&piece)
		RecomputeRouteMetrics(m, &piece)
		bindSlot(&piece, current)
		current.Used = true
		current.CurrentLoad += load
		pieces = append(pieces, piece)
		stops = nil
		load = 0
	}

	for _, s := range r.Interior() {
		if current == nil || load+s.Demand > current.Capacity {
			emit()
			current = bestFit(slots, s.Demand)
			if current == nil {
				log.Printf("solver: no vehicle slot admits stop %s (demand %d), skipping", s.LocationID, s.Demand)
				continue
			}
		}
		stops = append(stops, s)
		load += s.Demand
	}
	emit()
	return pieces
}
