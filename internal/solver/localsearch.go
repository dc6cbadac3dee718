package solver

import "routesolve/internal/model"

// Local-search kernels. All of them work on the interior of a single route
// (the slice strictly between the depot sentinels) with first-improvement
// descent, comparing distances against a 1e-9 tolerance.

const improveEps = 1e-9

// TwoOpt reverses interior segments until a full sweep finds no improving
// reversal.
func TwoOpt(m *Matrix, r *model.Route) {
	if len(r.Stops) < 5 {
		return
	}
	improved := true
	for improved {
		improved = false
		for i := 1; i <= len(r.Stops)-3; i++ {
			for k := i + 1; k <= len(r.Stops)-2; k++ {
				before := r.Distance
				reverseSegment(r.Stops, i, k)
				RecomputeRouteMetrics(m, r)
				if r.Distance < before-improveEps {
					renumber(r)
					improved = true
				} else {
					reverseSegment(r.Stops, i, k)
					r.Distance = before
				}
			}
		}
	}
	RecomputeRouteMetrics(m, r)
	renumber(r)
}

func reverseSegment(stops []model.Stop, i, k int) {
	for a, b := i, k; a < b; a, b = a+1, b-1 {
		stops[a], stops[b] = stops[b], stops[a]
	}
}

// ThreeOpt runs one pass over all interior triples. For each triple the
// best of the six reconnections is taken when it improves; after any
// accepted move 2-opt is run back to its fixed point.
func ThreeOpt(m *Matrix, r *model.Route) {
	if len(r.Stops) < 5 {
		return
	}
	interior := r.Interior()
	n := len(interior)
	for i := 0; i < n-2; i++ {
		for j := i + 1; j < n-1; j++ {
			for k := j + 1; k < n; k++ {
				if tryThreeOptMove(m, r, i, j, k) {
					TwoOpt(m, r)
					interior = r.Interior()
					n = len(interior)
				}
			}
		}
	}
	RecomputeRouteMetrics(m, r)
	renumber(r)
}

// tryThreeOptMove evaluates the reconnections of the interior split
// A|B|C|D at (i,j,k) and applies the best improving one. Indices are
// interior-relative.
func tryThreeOptMove(m *Matrix, r *model.Route, i, j, k int) bool {
	interior := append([]model.Stop(nil), r.Interior()...)
	segA := interior[:i+1]
	segB := interior[i+1 : j+1]
	segC := interior[j+1 : k+1]
	segD := interior[k+1:]
	if len(segB) == 0 || len(segC) == 0 {
		return false
	}

	base := r.Distance
	candidates := [][]model.Stop{
		concat(segA, reversed(segB), segC, segD),
		concat(segA, segB, reversed(segC), segD),
		concat(segA, segC, segB, segD),
		concat(segA, segC, reversed(segB), segD),
		concat(segA, reversed(segC), segB, segD),
		concat(segA, reversed(segB), reversed(segC), segD),
	}

	bestDist := base
	var best []model.Stop
	for _, cand := range candidates {
		d := interiorDistance(m, r.Stops[0], cand)
		if d < bestDist-improveEps {
			bestDist = d
			best = cand
		}
	}
	if best == nil {
		return false
	}
	rebuildInterior(r, best)
	RecomputeRouteMetrics(m, r)
	return true
}

// OrOpt lifts segments of length 1..3 and reinserts them at every other
// interior position, accepting the first improving relocation and sweeping
// until no segment moves.
func OrOpt(m *Matrix, r *model.Route) {
	if len(r.Stops) < 5 {
		return
	}
	improved := true
	for improved {
		improved = false
		for segLen := 1; segLen <= 3; segLen++ {
			interior := r.Interior()
			n := len(interior)
			if segLen >= n {
				continue
			}
			for i := 0; i+segLen <= n; i++ {
				if orOptRelocate(m, r, i, segLen) {
					improved = true
					break
				}
			}
			if improved {
				break
			}
		}
	}
	RecomputeRouteMetrics(m, r)
	renumber(r)
}

// orOptRelocate tries every reinsertion point for the interior segment
// [i, i+segLen) and keeps the first improving one.
func orOptRelocate(m *Matrix, r *model.Route, i, segLen int) bool {
	base := r.Distance
	interior := append([]model.Stop(nil), r.Interior()...)
	seg := append([]model.Stop(nil), interior[i:i+segLen]...)
	rest := append([]model.Stop(nil), interior[:i]...)
	rest = append(rest, interior[i+segLen:]...)

	for j := 0; j <= len(rest); j++ {
		if j == i {
			continue
		}
		cand := make([]model.Stop, 0, len(interior))
		cand = append(cand, rest[:j]...)
		cand = append(cand, seg...)
		cand = append(cand, rest[j:]...)
		if interiorDistance(m, r.Stops[0], cand) < base-improveEps {
			rebuildInterior(r, cand)
			RecomputeRouteMetrics(m, r)
			renumber(r)
			return true
		}
	}
	return false
}

// interiorDistance computes the full route distance for a candidate
// interior without mutating the route.
func interiorDistance(m *Matrix, depot model.Stop, interior []model.Stop) float64 {
	if len(interior) == 0 {
		return 0
	}
	d := m.StopDist(depot, interior[0])
	for i := 0; i+1 < len(interior); i++ {
		d += m.StopDist(interior[i], interior[i+1])
	}
	d += m.StopDist(interior[len(interior)-1], depot)
	return d
}

// rebuildInterior swaps a new interior into the route, keeping sentinels.
func rebuildInterior(r *model.Route, interior []model.Stop) {
	stops := make([]model.Stop, 0, len(interior)+2)
	stops = append(stops, r.Stops[0])
	stops = append(stops, interior...)
	stops = append(stops, r.Stops[len(r.Stops)-1])
	r.Stops = stops
	renumber(r)
}

func reversed(s []model.Stop) []model.Stop {
	out := make([]model.Stop, len(s))
	for i := range s {
		out[i] = s[len(s)-1-i]
	}
	return out
}

func concat(parts ...[]model.Stop) []model.Stop {
	var out []model.Stop
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// basicKernel is the Clarke-Wright polish: 2-opt to fixed point, one 3-opt
// pass, then 2-opt again.
func basicKernel(m *Matrix, routes []model.Route) {
	for i := range routes {
		TwoOpt(m, &routes[i])
		ThreeOpt(m, &routes[i])
		TwoOpt(m, &routes[i])
	}
}

// enhancedKernel is the enhanced polish: 2-opt to fixed point, then Or-opt
// sweeps.
func enhancedKernel(m *Matrix, routes []model.Route) {
	for i := range routes {
		TwoOpt(m, &routes[i])
		OrOpt(m, &routes[i])
	}
}
