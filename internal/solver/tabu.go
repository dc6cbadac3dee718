package solver

import (
	"context"
	"math"

	"routesolve/internal/model"
)

// maxTabuNeighbors caps the neighborhood evaluated per iteration, kept in
// deterministic generation order.
const maxTabuNeighbors = 50

// TabuSearch starts from the enhanced Clarke-Wright solution and explores
// intra-route pairwise swaps, memoizing visited solutions by their
// canonical key. There is no aspiration bypass: a tabu neighbor is never
// taken, and the search ends early once every neighbor is tabu.
func TabuSearch(ctx context.Context, in *Instance) ([]model.Route, error) {
	current := EnhancedClarkeWright(in)
	n := len(in.Customers)
	tenure := clampInt(n/2, 5, 15)
	iterations := clampInt(3*n, 20, 100)

	best := cloneRoutes(current)
	bestDist := totalDistance(best)
	tabu := map[string]int{} // solution key -> expiry iteration

	for it := 0; it < iterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, ErrCancelled
		}
		var chosen []model.Route
		chosenDist := math.MaxFloat64
		for _, nb := range swapNeighbors(in.Matrix, current) {
			if expiry, ok := tabu[SolutionKey(nb)]; ok && expiry > it {
				continue
			}
			if d := totalDistance(nb); d < chosenDist {
				chosen = nb
				chosenDist = d
			}
		}
		if chosen == nil {
			break
		}
		current = chosen

		tabu[SolutionKey(current)] = it + tenure
		for k, expiry := range tabu {
			if expiry <= it {
				delete(tabu, k)
			}
		}

		if chosenDist < bestDist {
			best = cloneRoutes(current)
			bestDist = chosenDist
		}
	}
	return best, nil
}

// swapNeighbors enumerates all intra-route interior swaps across every
// route, up to maxTabuNeighbors.
func swapNeighbors(m *Matrix, routes []model.Route) [][]model.Route {
	var out [][]model.Route
	for ri := range routes {
		last := len(routes[ri].Stops) - 1
		for i := 1; i < last; i++ {
			for j := i + 1; j < last; j++ {
				nb := cloneRoutes(routes)
				r := &nb[ri]
				r.Stops[i], r.Stops[j] = r.Stops[j], r.Stops[i]
				renumber(r)
				RecomputeRouteMetrics(m, r)
				out = append(out, nb)
				if len(out) >= maxTabuNeighbors {
					return out
				}
			}
		}
	}
	return out
}
