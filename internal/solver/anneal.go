package solver

import (
	"context"
	"math"
	"math/rand"

	"routesolve/internal/model"
)

// Simulated annealing schedule. The temperatures are fixed constants; only
// the inner-loop length scales with instance size.
const (
	annealInitialTemp = 1000.0
	annealCooling     = 0.95
	annealMinTemp     = 1.0
)

// SimulatedAnnealing perturbs the enhanced Clarke-Wright seed with random
// intra-route swaps, accepting uphill moves with probability
// exp(-delta/T) under a geometric cooling schedule.
func SimulatedAnnealing(ctx context.Context, in *Instance, rng *rand.Rand) ([]model.Route, error) {
	current := EnhancedClarkeWright(in)
	if len(current) == 0 {
		return current, nil
	}
	cost := totalDistance(current)
	best := cloneRoutes(current)
	bestCost := cost

	inner := clampInt(5*len(in.Customers), 50, 200)

	for temp := annealInitialTemp; temp > annealMinTemp; temp *= annealCooling {
		if err := ctx.Err(); err != nil {
			return nil, ErrCancelled
		}
		for i := 0; i < inner; i++ {
			cand := cloneRoutes(current)
			r := &cand[rng.Intn(len(cand))]
			if len(r.Stops) < 4 {
				continue
			}
			a := 1 + rng.Intn(len(r.Stops)-2)
			b := 1 + rng.Intn(len(r.Stops)-2)
			if a == b {
				continue
			}
			r.Stops[a], r.Stops[b] = r.Stops[b], r.Stops[a]
			renumber(r)
			RecomputeRouteMetrics(in.Matrix, r)

			candCost := totalDistance(cand)
			delta := candCost - cost
			if delta < 0 || rng.Float64() < math.Exp(-delta/temp) {
				current = cand
				cost = candCost
				if cost < bestCost {
					best = cloneRoutes(current)
					bestCost = cost
				}
			}
		}
	}
	return best, nil
}
