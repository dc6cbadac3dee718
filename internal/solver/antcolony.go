package solver

import (
	"context"
	"math/rand"

	"routesolve/internal/model"
)

// Ant colony parameters. Alpha and beta are carried for parity with the
// usual pheromone/visibility weighting even though the constructor packs
// greedily; evaporation and deposit shape the trail map across iterations.
const (
	acoAlpha       = 1.0
	acoBeta        = 2.0
	acoEvaporation = 0.1
	acoDeposit     = 100.0
)

// AntColony runs a population of ants over randomly packed solutions and
// keeps a pheromone trail map updated from their costs; the trail map does
// not influence how the ants pack.
//
// Known limitation, preserved for comparison parity with the original
// system: each ant contributes only the FIRST route of its multi-route
// packing as its solution, so coverage under-reports relative to the other
// constructors.
func AntColony(ctx context.Context, in *Instance, rng *rand.Rand) ([]model.Route, error) {
	n := len(in.Customers)
	ants := clampInt(n, 5, 20)
	iterations := clampInt(2*n, 10, 50)

	pheromone := make(map[string]float64, len(in.Locations)*len(in.Locations))
	for _, a := range in.Locations {
		for _, b := range in.Locations {
			if a.ID != b.ID {
				pheromone[a.ID+"|"+b.ID] = 1.0
			}
		}
	}

	var best []model.Route
	bestCost := 0.0

	for it := 0; it < iterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, ErrCancelled
		}
		solutions := make([][]model.Route, 0, ants)
		for a := 0; a < ants; a++ {
			packed := randomSolution(in, rng)
			if len(packed) == 0 {
				continue
			}
			sol := packed[:1]
			solutions = append(solutions, sol)

			cost := totalDistance(sol)
			if best == nil || cost < bestCost {
				best = cloneRoutes(sol)
				bestCost = cost
			}
		}

		for k := range pheromone {
			pheromone[k] *= 1 - acoEvaporation
		}
		for _, sol := range solutions {
			cost := totalDistance(sol)
			if cost <= 0 {
				continue
			}
			deposit := acoDeposit / cost
			for ri := range sol {
				stops := sol[ri].Stops
				for i := 0; i+1 < len(stops); i++ {
					pheromone[stops[i].LocationID+"|"+stops[i+1].LocationID] += deposit
				}
			}
		}
	}

	if best == nil {
		return nil, nil
	}
	return best, nil
}
