package solver

import (
	"context"
	"math/rand"

	"routesolve/internal/model"
)

// Genetic algorithm tuning. Population and generations scale with instance
// size; rates are fixed.
const (
	gaMutationRate   = 0.1
	gaCrossoverRate  = 0.8
	gaTournamentSize = 3
)

// Genetic evolves a population of randomly packed solutions with
// tournament selection, route-based crossover, swap mutation and one-slot
// elitism. Fitness is total distance.
func Genetic(ctx context.Context, in *Instance, rng *rand.Rand) ([]model.Route, error) {
	n := len(in.Customers)
	popSize := clampInt(2*n, 10, 30)
	generations := clampInt(2*n, 15, 50)

	population := make([][]model.Route, popSize)
	for i := range population {
		population[i] = randomSolution(in, rng)
	}

	best := cloneRoutes(bestOf(population))
	bestDist := totalDistance(best)

	for g := 0; g < generations; g++ {
		if err := ctx.Err(); err != nil {
			return nil, ErrCancelled
		}
		next := make([][]model.Route, 0, popSize)
		next = append(next, cloneRoutes(bestOf(population))) // elitism

		for len(next) < popSize {
			p1 := tournament(population, rng)
			p2 := tournament(population, rng)
			var child []model.Route
			if rng.Float64() < gaCrossoverRate {
				child = crossover(in.Matrix, p1, p2, rng)
			} else {
				child = cloneRoutes(p1)
			}
			if rng.Float64() < gaMutationRate {
				mutate(in.Matrix, child, rng)
			}
			next = append(next, child)
		}
		population = next

		if cand := bestOf(population); totalDistance(cand) < bestDist {
			best = cloneRoutes(cand)
			bestDist = totalDistance(best)
		}
	}
	return best, nil
}

// randomSolution shuffles the customers and first-fit packs them into
// vehicle slots in slot order; customers that fit nowhere are dropped.
// Shared by the GA population seeding and the ant constructor.
func randomSolution(in *Instance, rng *rand.Rand) []model.Route {
	slots := expandSlots(in.Vehicles)
	buckets := make([][]model.Location, len(slots))
	loads := make([]int, len(slots))

	for _, pi := range rng.Perm(len(in.Customers)) {
		c := in.Customers[pi]
		for si := range slots {
			if loads[si]+c.Demand <= slots[si].Capacity {
				buckets[si] = append(buckets[si], c)
				loads[si] += c.Demand
				break
			}
		}
	}

	var routes []model.Route
	for _, b := range buckets {
		if len(b) > 0 {
			routes = append(routes, newRoute(in.Matrix, in.Depot, b...))
		}
	}
	return routes
}

// tournament picks gaTournamentSize contenders and keeps the shortest.
func tournament(population [][]model.Route, rng *rand.Rand) []model.Route {
	best := population[rng.Intn(len(population))]
	bestDist := totalDistance(best)
	for i := 1; i < gaTournamentSize; i++ {
		cand := population[rng.Intn(len(population))]
		if d := totalDistance(cand); d < bestDist {
			best = cand
			bestDist = d
		}
	}
	return best
}

// crossover copies whole routes: at each index the route comes from a
// uniformly chosen parent when both have one, otherwise from whichever
// parent does.
func crossover(m *Matrix, a, b []model.Route, rng *rand.Rand) []model.Route {
	size := len(a)
	if len(b) > size {
		size = len(b)
	}
	child := make([]model.Route, 0, size)
	for i := 0; i < size; i++ {
		var src []model.Route
		switch {
		case i < len(a) && i < len(b):
			if rng.Float64() < 0.5 {
				src = a
			} else {
				src = b
			}
		case i < len(a):
			src = a
		default:
			src = b
		}
		r := src[i]
		r.Stops = append([]model.Stop(nil), r.Stops...)
		RecomputeRouteMetrics(m, &r)
		child = append(child, r)
	}
	return child
}

// mutate swaps two interior stops on one random route with at least three
// stops.
func mutate(m *Matrix, routes []model.Route, rng *rand.Rand) {
	if len(routes) == 0 {
		return
	}
	r := &routes[rng.Intn(len(routes))]
	if len(r.Stops) < 3 {
		return
	}
	last := len(r.Stops) - 1
	a := 1 + rng.Intn(last-1)
	b := 1 + rng.Intn(last-1)
	r.Stops[a], r.Stops[b] = r.Stops[b], r.Stops[a]
	renumber(r)
	RecomputeRouteMetrics(m, r)
}

func bestOf(population [][]model.Route) []model.Route {
	best := population[0]
	bestDist := totalDistance(best)
	for _, cand := range population[1:] {
		if d := totalDistance(cand); d < bestDist {
			best = cand
			bestDist = d
		}
	}
	return best
}
