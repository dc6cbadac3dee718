package solver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"routesolve/internal/model"
)

// Algorithm tags. These are the caller-facing identifiers; the comparison
// registry runs them in this order.
const (
	AlgoClarkeWright         = "clarke-wright"
	AlgoEnhancedClarkeWright = "enhanced-clarke-wright"
	AlgoNearestNeighbor      = "nearest-neighbor"
	AlgoGenetic              = "genetic"
	AlgoTabuSearch           = "tabu-search"
	AlgoSimulatedAnnealing   = "simulated-annealing"
	AlgoAntColony            = "ant-colony"
	AlgoORTools              = "or-tools"
)

// Registry lists the algorithms the comparison driver runs, in order.
// Sweep is a building block and intentionally not registered.
var Registry = []string{
	AlgoClarkeWright,
	AlgoEnhancedClarkeWright,
	AlgoNearestNeighbor,
	AlgoGenetic,
	AlgoTabuSearch,
	AlgoSimulatedAnnealing,
	AlgoAntColony,
	AlgoORTools,
}

// Engine runs algorithms against validated instances. External may be nil,
// in which case the or-tools tag degrades to its Enhanced Clarke-Wright
// fallback immediately.
type Engine struct {
	External *ExternalSolver
}

func NewEngine(external *ExternalSolver) *Engine {
	return &Engine{External: external}
}

// constructFunc is one algorithm's raw construction step, with no vehicle
// assignment performed.
type constructFunc func(e *Engine, ctx context.Context, in *Instance, rng *rand.Rand) ([]model.Route, error)

// constructors maps tags to constructions. A package variable so tests can
// stub a single algorithm (e.g. force a failure) and restore it.
var constructors = map[string]constructFunc{
	AlgoClarkeWright: func(_ *Engine, _ context.Context, in *Instance, _ *rand.Rand) ([]model.Route, error) {
		return ClarkeWright(in), nil
	},
	AlgoEnhancedClarkeWright: func(_ *Engine, _ context.Context, in *Instance, _ *rand.Rand) ([]model.Route, error) {
		return EnhancedClarkeWright(in), nil
	},
	AlgoNearestNeighbor: func(_ *Engine, _ context.Context, in *Instance, _ *rand.Rand) ([]model.Route, error) {
		return NearestNeighbor(in), nil
	},
	AlgoGenetic: func(_ *Engine, ctx context.Context, in *Instance, rng *rand.Rand) ([]model.Route, error) {
		return Genetic(ctx, in, rng)
	},
	AlgoTabuSearch: func(_ *Engine, ctx context.Context, in *Instance, _ *rand.Rand) ([]model.Route, error) {
		return TabuSearch(ctx, in)
	},
	AlgoSimulatedAnnealing: func(_ *Engine, ctx context.Context, in *Instance, rng *rand.Rand) ([]model.Route, error) {
		return SimulatedAnnealing(ctx, in, rng)
	},
	AlgoAntColony: func(_ *Engine, ctx context.Context, in *Instance, rng *rand.Rand) ([]model.Route, error) {
		return AntColony(ctx, in, rng)
	},
	AlgoORTools: func(e *Engine, ctx context.Context, in *Instance, _ *rand.Rand) ([]model.Route, error) {
		routes, err := e.External.Solve(ctx, in)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, ErrCancelled
			}
			log.Printf("solver: external solver unavailable (%v), falling back to enhanced clarke-wright", err)
			return EnhancedClarkeWright(in), nil
		}
		return routes, nil
	},
}

// Construct runs one algorithm's raw construction with no vehicle
// assignment. This is the low-level per-algorithm entry point.
func (e *Engine) Construct(ctx context.Context, key string, in *Instance, rng *rand.Rand) ([]model.Route, error) {
	fn, ok := constructors[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, key)
	}
	return fn(e, ctx, in, rng)
}

// kernelFor maps an algorithm to the local-search polish the assigner
// re-applies after repair. Algorithms without an intra-route kernel get
// none.
func kernelFor(key string) kernelFunc {
	switch key {
	case AlgoClarkeWright:
		return basicKernel
	case AlgoEnhancedClarkeWright, AlgoTabuSearch, AlgoSimulatedAnnealing, AlgoORTools:
		return enhancedKernel
	default:
		return nil
	}
}

// Run executes one algorithm end to end: construction, vehicle assignment
// and repair, metrics. Panics inside an algorithm surface as errors so a
// comparison run can record them without dying.
func (e *Engine) Run(ctx context.Context, key string, in *Instance, rng *rand.Rand) (result model.AlgorithmResult, err error) {
	started := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("algorithm %s panicked: %v", key, rec)
		}
		if err != nil {
			result = model.AlgorithmResult{Algorithm: key, Error: err.Error()}
		}
		result.ExecutionTimeMs = time.Since(started).Milliseconds()
	}()

	routes, err := e.Construct(ctx, key, in, rng)
	if err != nil {
		return model.AlgorithmResult{}, err
	}
	routes = AssignVehicles(in, routes, kernelFor(key))
	return e.score(key, in, routes), nil
}

// score derives the comparable quality metrics for a finished route set.
func (e *Engine) score(key string, in *Instance, routes []model.Route) model.AlgorithmResult {
	res := model.AlgorithmResult{
		Algorithm:          key,
		Routes:             routes,
		RoutesCount:        len(routes),
		TotalFleetCapacity: in.FleetCapacity(),
	}

	served := servedIDs(routes, in.Depot.ID)
	res.LocationsServed = len(served)
	if len(in.Customers) > 0 {
		res.CoveragePercent = float64(len(served)) / float64(len(in.Customers)) * 100
	}

	demand := 0
	for i := range routes {
		res.TotalDistance += routes[i].Distance
		res.TotalDuration += routes[i].Duration
		demand += routes[i].TotalCapacity
	}
	if res.TotalFleetCapacity > 0 {
		res.VehicleUtilization = float64(demand) / float64(res.TotalFleetCapacity) * 100
	}
	if len(routes) > 0 {
		res.AvgRouteDistance = res.TotalDistance / float64(len(routes))
		res.AvgRouteDuration = float64(res.TotalDuration) / float64(len(routes))
	}
	return res
}

// Compare runs every registry algorithm in series on the same instance.
// Per-algorithm failures are recorded, not fatal. On cancellation the
// results gathered so far are returned alongside ErrCancelled.
func (e *Engine) Compare(ctx context.Context, in *Instance, seed int64) ([]model.AlgorithmResult, error) {
	results := make([]model.AlgorithmResult, 0, len(Registry))
	for _, key := range Registry {
		if err := ctx.Err(); err != nil {
			return results, ErrCancelled
		}
		rng := newRNG(seed)
		res, err := e.Run(ctx, key, in, rng)
		if errors.Is(err, ErrCancelled) {
			return results, ErrCancelled
		}
		if err != nil {
			log.Printf("solver: algorithm %s failed: %v", key, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// SelectWinner applies the comparison ordering: highest coverage first,
// then lowest total distance, keeping the earliest result on exact ties.
// With no error-free result it falls back to the first result.
func SelectWinner(results []model.AlgorithmResult) (model.AlgorithmResult, bool) {
	var winner model.AlgorithmResult
	found := false
	for _, r := range results {
		if r.Error != "" {
			continue
		}
		if !found ||
			r.CoveragePercent > winner.CoveragePercent ||
			(r.CoveragePercent == winner.CoveragePercent && r.TotalDistance < winner.TotalDistance) {
			winner = r
			found = true
		}
	}
	if !found && len(results) > 0 {
		return results[0], false
	}
	return winner, found
}

// newRNG seeds a fresh PRNG; seed 0 means nondeterministic.
func newRNG(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
