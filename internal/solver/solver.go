package solver

import (
	"context"
	"fmt"

	"routesolve/internal/model"
)

// Solve modes.
const (
	ModeSingle  = "single"
	ModeCompare = "compare"
)

// Options selects what Solve runs. Seed 0 draws a time-based seed, so two
// identical compare runs may pick different winners; set Seed for
// reproducibility.
type Options struct {
	Mode      string
	Algorithm string
	Seed      int64
}

// Solve is the high-level entry point: validate, build the shared matrix,
// run one algorithm or the full comparison, and assemble the result
// envelope.
func (e *Engine) Solve(ctx context.Context, locations []model.Location, vehicles []model.VehicleType, opts Options) (*model.SolveResult, error) {
	in, err := NewInstance(locations, vehicles)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, ErrCancelled
	}

	switch opts.Mode {
	case ModeCompare:
		return e.solveCompare(ctx, in, opts.Seed)
	case ModeSingle, "":
		return e.solveSingle(ctx, in, opts)
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrBadInput, opts.Mode)
	}
}

func (e *Engine) solveSingle(ctx context.Context, in *Instance, opts Options) (*model.SolveResult, error) {
	if !knownAlgorithm(opts.Algorithm) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, opts.Algorithm)
	}
	res, err := e.Run(ctx, opts.Algorithm, in, newRNG(opts.Seed))
	if err != nil {
		return nil, fmt.Errorf("algorithm %s: %w", opts.Algorithm, err)
	}
	return &model.SolveResult{
		SelectedAlgorithm: res.Algorithm,
		Routes:            res.Routes,
		TotalDistance:     res.TotalDistance,
		TotalDuration:     res.TotalDuration,
		AlgorithmResults:  []model.AlgorithmResult{res},
		ComparisonRun:     false,
	}, nil
}

func (e *Engine) solveCompare(ctx context.Context, in *Instance, seed int64) (*model.SolveResult, error) {
	results, err := e.Compare(ctx, in, seed)
	winner, _ := SelectWinner(results)
	out := &model.SolveResult{
		SelectedAlgorithm: winner.Algorithm,
		Routes:            winner.Routes,
		TotalDistance:     winner.TotalDistance,
		TotalDuration:     winner.TotalDuration,
		AlgorithmResults:  results,
		ComparisonRun:     true,
	}
	if err != nil {
		// Partial state: whatever completed before cancellation.
		return out, err
	}
	return out, nil
}

func knownAlgorithm(key string) bool {
	for _, k := range Registry {
		if k == key {
			return true
		}
	}
	return false
}
