package solver

import "errors"

// Error taxonomy. BadInput and Cancelled short-circuit a solve; an
// algorithm failure is captured per-algorithm in compare mode and recorded
// on the AlgorithmResult instead of aborting the run. An infeasible
// assignment is not an error at all: it surfaces as capacityExceeded on the
// affected routes.
var (
	ErrBadInput         = errors.New("bad input")
	ErrCancelled        = errors.New("solve cancelled")
	ErrUnknownAlgorithm = errors.New("unknown algorithm")

	// ErrExternalSolver never reaches callers; the adapter maps it to the
	// Enhanced Clarke-Wright fallback.
	ErrExternalSolver = errors.New("external solver unavailable")
)
