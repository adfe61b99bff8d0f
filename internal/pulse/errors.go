package pulse

import "errors"

// Sentinel error classes for the scoring engine. Convergence failures are
// deliberately not errors: the iterative centrality measures fall back to
// degraded values and surface a converged=false flag instead, so one
// stubborn subgraph never aborts a whole scoring run.
var (
	// ErrInvalidInput marks a precondition violation caught before any
	// computation: negative counts or ratios, a non-positive max-authors
	// population, malformed records. Never silently coerced.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig marks a configuration defect (weights not summing
	// to 1, damping out of domain). Raised once at validation time, never
	// mid-run.
	ErrInvalidConfig = errors.New("invalid configuration")
)
