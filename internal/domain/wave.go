package domain

import "context"

// Wave is a single independent analyzer. Each wave reads whatever earlier
// waves left in the context and returns new signals; it never mutates
// signals already recorded. Lower priority numbers run earlier.
//
// Cancellation is advisory: waves check ctx cooperatively and return its
// error, nothing interrupts a wave that ignores it.
type Wave interface {
	Name() string
	Priority() int
	Tags() []string
	Analyze(ctx context.Context, imagePath string, ac *AnalysisContext) ([]Signal, error)
}
