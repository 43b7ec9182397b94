package rate

import (
	"context"
	"errors"
)

var (
	// ErrLimited is returned when a client is over its window budget.
	ErrLimited = errors.New("rate: limited")

	// ErrUnavailable is returned when the backing counter store cannot be
	// reached. Callers decide whether to fail open or closed.
	ErrUnavailable = errors.New("rate: counter store unavailable")
)

// Limiter bounds how often a client key may perform an operation.
//
// Implementations must update the counter with a single atomic
// increment-and-compare, never a read-then-write pair.
type Limiter interface {
	// Allow consumes one unit of budget for key. It returns ErrLimited when
	// the fixed-window budget is exhausted and ErrUnavailable on store
	// failures.
	Allow(ctx context.Context, key string) error

	// Reset clears the counter for key, reopening the window.
	Reset(ctx context.Context, key string) error
}
