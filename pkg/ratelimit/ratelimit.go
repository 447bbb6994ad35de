// Package ratelimit paces a caller to a fixed cadence.
package ratelimit

import (
	"context" // Package for managing context and cancellation
	"time"    // Package for time-related operations
)

// Limiter is an interface for pacing functionality.
// It defines a method for taking the next slot of the cadence.
type Limiter interface {
	// Take blocks until the next slot is available or ctx is done.
	// It returns the time spent waiting.
	Take(ctx context.Context) (time.Duration, error)
}
