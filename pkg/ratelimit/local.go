package ratelimit

import (
	"context" // Package for managing context and cancellation
	"time"    // Package for time-related operations

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus" // Logging library
	"golang.org/x/time/rate"         // Package for rate limiting functionality
)

// Local represents a process-local pacer using the golang.org/x/time/rate package.
type Local struct {
	*rate.Limiter // Embedded rate limiter from the rate package
}

// NewLocalLimiter creates a pacer handing out one slot every interval,
// allowing up to burst slots to be taken back to back.
func NewLocalLimiter(interval time.Duration, burst int) Limiter {
	if burst < 1 {
		burst = 1
	}

	return Local{
		Limiter: rate.NewLimiter(rate.Every(interval), burst),
		// interval: The time between two slots
		// burst: The maximum number of slots taken without waiting
	}
}

// Take waits for the next slot and returns the duration waited.
func (l Local) Take(ctx context.Context) (time.Duration, error) {
	start := time.Now() // Record the start time

	// Wait until the rate limiter hands out the next slot
	if err := l.Limiter.Wait(ctx); err != nil {
		log.WithContext(ctx).
			WithError(err).
			Debug("pacer wait interrupted")

		return time.Since(start), errors.Wrap(err, "waiting for next slot")
	}

	// Return the duration taken to obtain the slot
	return time.Since(start), nil
}
