package demo

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/helvethink/throttle/pkg/ratelimit"
	"github.com/helvethink/throttle/pkg/throttle"
)

// Target is the throttled action called by the Driver.
type Target interface {
	Invoke(ctx context.Context, args ...any) (int, error)
	Stats() throttle.Stats
	Wait() time.Duration
}

// Report summarizes a Driver run.
type Report struct {
	Calls    int            // Calls is the number of Invoke calls made
	Duration time.Duration  // Duration is the time taken by the calls, without the final drain
	Stats    throttle.Stats // Stats is the throttler snapshot once the last window has closed
}

// Fields returns the report as logrus fields.
func (r Report) Fields() log.Fields {
	fields := r.Stats.Fields()
	fields["calls-made"] = r.Calls
	fields["duration"] = r.Duration.String()
	return fields
}

// Driver calls a Target with 0, 1, 2, ... on the cadence of a pacer.
type Driver struct {
	target Target
	pacer  ratelimit.Limiter
	calls  int
	logger log.FieldLogger
}

// NewDriver returns a Driver making calls invocations of target, one per slot of pacer.
func NewDriver(target Target, pacer ratelimit.Limiter, calls int, logger log.FieldLogger) *Driver {
	return &Driver{
		target: target,
		pacer:  pacer,
		calls:  calls,
		logger: logger,
	}
}

// Run makes the calls, then waits for the throttler to settle so that a
// trailing run of the last value is accounted for. It stops early when ctx is
// cancelled and returns the partial report along with the context error.
func (d *Driver) Run(ctx context.Context) (r Report, err error) {
	start := time.Now()

	for n := 0; n < d.calls; n++ {
		if _, err = d.pacer.Take(ctx); err != nil {
			r.Duration = time.Since(start)
			r.Stats = d.target.Stats()
			return
		}

		// Immediate errors come back to us, trailing ones go to the throttler's handler
		if _, callErr := d.target.Invoke(ctx, n); callErr != nil {
			d.logger.WithFields(log.Fields{
				"progress": n,
			}).WithError(callErr).Warn("progress call failed")
		}
		r.Calls++
	}
	r.Duration = time.Since(start)

	err = d.drain(ctx)
	r.Stats = d.target.Stats()
	return
}

// drain waits until no trailing run or cooldown is pending anymore.
func (d *Driver) drain(ctx context.Context) error {
	poll := d.target.Wait() / 10
	if poll < time.Millisecond {
		poll = time.Millisecond
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for d.target.Stats().Pending {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	return nil
}
