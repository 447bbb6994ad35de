package throttle

import (
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
)

// Option configures a Throttler.
type Option func(*options)

type options struct {
	policy  Policy
	max     int
	clock   clockwork.Clock
	logger  log.FieldLogger
	onError func(error)
}

func defaultOptions() options {
	return options{
		policy: PolicyLeadingTrailing,
		max:    1,
		clock:  clockwork.NewRealClock(),
		logger: log.StandardLogger(),
	}
}

// WithPolicy selects the throttling policy. The default is PolicyLeadingTrailing.
func WithPolicy(p Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithMax sets the number of runs allowed per window and selects
// PolicyMaxCount, the only policy that accepts a limit other than 1.
func WithMax(max int) Option {
	return func(o *options) {
		o.max = max
		o.policy = PolicyMaxCount
	}
}

// WithClock sets the source of time and timers. Tests pass a fake clock.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithLogger sets the logger used for debug traces and by the default error handler.
func WithLogger(l log.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithErrorHandler sets the function receiving errors and recovered panics of
// trailing runs. It is called on the timer goroutine.
func WithErrorHandler(h func(error)) Option {
	return func(o *options) {
		o.onError = h
	}
}

// validate checks the options against wait and reports the first problem found.
func (o options) validate(wait time.Duration) error {
	switch {
	case wait < 0:
		return &ConfigurationError{Field: "wait", Value: wait, Reason: "must not be negative"}
	case !o.policy.Valid():
		return &ConfigurationError{Field: "policy", Value: uint8(o.policy), Reason: "unknown policy"}
	case o.max < 1:
		return &ConfigurationError{Field: "max", Value: o.max, Reason: "must be at least 1"}
	case o.max != 1 && o.policy != PolicyMaxCount:
		return &ConfigurationError{Field: "max", Value: o.max, Reason: "only the max-count policy accepts a limit other than 1"}
	case o.clock == nil:
		return &ConfigurationError{Field: "clock", Value: nil, Reason: "must not be nil"}
	case o.logger == nil:
		return &ConfigurationError{Field: "logger", Value: nil, Reason: "must not be nil"}
	}
	return nil
}
