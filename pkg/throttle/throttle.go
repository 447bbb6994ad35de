package throttle

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
)

// Func is the function wrapped by a Throttler. The context and arguments are
// those of the Invoke call being executed, forwarded verbatim.
type Func[R any] func(ctx context.Context, args ...any) (R, error)

// call is an Invoke payload captured for a trailing run.
type call struct {
	ctx  context.Context
	args []any
}

// Throttler forwards calls to a Func no more often than its policy allows.
// The zero value is not usable; create one with New.
type Throttler[R any] struct {
	wait    time.Duration
	policy  Policy
	max     int
	clock   clockwork.Clock
	logger  log.FieldLogger
	onError func(error)

	mu      sync.Mutex
	fn      Func[R]         // nil once stopped
	started bool            // false until the first run or window start
	last    time.Time       // last run (leading-trailing) or window start (max-count)
	count   int             // runs in the current max-count window
	timer   clockwork.Timer // armed trailing or cooldown timer
	gen     uint64          // generation of timer, bumped on every arm and cancel
	pending *call           // latest payload for the trailing run
	seq     uint64          // number of runs started so far
	result  R               // result of the latest successful run
	resSeq  uint64          // seq of the run that produced result
	stopped bool
	stats   Stats
}

// New wraps fn so that it runs at most once per wait, or max times per wait
// with WithMax. Invalid arguments are reported as a *ConfigurationError.
func New[R any](fn Func[R], wait time.Duration, opts ...Option) (*Throttler[R], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if fn == nil {
		return nil, &ConfigurationError{Field: "fn", Value: nil, Reason: "must not be nil"}
	}
	if err := o.validate(wait); err != nil {
		return nil, err
	}

	t := &Throttler[R]{
		fn:      fn,
		wait:    wait,
		policy:  o.policy,
		max:     o.max,
		clock:   o.clock,
		logger:  o.logger,
		onError: o.onError,
	}
	if t.onError == nil {
		t.onError = t.logFailure
	}

	return t, nil
}

// MustNew is like New but panics on a configuration error.
func MustNew[R any](fn Func[R], wait time.Duration, opts ...Option) *Throttler[R] {
	t, err := New(fn, wait, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Invoke submits a call. Depending on the policy, the wrapped function runs
// now with ctx and args, runs later with the arguments of the latest call, or
// does not run at all. Invoke never waits for a deferred run.
//
// When the function runs now, its result and error are returned unchanged.
// Otherwise Invoke returns the result of the last successful run and a nil error.
func (t *Throttler[R]) Invoke(ctx context.Context, args ...any) (R, error) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		var zero R
		return zero, ErrStopped
	}

	t.stats.Calls++
	now := t.clock.Now()

	var run bool
	switch t.policy {
	case PolicyMaxCount:
		run = t.admitWindow(now)
	case PolicyCooldown:
		run = t.admitCooldown(now)
	default:
		run = t.admitTrailing(ctx, args, now)
	}

	if !run {
		res := t.result
		t.mu.Unlock()
		return res, nil
	}

	t.stats.Executions++
	seq := t.startLocked()
	fn := t.fn
	t.mu.Unlock()

	res, err := fn(ctx, args...)
	if err != nil {
		return res, err
	}

	t.storeResult(seq, res)

	return res, nil
}

// Stop cancels any armed timer, discards the pending call and releases the
// wrapped function. Subsequent calls to Invoke return ErrStopped. A trailing
// run that already started is not interrupted.
func (t *Throttler[R]) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}
	t.stopped = true
	t.cancelLocked()
	t.fn = nil
}

// Stats returns a snapshot of the throttler's counters.
func (t *Throttler[R]) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.stats
	s.Pending = t.timer != nil
	return s
}

// Pending reports whether a trailing run or a cooldown is scheduled.
func (t *Throttler[R]) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

// Stopped reports whether Stop has been called.
func (t *Throttler[R]) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Policy returns the policy the throttler was built with.
func (t *Throttler[R]) Policy() Policy { return t.policy }

// Wait returns the window length.
func (t *Throttler[R]) Wait() time.Duration { return t.wait }

// windowElapsed reports whether a call at now falls outside the current window.
func (t *Throttler[R]) windowElapsed(now time.Time) bool {
	return !t.started || t.wait == 0 || now.Sub(t.last) >= t.wait
}

// admitTrailing implements PolicyLeadingTrailing. It must be called with mu held.
func (t *Throttler[R]) admitTrailing(ctx context.Context, args []any, now time.Time) bool {
	if t.windowElapsed(now) {
		t.started = true
		t.last = now
		t.cancelLocked()
		return true
	}

	if t.pending != nil {
		t.stats.Superseded++
	}
	t.pending = &call{ctx: ctx, args: append([]any(nil), args...)}
	t.stats.Deferred++

	// An armed timer keeps its deadline, only the payload changes.
	if t.timer == nil {
		delay := t.wait - now.Sub(t.last)
		if delay > t.wait {
			// the clock went backwards
			delay = t.wait
		}
		t.armLocked(delay, t.fireTrailing)
		t.logger.WithFields(log.Fields{
			"delay": delay.String(),
		}).Debug("armed trailing timer")
	}

	return false
}

// admitWindow implements PolicyMaxCount. It must be called with mu held.
func (t *Throttler[R]) admitWindow(now time.Time) bool {
	if t.windowElapsed(now) {
		t.started = true
		t.last = now
		t.count = 0
	}

	if t.count < t.max {
		t.count++
		return true
	}

	t.stats.Dropped++
	t.logger.WithFields(log.Fields{
		"max":   t.max,
		"count": t.count,
	}).Debug("dropped call over window limit")

	return false
}

// admitCooldown implements PolicyCooldown. It must be called with mu held.
func (t *Throttler[R]) admitCooldown(now time.Time) bool {
	if t.timer != nil {
		t.stats.Dropped++
		t.logger.Debug("dropped call during cooldown")
		return false
	}

	t.started = true
	t.last = now
	if t.wait > 0 {
		t.armLocked(t.wait, t.endCooldown)
	}

	return true
}

// armLocked schedules fire after d, tagged with a fresh generation.
func (t *Throttler[R]) armLocked(d time.Duration, fire func(gen uint64)) {
	t.gen++
	gen := t.gen
	t.timer = t.clock.AfterFunc(d, func() {
		fire(gen)
	})
}

// cancelLocked disarms the timer and discards the pending call. Bumping the
// generation turns a callback that is already running into a no-op.
func (t *Throttler[R]) cancelLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
		t.gen++
	}
	if t.pending != nil {
		t.pending = nil
		t.stats.Superseded++
	}
}

// fireTrailing runs the latest pending call if gen is still current.
func (t *Throttler[R]) fireTrailing(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.timer == nil {
		t.mu.Unlock()
		return
	}

	t.timer = nil
	c := t.pending
	t.pending = nil
	if c == nil {
		t.mu.Unlock()
		return
	}

	t.last = t.clock.Now()
	t.stats.Executions++
	t.stats.Trailing++
	seq := t.startLocked()
	fn := t.fn
	t.mu.Unlock()

	res, err := runTrailing(fn, c)
	if err != nil {
		t.mu.Lock()
		t.stats.Failures++
		t.mu.Unlock()

		t.onError(err)
		return
	}

	t.storeResult(seq, res)
}

// startLocked numbers a run that is about to start.
func (t *Throttler[R]) startLocked() uint64 {
	t.seq++
	return t.seq
}

// storeResult caches res unless a run started after seq already stored its own.
// Runs do not hold the lock, so a slow run may finish after a later one.
func (t *Throttler[R]) storeResult(seq uint64, res R) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if seq > t.resSeq {
		t.result = res
		t.resSeq = seq
	}
}

// endCooldown makes the throttler available again if gen is still current.
func (t *Throttler[R]) endCooldown(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen == t.gen {
		t.timer = nil
	}
}

// runTrailing calls fn, turning a panic into a *PanicError.
func runTrailing[R any](fn Func[R], c *call) (res R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	return fn(c.ctx, c.args...)
}

// logFailure is the default error handler.
func (t *Throttler[R]) logFailure(err error) {
	t.logger.WithFields(log.Fields{
		"policy": t.policy.String(),
		"wait":   t.wait.String(),
	}).WithError(err).Error("trailing invocation failed")
}
