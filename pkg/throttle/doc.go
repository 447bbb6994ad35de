// Package throttle limits how often a function runs.
//
// A Throttler wraps a Func and forwards Invoke calls to it under a time-window
// policy selected at construction:
//
//   - PolicyLeadingTrailing (default): the first call of a window runs
//     immediately. Calls arriving before wait has elapsed are merged into a
//     single trailing run scheduled for the end of the window, which uses the
//     context and arguments of the latest call ("last call wins").
//   - PolicyMaxCount: at most max calls run per window. The window starts with
//     the call that finds wait elapsed since the previous window start. Extra
//     calls are dropped, never deferred.
//   - PolicyCooldown: a call runs when the throttler is not cooling down, and
//     starts a cooldown of wait. Calls during the cooldown are dropped.
//
// A wait of zero disables throttling entirely: every call runs immediately and
// no timer is ever armed.
//
// # Results and errors
//
// Invoke never blocks. Calls that are suppressed (deferred or dropped) return
// the result of the most recent successful run and a nil error.
//
// Errors returned by an immediate run are returned to the caller of Invoke
// unchanged. A trailing run happens after the originating Invoke has already
// returned, so its errors cannot reach any caller. They are handed to the
// handler configured with WithErrorHandler, which by default logs them at
// error level. Panics raised by a trailing run are recovered and reported to
// the same handler as a *PanicError.
//
// # Concurrency
//
// A Throttler is safe for concurrent use. Its state is guarded by a single
// mutex which is never held while the wrapped function runs, so the function
// may call Invoke on its own throttler. Trailing runs execute on the timer
// goroutine of the configured clock.
//
// Every armed timer carries a generation number. Cancelling or replacing a
// timer bumps the generation, and a callback whose generation is no longer
// current returns without touching any state, even if it was already running
// when it was cancelled.
//
// # Testing
//
// Time is read from a clockwork.Clock. Tests substitute a fake clock with
// WithClock and move time with Advance:
//
//	clock := clockwork.NewFakeClock()
//	t, _ := throttle.New(fn, 100*time.Millisecond, throttle.WithClock(clock))
//	t.Invoke(ctx, 1)
//	t.Invoke(ctx, 2)
//	clock.Advance(100 * time.Millisecond) // trailing run with 2
package throttle
