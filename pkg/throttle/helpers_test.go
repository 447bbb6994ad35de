package throttle

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const tick = 5 * time.Millisecond

// run is one recorded execution of the wrapped function.
type run struct {
	ctx  context.Context
	args []any
	at   time.Time
}

// recorder is a wrapped function that remembers every execution.
type recorder struct {
	mu    sync.Mutex
	clock clockwork.Clock
	runs  []run
}

func newRecorder(clock clockwork.Clock) *recorder {
	return &recorder{clock: clock}
}

// fn returns the first argument, or 0 when called without arguments.
func (r *recorder) fn(ctx context.Context, args ...any) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs = append(r.runs, run{ctx: ctx, args: args, at: r.clock.Now()})
	if len(args) > 0 {
		if n, ok := args[0].(int); ok {
			return n, nil
		}
	}
	return 0, nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

func (r *recorder) run(i int) run {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[i]
}

// lastResult reads the cached result without going through Invoke.
func (t *Throttler[R]) lastResult() R {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}
