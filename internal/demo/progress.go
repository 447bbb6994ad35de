// Package demo drives a throttled progress reporter on a fixed cadence.
package demo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/paulbellamy/ratecounter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/helvethink/throttle/pkg/throttle"
)

const tracerName = "throttle-demo"

// Progress is the action being throttled: it reports the progress value it receives.
type Progress struct {
	logger log.FieldLogger
	tracer trace.Tracer

	// RateCounter tracks the number of reports over the last second.
	RateCounter *ratecounter.RateCounter

	mu    sync.Mutex
	last  int
	total uint64
}

// NewProgress returns a Progress logging through logger.
func NewProgress(logger log.FieldLogger) *Progress {
	return &Progress{
		logger:      logger,
		tracer:      otel.Tracer(tracerName),
		RateCounter: ratecounter.NewRateCounter(time.Second),
		last:        -1,
	}
}

// Report logs a single progress value. It expects exactly one int argument.
func (p *Progress) Report(ctx context.Context, args ...any) (int, error) {
	_, span := p.tracer.Start(ctx, "demo:progress")
	defer span.End()

	if len(args) != 1 {
		return 0, errors.Errorf("progress expects one argument, got %d", len(args))
	}
	n, ok := args[0].(int)
	if !ok {
		return 0, errors.Errorf("progress expects an int, got %T", args[0])
	}
	span.SetAttributes(attribute.Int("progress", n))

	p.RateCounter.Incr(1)
	p.mu.Lock()
	p.last = n
	p.total++
	p.mu.Unlock()

	p.logger.WithFields(log.Fields{
		"progress": n,
	}).Info(fmt.Sprintf("Progress: %d", n))

	return n, nil
}

// Func returns Report as a throttle.Func.
func (p *Progress) Func() throttle.Func[int] {
	return p.Report
}

// Last returns the last reported value, or -1 if nothing was reported yet.
func (p *Progress) Last() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Total returns the number of values reported.
func (p *Progress) Total() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}
