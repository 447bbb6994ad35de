package httpServer

import (
	"html/template"
	"net/http"
	"net/http/pprof"

	"github.com/heptiolabs/healthcheck"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/helvethink/throttle/internal/collectors"
	"github.com/helvethink/throttle/pkg/config"
)

const (
	metricsPath = "/metrics"

	rootTemplate string = `
	<!DOCTYPE html>
	<head><title>Throttle Demo</title></head>
	<body>
		<h1>Throttle Demo</h1>
		<p>Metrics at: <a href='{{ .MetricsPath }}'>{{ .MetricsPath }}</a></p>
		<p>Health at: <a href='/health/live'>/health/live</a> and <a href='/health/ready'>/health/ready</a></p>
	</body>
	</html>`
)

var errStopped = errors.New("throttler is stopped")

// Stoppable is satisfied by a throttler, and used for readiness.
type Stoppable interface {
	Stopped() bool
}

// NewHealthHandler returns a handler whose readiness check fails once the throttler is stopped.
func NewHealthHandler(s Stoppable) healthcheck.Handler {
	h := healthcheck.NewHandler()
	h.AddReadinessCheck("throttler-running", func() error {
		if s.Stopped() {
			return errStopped
		}
		return nil
	})
	return h
}

// NewHandler Serves root page with html template on root page,
// health endpoints and, when enabled, metrics and pprof.
func NewHandler(cfg config.Server, e *collectors.Exporter, health healthcheck.Handler) http.Handler {
	t := template.Must(template.New("root").Parse(rootTemplate))
	mux := http.NewServeMux()

	mux.HandleFunc("/health/live", health.LiveEndpoint)
	mux.HandleFunc("/health/ready", health.ReadyEndpoint)

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(e)

		mux.Handle(metricsPath, otelhttp.NewHandler(
			promhttp.HandlerFor(reg, promhttp.HandlerOpts{
				Registry:          reg,
				EnableOpenMetrics: cfg.Metrics.EnableOpenmetricsEncoding,
			}),
			metricsPath,
		))
	}

	if cfg.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	// Root Page Handler
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		err := t.Execute(w, struct{ MetricsPath string }{metricsPath})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	return mux
}

// NewServer returns an http.Server bound to cfg.ListenAddress. It is not started.
func NewServer(cfg config.Server, e *collectors.Exporter, health healthcheck.Handler) *http.Server {
	return &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: NewHandler(cfg, e, health),
	}
}
