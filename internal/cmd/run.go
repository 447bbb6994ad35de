package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/helvethink/throttle/internal/collectors"
	"github.com/helvethink/throttle/internal/demo"
	"github.com/helvethink/throttle/internal/httpServer"
	"github.com/helvethink/throttle/pkg/config"
	"github.com/helvethink/throttle/pkg/ratelimit"
	"github.com/helvethink/throttle/pkg/throttle"
)

// app groups everything a demo run needs.
type app struct {
	id        uuid.UUID
	progress  *demo.Progress
	throttler *throttle.Throttler[int]
	driver    *demo.Driver
	server    *http.Server
}

// newApp wires the progress action, its throttler and the driver from cfg.
// The HTTP server is only built when enabled.
func newApp(cfg config.Config, logger *log.Entry) (*app, error) {
	a := &app{id: uuid.New()}
	logger = logger.WithField("run-id", a.id.String())

	opts, err := cfg.Throttle.Options()
	if err != nil {
		return nil, err
	}
	opts = append(opts, throttle.WithLogger(logger.WithField("component", "throttle")))

	a.progress = demo.NewProgress(logger)
	a.throttler, err = throttle.New(a.progress.Func(), cfg.Throttle.Wait(), opts...)
	if err != nil {
		return nil, err
	}

	a.driver = demo.NewDriver(
		a.throttler,
		ratelimit.NewLocalLimiter(cfg.Driver.Interval(), 1),
		cfg.Driver.Calls,
		logger.WithField("component", "driver"),
	)

	if cfg.Server.Enabled {
		a.server = httpServer.NewServer(
			cfg.Server,
			collectors.NewExporter(map[string]collectors.StatsSource{"progress": a.throttler}),
			httpServer.NewHealthHandler(a.throttler),
		)
	}

	return a, nil
}

// Run drives the throttled progress action and reports what went through.
func Run(cliCtx *cli.Context) (int, error) {
	cfg, err := configure(cliCtx)
	if err != nil {
		return 1, err
	}

	ctx, ctxCancel := context.WithCancel(context.Background())
	defer ctxCancel()

	shutdownTracing, err := configureTracing(ctx, cfg.OpenTelemetry.GRPCEndpoint)
	if err != nil {
		return 1, err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.WithError(err).Warn("flushing traces")
		}
	}()

	a, err := newApp(cfg, log.NewEntry(log.StandardLogger()))
	if err != nil {
		return 1, err
	}
	defer a.throttler.Stop()

	// Setup channel to listen for OS termination signals for graceful shutdown
	onShutdown := make(chan os.Signal, 1)
	signal.Notify(onShutdown, syscall.SIGINT, syscall.SIGTERM, syscall.SIGABRT)
	defer signal.Stop(onShutdown)

	go func() {
		select {
		case <-onShutdown:
			log.Info("received signal, attempting to gracefully exit..")
			ctxCancel()
		case <-ctx.Done():
		}
	}()

	if a.server != nil {
		go func() {
			if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithContext(ctx).
					WithError(err).
					Fatal()
			}
		}()

		log.WithFields(
			log.Fields{
				"listen-address":               cfg.Server.ListenAddress,
				"pprof-endpoint-enabled":       cfg.Server.EnablePprof,
				"metrics-endpoint-enabled":     cfg.Server.Metrics.Enabled,
				"openmetrics-encoding-enabled": cfg.Server.Metrics.EnableOpenmetricsEncoding,
				"run-id":                       a.id.String(),
			},
		).Info("http server started")
	}

	report, runErr := a.driver.Run(ctx)

	log.WithFields(report.Fields()).
		WithField("run-id", a.id.String()).
		WithField("last-progress", a.progress.Last()).
		WithField("executions-last-second", a.progress.RateCounter.Rate()).
		Info("driver finished")

	if a.server != nil {
		// Force HTTP server shutdown after 5 seconds
		httpServerContext, forceHTTPServerShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer forceHTTPServerShutdown()

		if err := a.server.Shutdown(httpServerContext); err != nil {
			return 1, err
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return 1, runErr
	}

	log.Info("stopped!")
	return 0, nil
}
