package cmd

import (
	"os"
	"time"

	"dario.cat/mergo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otellogrus"
	"github.com/urfave/cli/v2"

	"github.com/helvethink/throttle/internal/logging"
	"github.com/helvethink/throttle/pkg/config"
)

var start time.Time

// configure loads the optional configuration file, applies the CLI overrides,
// validates the result and sets up logging.
func configure(ctx *cli.Context) (cfg config.Config, err error) {
	// Retrieve and store application start time from CLI metadata
	if t, ok := ctx.App.Metadata["startTime"].(time.Time); ok {
		start = t
	}

	cfg, err = loadConfig(ctx)
	if err != nil {
		return
	}

	if err = mergo.Merge(&cfg, cliOverrides(ctx), mergo.WithOverride); err != nil {
		err = errors.Wrap(err, "applying command line overrides")
		return
	}
	cliZeroOverrides(ctx, &cfg)

	if err = cfg.Validate(); err != nil {
		return
	}

	if err = logger.Configure(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	}); err != nil {
		return
	}

	// Add OpenTelemetry logging hook to integrate tracing into logs
	log.AddHook(otellogrus.NewHook(otellogrus.WithLevels(
		log.PanicLevel,
		log.FatalLevel,
		log.ErrorLevel,
		log.WarnLevel,
	)))

	log.WithFields(cfg.Throttle.Log()).Info("throttle configured")
	log.WithFields(cfg.Driver.Log()).Info("driver configured")

	return
}

// loadConfig parses the file given with --config, or returns the defaults.
func loadConfig(ctx *cli.Context) (config.Config, error) {
	path := ctx.String("config")
	if path == "" {
		return config.New(), nil
	}

	if _, err := os.Stat(path); err != nil {
		return config.Config{}, errors.Wrapf(err, "config file %s", path)
	}

	return config.ParseFile(path)
}

// cliOverrides returns a partial configuration holding the flags explicitly set
// on the command line. mergo skips its zero values, flags that may legitimately
// be zero or false are applied by cliZeroOverrides.
func cliOverrides(ctx *cli.Context) (o config.Config) {
	if ctx.IsSet("log-level") {
		o.Log.Level = ctx.String("log-level")
	}
	if ctx.IsSet("log-format") {
		o.Log.Format = ctx.String("log-format")
	}
	if ctx.IsSet("otel-grpc-endpoint") {
		o.OpenTelemetry.GRPCEndpoint = ctx.String("otel-grpc-endpoint")
	}

	if ctx.IsSet("policy") {
		o.Throttle.Policy = ctx.String("policy")
	}
	if ctx.IsSet("max") {
		o.Throttle.Max = ctx.Int("max")
	}

	if ctx.IsSet("interval") {
		o.Driver.IntervalMilliseconds = int(ctx.Duration("interval").Milliseconds())
	}
	if ctx.IsSet("calls") {
		o.Driver.Calls = ctx.Int("calls")
	}

	if ctx.IsSet("listen-address") {
		o.Server.ListenAddress = ctx.String("listen-address")
	}

	return
}

// cliZeroOverrides applies the flags whose zero value is meaningful: a zero
// wait disables throttling and --server-enabled=false turns the server off.
func cliZeroOverrides(ctx *cli.Context, cfg *config.Config) {
	if ctx.IsSet("wait") {
		cfg.Throttle.WaitMilliseconds = int(ctx.Duration("wait").Milliseconds())
	}
	if ctx.IsSet("server-enabled") {
		cfg.Server.Enabled = ctx.Bool("server-enabled")
	}
}

// exit logs the execution time and error (if any), then returns a CLI exit code.
func exit(exitCode int, err error) cli.ExitCoder {
	defer log.WithFields(
		log.Fields{
			"execution-time": time.Since(start), // nolint: govet
		},
	).Debug("exited..")

	if err != nil {
		log.WithError(err).Error()
	}

	return cli.Exit("", exitCode)
}

// ExecWrapper gracefully logs and exits our `run` functions.
// It wraps a function returning (int, error) into a `cli.ActionFunc` compatible with urfave/cli.
func ExecWrapper(f func(ctx *cli.Context) (int, error)) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		return exit(f(ctx))
	}
}
