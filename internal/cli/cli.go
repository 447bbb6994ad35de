package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/helvethink/throttle/internal/cmd"
)

// Run handles the instantiation of the CLI application.
func Run(version string, args []string) {
	err := NewApp(version, time.Now()).Run(args)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// NewApp configures the CLI application.
func NewApp(version string, start time.Time) (app *cli.App) {
	app = cli.NewApp()
	app.Name = "throttle-demo"
	app.Version = version
	app.Usage = "Drive a throttled progress reporter at a fixed cadence"
	app.EnableBashCompletion = true

	app.Flags = cli.FlagsByName{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			EnvVars: []string{"THROTTLE_CONFIG"},
			Usage:   "config `file`, defaults are used when omitted",
		},
		&cli.StringFlag{
			Name:    "log-level",
			EnvVars: []string{"THROTTLE_LOG_LEVEL"},
			Usage:   "log `level` (trace, debug, info, warning, error, fatal, panic)",
		},
		&cli.StringFlag{
			Name:    "log-format",
			EnvVars: []string{"THROTTLE_LOG_FORMAT"},
			Usage:   "log `format` (text, json)",
		},
		&cli.StringFlag{
			Name:    "otel-grpc-endpoint",
			EnvVars: []string{"THROTTLE_OTEL_GRPC_ENDPOINT"},
			Usage:   "OpenTelemetry collector gRPC `address`",
		},
	}

	runFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "policy",
			Aliases: []string{"p"},
			EnvVars: []string{"THROTTLE_POLICY"},
			Usage:   "throttling `policy` (leading-trailing, max-count, cooldown)",
		},
		&cli.DurationFlag{
			Name:    "wait",
			Aliases: []string{"w"},
			EnvVars: []string{"THROTTLE_WAIT"},
			Usage:   "window `duration`",
		},
		&cli.IntFlag{
			Name:    "max",
			EnvVars: []string{"THROTTLE_MAX"},
			Usage:   "runs allowed per window, max-count policy only",
		},
		&cli.DurationFlag{
			Name:    "interval",
			EnvVars: []string{"THROTTLE_DRIVER_INTERVAL"},
			Usage:   "`duration` between two driver calls",
		},
		&cli.IntFlag{
			Name:    "calls",
			EnvVars: []string{"THROTTLE_DRIVER_CALLS"},
			Usage:   "number of driver calls",
		},
		&cli.BoolFlag{
			Name:    "server-enabled",
			EnvVars: []string{"THROTTLE_SERVER_ENABLED"},
			Usage:   "serve metrics and health endpoints while running",
		},
		&cli.StringFlag{
			Name:    "listen-address",
			EnvVars: []string{"THROTTLE_LISTEN_ADDRESS"},
			Usage:   "http server listen `address`",
		},
	}

	app.Commands = cli.CommandsByName{
		{
			Name:   "run",
			Usage:  "start the driver",
			Action: cmd.ExecWrapper(cmd.Run),
			Flags:  runFlags,
		},
		{
			Name:   "validate",
			Usage:  "validate the configuration and print it with defaults applied",
			Action: cmd.ExecWrapper(cmd.Validate),
			Flags:  runFlags,
		},
	}

	app.Metadata = map[string]interface{}{
		"startTime": start,
	}

	return
}
