package logger

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// Config Struct that holds logging configuration options.
type Config struct {
	Level        string    // Logging level (e.g., "info", "debug", "error")
	Format       string    // Logging format ("text" or "json")
	ReportCaller bool      // Whether to include the calling method/file in the logs
	Output       io.Writer // Destination of the logs, defaults to standard output
}

// Configure sets up the standard logger according to the provided Config settings.
func Configure(c Config) (err error) {
	// Parse and set the log level
	parsedLevel, err := log.ParseLevel(c.Level)
	if err != nil {
		return // Return error if the log level is invalid
	}

	var formatter log.Formatter
	switch c.Format {
	case "text", "":
		formatter = &log.TextFormatter{
			FullTimestamp: true,
		}
	case "json":
		formatter = &log.JSONFormatter{}
	default:
		err = fmt.Errorf("invalid log format '%s'", c.Format)
		return // Return error for unsupported formats
	}

	out := c.Output
	if out == nil {
		out = os.Stdout
	}

	log.SetLevel(parsedLevel)
	log.SetFormatter(formatter)
	log.SetReportCaller(c.ReportCaller)
	log.SetOutput(out)

	return // Return nil if everything is configured successfully
}
