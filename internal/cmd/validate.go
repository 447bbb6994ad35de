package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// Validate checks whether the application configuration is valid and prints
// the effective configuration, defaults and overrides included.
func Validate(cliCtx *cli.Context) (int, error) {
	log.Debug("Validating configuration..")

	cfg, err := configure(cliCtx)
	if err != nil {
		log.WithError(err).Error("Failed to configure")
		return 1, err
	}

	// The config also has to translate into throttle options
	if _, err = cfg.Throttle.Options(); err != nil {
		return 1, err
	}

	fmt.Fprint(cliCtx.App.Writer, cfg.ToYAML())
	log.Debug("Configuration is valid")

	return 0, nil
}
