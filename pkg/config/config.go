package config

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/helvethink/throttle/pkg/throttle"
)

// validate is a global validator instance used to validate struct fields based on tags.
var validate *validator.Validate

// Config holds all the configuration parameters necessary for properly configuring the demo.
type Config struct {
	Log           Log           `yaml:"log"`           // Log holds configuration related to logging.
	OpenTelemetry OpenTelemetry `yaml:"opentelemetry"` // OpenTelemetry contains configuration settings for OpenTelemetry integration.
	Server        Server        `yaml:"server"`        // Server holds configuration related to the HTTP server.
	Throttle      Throttle      `yaml:"throttle"`      // Throttle configures the throttler wrapping the demo action.
	Driver        Driver        `yaml:"driver"`        // Driver configures the fixed-cadence caller.
}

// Log holds configuration settings related to runtime logging.
type Log struct {
	// Level sets the logging verbosity level.
	// Valid values: trace, debug, info, warning, error, fatal, panic.
	// Defaults to "info".
	Level string `default:"info" validate:"required,oneof=trace debug info warning error fatal panic" yaml:"level"`

	// Format sets the output format of the logs.
	// Valid values: "text" or "json".
	// Defaults to "text".
	Format string `default:"text" validate:"oneof=text json" yaml:"format"`
}

// OpenTelemetry holds configuration related to OpenTelemetry integration.
type OpenTelemetry struct {
	// GRPCEndpoint is the gRPC address of the OpenTelemetry collector to send traces to.
	GRPCEndpoint string `yaml:"grpc_endpoint"`
}

// Server holds the configuration for the HTTP server running alongside the demo.
type Server struct {
	// Enabled starts the HTTP server while the driver runs.
	Enabled bool `default:"false" yaml:"enabled"`

	// ListenAddress specifies the address and port the server will bind to and listen on.
	// Default is ":8080" (all interfaces on port 8080).
	ListenAddress string        `default:":8080" validate:"required_if=Enabled true" yaml:"listen_address"`
	EnablePprof   bool          `default:"false" yaml:"enable_pprof"` // EnablePprof enables profiling endpoints.
	Metrics       ServerMetrics `yaml:"metrics"`                      // Metrics contains configuration related to exposing Prometheus metrics.
}

// ServerMetrics holds configuration for the metrics HTTP endpoint.
type ServerMetrics struct {
	// EnableOpenmetricsEncoding enables OpenMetrics content encoding in the Prometheus HTTP handler.
	EnableOpenmetricsEncoding bool `default:"false" yaml:"enable_openmetrics_encoding"`
	Enabled                   bool `default:"true" yaml:"enabled"` // Enabled controls whether the /metrics endpoint is exposed.
}

// Throttle holds the policy applied to the demo action.
type Throttle struct {
	// Policy is one of leading-trailing, max-count or cooldown.
	Policy string `default:"leading-trailing" validate:"required,oneof=leading-trailing max-count cooldown" yaml:"policy"`

	// WaitMilliseconds is the window length. Zero disables throttling.
	WaitMilliseconds int `default:"500" validate:"gte=0" yaml:"wait_milliseconds"`

	// Max is the number of runs allowed per window. Only the max-count policy accepts a value other than 1.
	Max int `default:"1" validate:"gte=1,max-only-with-max-count" yaml:"max"`
}

// Driver holds the cadence of the demo caller.
type Driver struct {
	IntervalMilliseconds int `default:"50" validate:"gte=1" yaml:"interval_milliseconds"` // IntervalMilliseconds is the time between two calls.
	Calls                int `default:"101" validate:"gte=1" yaml:"calls"`                // Calls is the number of calls made before stopping.
}

// UnmarshalYAML applies the default values before decoding, so that keys
// missing from the file keep their defaults.
func (c *Config) UnmarshalYAML(v *yaml.Node) (err error) {
	// Local type without the UnmarshalYAML method to avoid recursing
	type localConfig Config

	_cfg := localConfig{}
	defaults.MustSet(&_cfg)

	if err = v.Decode(&_cfg); err != nil {
		return
	}

	*c = Config(_cfg)
	return
}

// ToYAML serializes the Config object into a YAML formatted string.
func (c Config) ToYAML() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		// Panic on error because this function assumes marshaling should never fail
		panic(err)
	}

	return string(b)
}

// Validate checks if the Config struct's fields are valid according to
// the validation rules defined via struct tags and custom validators.
func (c Config) Validate() error {
	// Initialize the validator instance if not already done
	if validate == nil {
		validate = validator.New()
		_ = validate.RegisterValidation("max-only-with-max-count", ValidateMaxOnlyWithMaxCount)
	}

	return validate.Struct(c)
}

// ValidateMaxOnlyWithMaxCount ensures a limit other than 1 is only configured
// together with the max-count policy.
func ValidateMaxOnlyWithMaxCount(v validator.FieldLevel) bool {
	return v.Field().Int() == 1 || v.Parent().FieldByName("Policy").String() == throttle.PolicyMaxCount.String()
}

// Wait returns the configured window length.
func (t Throttle) Wait() time.Duration {
	return time.Duration(t.WaitMilliseconds) * time.Millisecond
}

// Options translates the configuration into throttle options.
func (t Throttle) Options() ([]throttle.Option, error) {
	p, err := throttle.ParsePolicy(t.Policy)
	if err != nil {
		return nil, err
	}

	opts := []throttle.Option{throttle.WithPolicy(p)}
	if p == throttle.PolicyMaxCount {
		opts = append(opts, throttle.WithMax(t.Max))
	}

	return opts, nil
}

// Log returns a structured representation of the throttle configuration
// to help display it in logs for the end user.
func (t Throttle) Log() log.Fields {
	fields := log.Fields{
		"policy": t.Policy,
		"wait":   t.Wait().String(),
	}
	if t.Policy == throttle.PolicyMaxCount.String() {
		fields["max"] = t.Max
	}

	return fields
}

// Interval returns the time between two driver calls.
func (d Driver) Interval() time.Duration {
	return time.Duration(d.IntervalMilliseconds) * time.Millisecond
}

// Log returns a structured representation of the driver configuration.
func (d Driver) Log() log.Fields {
	return log.Fields{
		"interval": d.Interval().String(),
		"calls":    d.Calls,
		"duration": fmt.Sprintf("~%v", time.Duration(d.Calls-1)*d.Interval()),
	}
}

// New returns a new Config instance with default parameters set.
func New() (c Config) {
	defaults.MustSet(&c) // Apply default values to the config fields
	return
}
