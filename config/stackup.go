package config

import (
	"fmt"
	"time"

	"github.com/kbukum/stackup/validation"
)

// Default run settings used when neither the config file, the environment
// nor a flag sets a value.
const (
	DefaultRunTimeout     = 5 * time.Minute
	DefaultRetryInterval  = 2 * time.Second
	DefaultMaxAttempts    = 30
	DefaultProbeTimeout   = 5 * time.Second
	DefaultStackFile      = "stack.yml"
	DefaultOTLPEndpoint   = "localhost:4318"
	DefaultMetricInterval = 15 * time.Second
)

// Config is the complete stackup configuration.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	// StackFile is the path of the stack declaration.
	StackFile     string              `yaml:"stack_file" mapstructure:"stack_file" validate:"required"`
	Run           RunConfig           `yaml:"run" mapstructure:"run"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

// RunConfig controls one orchestration run.
type RunConfig struct {
	// Timeout is the overall deadline of the run.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	// BestEffort keeps independent branches running after a node fails.
	BestEffort bool `yaml:"best_effort" mapstructure:"best_effort"`
	// RetryInterval is the pause between readiness attempts.
	RetryInterval time.Duration `yaml:"retry_interval" mapstructure:"retry_interval" validate:"gte=0"`
	// MaxAttempts caps readiness attempts per probe.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts" validate:"gte=1"`
	// ProbeTimeout bounds a single readiness attempt.
	ProbeTimeout time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout" validate:"gt=0"`
	// MaxParallel bounds concurrent node work. Zero means the graph width.
	MaxParallel int `yaml:"max_parallel" mapstructure:"max_parallel" validate:"gte=0"`
}

// ObservabilityConfig configures OpenTelemetry export.
type ObservabilityConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate     float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	MetricInterval time.Duration `yaml:"metric_interval" mapstructure:"metric_interval" validate:"gte=0"`
}

// ApplyDefaults fills unset values.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "stackup"
	}
	c.ServiceConfig.ApplyDefaults()
	if c.StackFile == "" {
		c.StackFile = DefaultStackFile
	}
	c.Run.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ApplyDefaults fills unset run values.
func (r *RunConfig) ApplyDefaults() {
	if r.Timeout == 0 {
		r.Timeout = DefaultRunTimeout
	}
	if r.RetryInterval == 0 {
		r.RetryInterval = DefaultRetryInterval
	}
	if r.MaxAttempts == 0 {
		r.MaxAttempts = DefaultMaxAttempts
	}
	if r.ProbeTimeout == 0 {
		r.ProbeTimeout = DefaultProbeTimeout
	}
}

// ApplyDefaults fills unset exporter values.
func (o *ObservabilityConfig) ApplyDefaults() {
	if o.Endpoint == "" {
		o.Endpoint = DefaultOTLPEndpoint
	}
	if o.SampleRate == 0 {
		o.SampleRate = 1.0
	}
	if o.MetricInterval == 0 {
		o.MetricInterval = DefaultMetricInterval
	}
}
