package config

import (
	"fmt"

	"github.com/kbukum/stackup/logger"
	"github.com/kbukum/stackup/validation"
)

// Environments a stack can be brought up in.
var Environments = []string{"development", "staging", "production"}

// ServiceConfig identifies the running stackup and configures its logger.
// It is embedded inline in Config.
type ServiceConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
	// Debug lowers the default log level to debug. It is on in development.
	Debug   bool          `yaml:"debug" mapstructure:"debug"`
	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults fills the environment and derives the logger's service
// name and level.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	if c.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	c.Logging.ApplyDefaults()
}

// Validate checks the identity fields and the logger configuration.
func (c *ServiceConfig) Validate() error {
	v := validation.New()
	v.Required("config.name", c.Name)
	v.Required("config.environment", c.Environment)
	v.OneOf("config.environment", c.Environment, Environments)
	if err := v.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
