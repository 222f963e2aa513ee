package docker

import (
	"errors"
	"fmt"
	"strings"
)

// Config holds Docker connection settings.
type Config struct {
	// Host is the daemon address. Empty uses DOCKER_HOST and the other
	// standard environment variables.
	Host       string     `yaml:"host" mapstructure:"host"`
	APIVersion string     `yaml:"api_version" mapstructure:"api_version"`
	TLS        *TLSConfig `yaml:"tls" mapstructure:"tls"`
	// Network is joined by containers that do not name one.
	Network  string `yaml:"network" mapstructure:"network"`
	Platform string `yaml:"platform" mapstructure:"platform"`
}

// TLSConfig holds Docker TLS settings.
type TLSConfig struct {
	CACert string `yaml:"ca_cert" mapstructure:"ca_cert"`
	Cert   string `yaml:"cert" mapstructure:"cert"`
	Key    string `yaml:"key" mapstructure:"key"`
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.TLS != nil && (c.TLS.Cert == "" || c.TLS.Key == "") {
		return errors.New("docker: tls cert and key are both required when tls is enabled")
	}
	if c.Platform != "" {
		if os, arch, ok := strings.Cut(c.Platform, "/"); !ok || os == "" || arch == "" {
			return fmt.Errorf("docker: platform %q must be os/arch", c.Platform)
		}
	}
	return nil
}
