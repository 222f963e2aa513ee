package probe

import (
	"fmt"
	"time"

	"github.com/kbukum/stackup/validation"
)

// Kind names a readiness check.
type Kind string

// Built-in check kinds.
const (
	KindTCP      Kind = "tcp-connect"
	KindHTTP     Kind = "http-get"
	KindExec     Kind = "exec-check"
	KindPostgres Kind = "postgres"
	KindRedis    Kind = "redis"
)

// Spec configures the readiness probe of one service.
type Spec struct {
	// Kind selects the checker.
	Kind Kind `yaml:"kind" mapstructure:"kind" validate:"required"`
	// Target is what the checker probes: host:port, URL, shell command,
	// PostgreSQL DSN or Redis address.
	Target string `yaml:"target" mapstructure:"target" validate:"required"`
	// Timeout bounds one attempt.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	// RetryInterval is the pause between two attempts.
	RetryInterval time.Duration `yaml:"retry_interval" mapstructure:"retry_interval" validate:"gte=0"`
	// MaxAttempts caps the number of attempts.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts" validate:"gte=1"`
}

// WithDefaults returns s with every zero field taken from d.
func (s Spec) WithDefaults(d Spec) Spec {
	if s.Timeout == 0 {
		s.Timeout = d.Timeout
	}
	if s.RetryInterval == 0 {
		s.RetryInterval = d.RetryInterval
	}
	if s.MaxAttempts == 0 {
		s.MaxAttempts = d.MaxAttempts
	}
	return s
}

// Validate checks that a kind and target are set,
// Timeout > 0 and MaxAttempts >= 1.
func (s Spec) Validate() error {
	return validation.Validate(s)
}

func (s Spec) String() string {
	return fmt.Sprintf("%s %s", s.Kind, s.Target)
}
