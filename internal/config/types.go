package config

import (
	"time"

	"github.com/aristath/careercrew/internal/logging"
)

// ProviderConfig describes one text-generation backend. Several chains can
// reference the same provider.
type ProviderConfig struct {
	Type          string        `json:"type" mapstructure:"type" yaml:"type" validate:"required,oneof=gemini openai command"`
	Model         string        `json:"model,omitempty" mapstructure:"model" yaml:"model,omitempty" validate:"required_unless=Type command"`
	BaseURL       string        `json:"base_url,omitempty" mapstructure:"base_url" yaml:"base_url,omitempty" validate:"required_if=Type openai"`
	Temperature   *float64      `json:"temperature,omitempty" mapstructure:"temperature" yaml:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	CredentialEnv string        `json:"credential_env,omitempty" mapstructure:"credential_env" yaml:"credential_env,omitempty"` // Environment variable holding the API key
	Command       string        `json:"command,omitempty" mapstructure:"command" yaml:"command,omitempty" validate:"required_if=Type command"`
	Args          []string      `json:"args,omitempty" mapstructure:"args" yaml:"args,omitempty"`
	Timeout       time.Duration `json:"timeout,omitempty" mapstructure:"timeout" yaml:"timeout,omitempty" validate:"gte=0"`
}

// RetryConfig bounds the attempts made against a single provider.
type RetryConfig struct {
	MaxRetries     int           `json:"max_retries" mapstructure:"max_retries" yaml:"max_retries" validate:"gte=1"`
	BaseDelay      time.Duration `json:"base_delay" mapstructure:"base_delay" yaml:"base_delay" validate:"gt=0"`
	MaxDelay       time.Duration `json:"max_delay" mapstructure:"max_delay" yaml:"max_delay" validate:"gtefield=BaseDelay"`
	AttemptTimeout time.Duration `json:"attempt_timeout,omitempty" mapstructure:"attempt_timeout" yaml:"attempt_timeout,omitempty" validate:"gte=0"`
}

// BreakerConfig configures the per-provider circuit breakers.
type BreakerConfig struct {
	Enabled             bool          `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
	ConsecutiveFailures uint32        `json:"consecutive_failures" mapstructure:"consecutive_failures" yaml:"consecutive_failures" validate:"required_if=Enabled true"`
	OpenTimeout         time.Duration `json:"open_timeout" mapstructure:"open_timeout" yaml:"open_timeout" validate:"gte=0"`
	HalfOpenRequests    uint32        `json:"half_open_requests" mapstructure:"half_open_requests" yaml:"half_open_requests"`
}

// EngineConfig holds run-level settings.
type EngineConfig struct {
	TaskTimeout  time.Duration `json:"task_timeout,omitempty" mapstructure:"task_timeout" yaml:"task_timeout,omitempty" validate:"gte=0"`
	DisableBatch bool          `json:"disable_batch,omitempty" mapstructure:"disable_batch" yaml:"disable_batch,omitempty"`

	// Extra classifier substrings, added to the built-in lists.
	FatalPatterns     []string `json:"fatal_patterns,omitempty" mapstructure:"fatal_patterns" yaml:"fatal_patterns,omitempty"`
	RetryablePatterns []string `json:"retryable_patterns,omitempty" mapstructure:"retryable_patterns" yaml:"retryable_patterns,omitempty"`
}

// ServerConfig configures the HTTP host.
type ServerConfig struct {
	Addr            string        `json:"addr" mapstructure:"addr" yaml:"addr" validate:"required"`
	StaticDir       string        `json:"static_dir,omitempty" mapstructure:"static_dir" yaml:"static_dir,omitempty"` // Overrides the embedded assets
	ReadTimeout     time.Duration `json:"read_timeout" mapstructure:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `json:"write_timeout" mapstructure:"write_timeout" yaml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gte=0"`
	MaxInputLen     int           `json:"max_input_len" mapstructure:"max_input_len" yaml:"max_input_len" validate:"gt=0"`
}

// Config is the top-level configuration.
type Config struct {
	Server    ServerConfig              `json:"server" mapstructure:"server" yaml:"server"`
	Logging   logging.Config            `json:"logging" mapstructure:"logging" yaml:"logging"`
	Retry     RetryConfig               `json:"retry" mapstructure:"retry" yaml:"retry"`
	Breaker   BreakerConfig             `json:"breaker" mapstructure:"breaker" yaml:"breaker"`
	Engine    EngineConfig              `json:"engine" mapstructure:"engine" yaml:"engine"`
	Providers map[string]ProviderConfig `json:"providers" mapstructure:"providers" yaml:"providers" validate:"required,min=1,dive"`
	Chains    map[string][]string       `json:"chains" mapstructure:"chains" yaml:"chains" validate:"required,min=1,dive,min=1,dive,required"` // Task kind -> ranked provider names
}
