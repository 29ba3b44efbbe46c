package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Default values applied by SetDefaults.
const (
	DefaultHostURL         = "ws://127.0.0.1:7878/bridge"
	DefaultCommandTimeout  = "30s"
	DefaultMaxAttempts     = 3
	DefaultInitialInterval = "200ms"
	DefaultMaxInterval     = "2s"
	DefaultStartScreen     = "instance-selector"
)

// HostConfig describes how to reach the host process.
type HostConfig struct {
	URL            string `yaml:"url,omitempty" toml:"url,omitempty" jsonschema:"description=WebSocket URL of the host bridge"`
	CommandTimeout string `yaml:"command_timeout,omitempty" toml:"command_timeout,omitempty" jsonschema:"description=Deadline applied to a host command when the caller sets none (default: 30s)"`
}

// RetryConfig bounds the retries of idempotent read commands.
type RetryConfig struct {
	MaxAttempts     int    `yaml:"max_attempts,omitempty" toml:"max_attempts,omitempty" jsonschema:"description=Attempts per read command including the first (default: 3),minimum=1"`
	InitialInterval string `yaml:"initial_interval,omitempty" toml:"initial_interval,omitempty" jsonschema:"description=Backoff before the first retry (default: 200ms)"`
	MaxInterval     string `yaml:"max_interval,omitempty" toml:"max_interval,omitempty" jsonschema:"description=Upper bound for a single backoff (default: 2s)"`
}

// UIConfig holds console behavior settings.
type UIConfig struct {
	StartScreen       string `yaml:"start_screen,omitempty" toml:"start_screen,omitempty" jsonschema:"description=Screen shown at startup,enum=instance-selector,enum=instance-creator,enum=package-installer"`
	RememberSelection *bool  `yaml:"remember_selection,omitempty" toml:"remember_selection,omitempty" jsonschema:"description=Restore the last selected instance on startup (default: true)"`
}

// Config represents the ckan-console configuration file.
type Config struct {
	Version string      `yaml:"version" toml:"version" jsonschema:"description=Configuration version (e.g. 1.0)"`
	Host    HostConfig  `yaml:"host,omitempty" toml:"host,omitempty" jsonschema:"description=Host bridge connection"`
	Retry   RetryConfig `yaml:"retry,omitempty" toml:"retry,omitempty" jsonschema:"description=Retry policy for read commands"`
	UI      UIConfig    `yaml:"ui,omitempty" toml:"ui,omitempty" jsonschema:"description=Console behavior"`

	// Extensions holds every other top-level section (for example logging),
	// decoded on demand with UnmarshalExtension.
	Extensions map[string]interface{} `yaml:",inline" toml:"-" jsonschema:"-"`
}

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.Host.URL == "" {
		c.Host.URL = DefaultHostURL
	}
	if c.Host.CommandTimeout == "" {
		c.Host.CommandTimeout = DefaultCommandTimeout
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if c.Retry.InitialInterval == "" {
		c.Retry.InitialInterval = DefaultInitialInterval
	}
	if c.Retry.MaxInterval == "" {
		c.Retry.MaxInterval = DefaultMaxInterval
	}
	if c.UI.StartScreen == "" {
		c.UI.StartScreen = DefaultStartScreen
	}
	if c.UI.RememberSelection == nil {
		trueVal := true
		c.UI.RememberSelection = &trueVal
	}
}

// CommandTimeout returns the parsed host command timeout.
func (c *Config) CommandTimeout() time.Duration {
	return parseDurationOr(c.Host.CommandTimeout, 30*time.Second)
}

// RetryIntervals returns the parsed initial and maximum backoff.
func (c *Config) RetryIntervals() (initial, max time.Duration) {
	return parseDurationOr(c.Retry.InitialInterval, 200*time.Millisecond),
		parseDurationOr(c.Retry.MaxInterval, 2*time.Second)
}

// ShouldRememberSelection reports whether the last instance is restored at startup.
func (c *Config) ShouldRememberSelection() bool {
	return c.UI.RememberSelection == nil || *c.UI.RememberSelection
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// UnmarshalExtension decodes a specific extension's configuration into the
// provided target struct. The target must be a pointer. A missing key is not
// an error; the target keeps its zero value.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
