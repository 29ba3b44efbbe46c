package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/grovetools/ckanconsole/errors"
)

var validStartScreens = map[string]bool{
	"instance-selector": true,
	"instance-creator":  true,
	"package-installer": true,
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Host.URL != "" {
		u, err := url.Parse(c.Host.URL)
		if err != nil {
			return errors.ConfigInvalid(fmt.Sprintf("host.url: %v", err))
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return errors.ConfigInvalid(fmt.Sprintf("host.url: scheme must be ws or wss, got %q", u.Scheme))
		}
	}

	durations := map[string]string{
		"host.command_timeout":   c.Host.CommandTimeout,
		"retry.initial_interval": c.Retry.InitialInterval,
		"retry.max_interval":     c.Retry.MaxInterval,
	}
	for field, value := range durations {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return errors.ConfigInvalid(fmt.Sprintf("%s: %v", field, err))
		}
		if d <= 0 {
			return errors.ConfigInvalid(fmt.Sprintf("%s: must be positive", field))
		}
	}

	if c.Retry.MaxAttempts < 0 {
		return errors.ConfigInvalid("retry.max_attempts: must be at least 1")
	}

	if c.UI.StartScreen != "" && !validStartScreens[c.UI.StartScreen] {
		return errors.ConfigInvalid(fmt.Sprintf("ui.start_screen: unknown screen %q", c.UI.StartScreen))
	}

	return nil
}
