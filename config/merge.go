package config

// mergeConfigs merges override configuration into base
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Version != "" {
		result.Version = override.Version
	}

	if override.Host.URL != "" {
		result.Host.URL = override.Host.URL
	}
	if override.Host.CommandTimeout != "" {
		result.Host.CommandTimeout = override.Host.CommandTimeout
	}

	if override.Retry.MaxAttempts != 0 {
		result.Retry.MaxAttempts = override.Retry.MaxAttempts
	}
	if override.Retry.InitialInterval != "" {
		result.Retry.InitialInterval = override.Retry.InitialInterval
	}
	if override.Retry.MaxInterval != "" {
		result.Retry.MaxInterval = override.Retry.MaxInterval
	}

	if override.UI.StartScreen != "" {
		result.UI.StartScreen = override.UI.StartScreen
	}
	if override.UI.RememberSelection != nil {
		result.UI.RememberSelection = override.UI.RememberSelection
	}

	// Extensions merge per top-level key
	if len(override.Extensions) > 0 {
		merged := make(map[string]interface{}, len(base.Extensions)+len(override.Extensions))
		for k, v := range base.Extensions {
			merged[k] = v
		}
		for k, v := range override.Extensions {
			merged[k] = v
		}
		result.Extensions = merged
	}

	return &result
}
