package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grovetools/ckanconsole/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromBytesDefaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte("version: \"1.0\"\n"), "yaml")
	require.NoError(t, err)

	assert.Equal(t, DefaultHostURL, cfg.Host.URL)
	assert.Equal(t, 30*time.Second, cfg.CommandTimeout())
	assert.Equal(t, DefaultMaxAttempts, cfg.Retry.MaxAttempts)
	initial, max := cfg.RetryIntervals()
	assert.Equal(t, 200*time.Millisecond, initial)
	assert.Equal(t, 2*time.Second, max)
	assert.Equal(t, DefaultStartScreen, cfg.UI.StartScreen)
	assert.True(t, cfg.ShouldRememberSelection())
}

func TestLoadFromBytesFormats(t *testing.T) {
	t.Setenv("CKAN_TEST_PORT", "9000")

	tests := []struct {
		name   string
		format string
		data   string
	}{
		{
			name:   "yaml",
			format: "yaml",
			data: `
version: "1.0"
host:
  url: ws://localhost:${CKAN_TEST_PORT}/bridge
  command_timeout: 5s
retry:
  max_attempts: 5
ui:
  remember_selection: false
logging:
  level: debug
`,
		},
		{
			name:   "toml",
			format: "toml",
			data: `
version = "1.0"

[host]
url = "ws://localhost:${CKAN_TEST_PORT}/bridge"
command_timeout = "5s"

[retry]
max_attempts = 5

[ui]
remember_selection = false

[logging]
level = "debug"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromBytes([]byte(tt.data), tt.format)
			require.NoError(t, err)

			assert.Equal(t, "ws://localhost:9000/bridge", cfg.Host.URL)
			assert.Equal(t, 5*time.Second, cfg.CommandTimeout())
			assert.Equal(t, 5, cfg.Retry.MaxAttempts)
			assert.False(t, cfg.ShouldRememberSelection())

			var logCfg struct {
				Level string `yaml:"level"`
			}
			require.NoError(t, cfg.UnmarshalExtension("logging", &logCfg))
			assert.Equal(t, "debug", logCfg.Level)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad scheme", "host:\n  url: http://localhost\n"},
		{"bad duration", "host:\n  command_timeout: soon\n"},
		{"negative interval", "retry:\n  initial_interval: -1s\n"},
		{"unknown screen", "ui:\n  start_screen: settings\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.data), "yaml")
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "ckan-console.yml"))
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
}

func TestLoadFromWithLoggerMergesGlobalAndProject(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CKAN_CONSOLE_HOME", home)

	globalDir := filepath.Join(home, "config")
	require.NoError(t, os.MkdirAll(globalDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "ckan-console.yml"),
		[]byte("host:\n  url: ws://global/bridge\nretry:\n  max_attempts: 7\n"), 0644))

	project := t.TempDir()
	nested := filepath.Join(project, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(project, "ckan-console.yml"),
		[]byte("host:\n  url: ws://project/bridge\n"), 0644))

	cfg, err := LoadFromWithLogger(nested, logrus.New())
	require.NoError(t, err)
	assert.Equal(t, "ws://project/bridge", cfg.Host.URL)
	assert.Equal(t, 7, cfg.Retry.MaxAttempts)

	found, err := FindConfigFile(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(project, "ckan-console.yml"), found)
}

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"command_timeout"`)
	assert.Contains(t, string(data), `"remember_selection"`)
	assert.NotContains(t, string(data), `"Extensions"`)
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ckan-console.yml")
	require.NoError(t, os.WriteFile(path, []byte("retry:\n  max_attempts: 2\n"), 0644))

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, time.Millisecond, logrus.NewEntry(logrus.New()), func(cfg *Config) {
		reloaded <- cfg
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	// Replace the file atomically so the watcher never sees a partial write.
	tmp := filepath.Join(dir, "next.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("retry:\n  max_attempts: 4\n"), 0644))
	require.NoError(t, os.Rename(tmp, path))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}
}
