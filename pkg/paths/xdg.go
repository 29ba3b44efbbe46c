// Package paths provides XDG-compliant path resolution for the console.
//
// Resolution order:
// 1. CKAN_CONSOLE_HOME (portable root) → $CKAN_CONSOLE_HOME/{config,state}
// 2. XDG env vars → $XDG_*_HOME/ckan-console
// 3. Platform defaults → ~/.config/ckan-console, ~/.local/state/ckan-console
package paths

import (
	"os"
	"path/filepath"
)

const appDir = "ckan-console"

// HomeEnv names the variable that relocates every console directory.
const HomeEnv = "CKAN_CONSOLE_HOME"

func baseDir(sub, xdgVar string, fallback ...string) string {
	if home := os.Getenv(HomeEnv); home != "" {
		return filepath.Join(home, sub)
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, appDir)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(append([]string{homeDir}, append(fallback, appDir)...)...)
	}
	return ""
}

// ConfigDir returns the console configuration directory.
func ConfigDir() string {
	return baseDir("config", "XDG_CONFIG_HOME", ".config")
}

// StateDir returns the directory for persisted UI state and logs.
func StateDir() string {
	return baseDir("state", "XDG_STATE_HOME", ".local", "state")
}

// LogDir returns the directory log files are written to.
func LogDir() string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "logs")
}

// StateFile returns the path of the persisted UI state file.
func StateFile() string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "state.yml")
}

// EnsureDirs creates the console directories if they don't exist.
func EnsureDirs() error {
	for _, dir := range []string{ConfigDir(), StateDir(), LogDir()} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
