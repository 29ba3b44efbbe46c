// Package state persists small pieces of console UI state between runs,
// such as the last selected instance and the last active screen.
package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/grovetools/ckanconsole/pkg/paths"
	"gopkg.in/yaml.v3"
)

// UI is what the console remembers about its last session.
type UI struct {
	LastInstance string    `yaml:"last_instance,omitempty"`
	LastScreen   string    `yaml:"last_screen,omitempty"`
	UpdatedAt    time.Time `yaml:"updated_at,omitempty"`
}

// File is the on-disk layout of state.yml.
type File struct {
	UI UI `yaml:"ui"`
}

var errCorrupt = errors.New("parse state file")

// serializes read-modify-write cycles within the process
var mu sync.Mutex

func filePath() (string, error) {
	path := paths.StateFile()
	if path == "" {
		return "", fmt.Errorf("cannot resolve state directory")
	}
	return path, nil
}

// Load reads the state file. A missing file yields the zero state.
func Load() (File, error) {
	mu.Lock()
	defer mu.Unlock()
	return load()
}

func load() (File, error) {
	var f File
	path, err := filePath()
	if err != nil {
		return f, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return f, fmt.Errorf("read state file: %w", err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	return f, nil
}

func save(f File) error {
	path, err := filePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	// write-then-rename so a crash never leaves a truncated file
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// Update applies fn to the stored UI state and writes the result. A state
// file that cannot be parsed is replaced.
func Update(fn func(*UI)) error {
	mu.Lock()
	defer mu.Unlock()

	f, err := load()
	if err != nil && !errors.Is(err, errCorrupt) {
		return err
	}
	fn(&f.UI)
	f.UI.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	return save(f)
}

// RememberInstance stores name as the last selected instance. An empty name
// forgets it.
func RememberInstance(name string) error {
	return Update(func(ui *UI) { ui.LastInstance = name })
}

// RememberScreen stores the last active screen.
func RememberScreen(screen string) error {
	return Update(func(ui *UI) { ui.LastScreen = screen })
}
