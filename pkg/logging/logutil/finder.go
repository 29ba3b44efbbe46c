// Package logutil locates the console's log files.
package logutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/grovetools/ckanconsole/config"
	"github.com/grovetools/ckanconsole/logging"
	"github.com/grovetools/ckanconsole/pkg/paths"
	"github.com/grovetools/ckanconsole/util/pathutil"
)

var logFileName = regexp.MustCompile(`^(.+)-(\d{4}-\d{2}-\d{2})\.log$`)

// FindLogFiles maps each component to its newest log file. A configured
// logging.file.path replaces the directory scan.
func FindLogFiles(components []string) (map[string]string, error) {
	var logCfg logging.Config
	if cfg, err := config.LoadDefault(); err == nil {
		_ = cfg.UnmarshalExtension("logging", &logCfg)
	}
	if logCfg.File.Path != "" {
		path := pathutil.MustExpand(logCfg.File.Path)
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return map[string]string{name: path}, nil
	}

	return LatestLogFiles(paths.LogDir(), components)
}

// LatestLogFiles returns the newest <component>-<date>.log per component in
// dir, restricted to components when it is non-empty. A missing directory
// yields no files.
func LatestLogFiles(dir string, components []string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not read log directory %s: %w", dir, err)
	}

	wanted := make(map[string]bool, len(components))
	for _, c := range components {
		wanted[c] = true
	}

	latest := make(map[string]string)
	dates := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := logFileName.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		component, date := m[1], m[2]
		if len(wanted) > 0 && !wanted[component] {
			continue
		}
		if date > dates[component] {
			dates[component] = date
			latest[component] = filepath.Join(dir, entry.Name())
		}
	}
	return latest, nil
}
