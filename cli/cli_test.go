package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grovetools/ckanconsole/errors"
	"github.com/grovetools/ckanconsole/pkg/paths"
	"github.com/grovetools/ckanconsole/tui/theme"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOptions(t *testing.T) {
	cmd := NewStandardCommand("ckan-console", "test")
	require.NoError(t, cmd.ParseFlags([]string{"-v", "--json", "-c", "x.yml", "--host", "ws://h/b"}))

	opts := GetOptions(cmd)
	assert.True(t, opts.Verbose)
	assert.True(t, opts.JSONOutput)
	assert.Equal(t, "x.yml", opts.ConfigFile)
	assert.Equal(t, "ws://h/b", opts.Host)
}

func TestLoadConfigHostOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(paths.HomeEnv, dir)
	path := filepath.Join(dir, "ckan-console.yml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1.0\"\nhost:\n  url: ws://config/bridge\n"), 0o644))

	cmd := NewStandardCommand("ckan-console", "test")
	require.NoError(t, cmd.ParseFlags([]string{"-c", path}))
	cfg, err := LoadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "ws://config/bridge", cfg.Host.URL)

	cmd = NewStandardCommand("ckan-console", "test")
	require.NoError(t, cmd.ParseFlags([]string{"-c", path, "--host", "ws://flag/bridge"}))
	cfg, err = LoadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "ws://flag/bridge", cfg.Host.URL)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cmd := NewStandardCommand("ckan-console", "test")
	require.NoError(t, cmd.ParseFlags([]string{"-c", filepath.Join(t.TempDir(), "missing.yml")}))

	_, err := LoadConfig(cmd)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no instance", errors.NoInstance(), "No instance selected"},
		{"host command", errors.HostCommandError("change_packages", "locked", nil), `"change_packages" failed`},
		{"unreachable", errors.HostUnreachable("ws://x", assert.AnError), "ws://x"},
		{"input", errors.InvalidInput("name", "must not be empty"), "name: must not be empty"},
		{"plain", assert.AnError, assert.AnError.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			returned := NewErrorHandlerTo(&buf, false).Handle(tt.err)
			assert.Equal(t, tt.err, returned)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestErrorHandlerVerboseDetails(t *testing.T) {
	var buf bytes.Buffer
	NewErrorHandlerTo(&buf, true).Handle(errors.HostCommandError("get_instances", "boom", nil))
	assert.Contains(t, buf.String(), `"command": "get_instances"`)
}

func TestPrintTablePlain(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, []string{"NAME", "VERSION"}, [][]string{{"ModuleManager", "4.2.3"}})
	assert.Equal(t, "NAME\tVERSION\nModuleManager\t4.2.3\n", buf.String())
}

func TestWrapText(t *testing.T) {
	wrapped := wrapText("one two three four", 9)
	for _, line := range strings.Split(wrapped, "\n") {
		assert.LessOrEqual(t, len(line), 9)
	}
	assert.Equal(t, "keep\nbreaks", wrapText("keep\nbreaks", 20))
}

func TestRenderHelp(t *testing.T) {
	root := NewStandardCommand("ckan-console", "Manage KSP mods")
	root.Annotations = map[string]string{EnvAnnotation: "CKAN_CONSOLE_HOME relocates every console directory"}
	root.AddGroup(&cobra.Group{ID: "packages", Title: "Packages"})
	root.AddCommand(&cobra.Command{Use: "install", Short: "Install packages", GroupID: "packages", Run: func(*cobra.Command, []string) {}})
	root.AddCommand(&cobra.Command{Use: "instances", Short: "List instances", Run: func(*cobra.Command, []string) {}})

	var buf bytes.Buffer
	renderHelp(&buf, root, theme.NewThemeWithName("terminal"), 60)
	out := buf.String()
	assert.Contains(t, out, "CKAN-CONSOLE")
	assert.Contains(t, out, "--host")
	assert.Contains(t, out, "CKAN_CONSOLE_HOME")

	packages := strings.Index(out, "PACKAGES")
	other := strings.Index(out, "OTHER COMMANDS")
	require.NotEqual(t, -1, packages)
	require.NotEqual(t, -1, other)
	assert.Less(t, packages, strings.Index(out, "install"))
	assert.Less(t, other, strings.Index(out, "instances"))
}

func TestRenderHelpGlobalFlags(t *testing.T) {
	root := NewStandardCommand("ckan-console", "Manage KSP mods")
	sub := &cobra.Command{Use: "packages", Short: "List packages", Run: func(*cobra.Command, []string) {}}
	sub.Flags().Bool("installed", false, "Only installed packages")
	root.AddCommand(sub)

	var buf bytes.Buffer
	renderHelp(&buf, sub, theme.NewThemeWithName("terminal"), 60)
	out := buf.String()
	local := strings.Index(out, "--installed")
	global := strings.Index(out, "GLOBAL FLAGS")
	require.NotEqual(t, -1, global)
	assert.Less(t, local, global)
	assert.Greater(t, strings.Index(out, "--host"), global)
}
