package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/grovetools/ckanconsole/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCamelToSnake(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"ToggleInstall", "toggle_install"},
		{"HTTPServer", "h_t_t_p_server"},
		{"Up", "up"},
		{"A", "a"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, camelToSnake(tt.input))
		})
	}
}

type testKeyMap struct {
	Base
	ToggleInstall key.Binding
	Commit        key.Binding
	Discard       key.Binding `keymap:"discard_all"`
	unexported    key.Binding
	NotABinding   string
}

func TestApplyOverrides(t *testing.T) {
	km := testKeyMap{
		Base:          NewBase(),
		ToggleInstall: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "install")),
		Commit:        key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "commit")),
		NotABinding:   "not a binding",
	}

	unknown := ApplyOverrides(&km, Overrides{
		"toggle_install": {"I", "+"},
		"quit":           {"ctrl+q"},
		"discard_all":    {"X"},
		"not_a_binding":  {"x"},
		"unexported":     {"u"},
		"lauch":          {"l"},
	})

	assert.Equal(t, []string{"I", "+"}, km.ToggleInstall.Keys())
	assert.Equal(t, "install", km.ToggleInstall.Help().Desc)
	assert.Equal(t, "I", km.ToggleInstall.Help().Key)
	assert.Equal(t, []string{"ctrl+q"}, km.Quit.Keys())
	assert.Equal(t, []string{"c"}, km.Commit.Keys())
	assert.Equal(t, []string{"X"}, km.Discard.Keys())
	assert.Equal(t, "not a binding", km.NotABinding)
	assert.Equal(t, []string{"lauch", "not_a_binding", "unexported"}, unknown)
}

func TestApplyOverridesIgnoresNonPointer(t *testing.T) {
	km := testKeyMap{Base: NewBase()}
	assert.Nil(t, ApplyOverrides(km, Overrides{"quit": {"x"}}))
	assert.Equal(t, []string{"q", "ctrl+c"}, km.Quit.Keys())
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := config.LoadFromBytes([]byte(`
version: "1.0"
tui:
  keybindings:
    commit: ["C"]
`), "yaml")
	require.NoError(t, err)

	overrides, err := LoadOverrides(cfg)
	require.NoError(t, err)
	assert.Equal(t, Overrides{"commit": {"C"}}, overrides)
}
