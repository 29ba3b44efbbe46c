// Package keymap holds the console's key bindings and their user overrides.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// Base contains the bindings shared by every console screen.
type Base struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding

	Confirm key.Binding
	Back    key.Binding
	Refresh key.Binding
	Search  key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func binding(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// NewBase returns the default vim-style bindings.
func NewBase() Base {
	return Base{
		Up:       binding("k/↑", "up", "k", "up"),
		Down:     binding("j/↓", "down", "j", "down"),
		PageUp:   binding("C-u", "page up", "ctrl+u", "pgup"),
		PageDown: binding("C-d", "page down", "ctrl+d", "pgdown"),
		Top:      binding("g", "first", "g", "home"),
		Bottom:   binding("G", "last", "G", "end"),

		Confirm: binding("enter", "confirm", "enter"),
		Back:    binding("esc", "back", "esc"),
		Refresh: binding("r", "refresh", "r", "ctrl+r"),
		Search:  binding("/", "filter", "/"),
		Help:    binding("?", "help", "?"),
		Quit:    binding("q", "quit", "q", "ctrl+c"),
	}
}
