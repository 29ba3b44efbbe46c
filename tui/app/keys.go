package app

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/grovetools/ckanconsole/pkg/router"
	"github.com/grovetools/ckanconsole/tui/keymap"
)

// KeyMap holds every binding of the console.
type KeyMap struct {
	keymap.Base

	NewInstance     key.Binding
	Deselect        key.Binding
	ToggleInstall   key.Binding
	ToggleUninstall key.Binding
	Detail          key.Binding
	Commit          key.Binding
	Discard         key.Binding
	PickPath        key.Binding
	PickDeployment  key.Binding
	NextField       key.Binding
	PrevField       key.Binding
}

// NewKeyMap returns the default bindings with overrides applied, and the
// override names that matched no binding.
func NewKeyMap(overrides keymap.Overrides) (KeyMap, []string) {
	km := KeyMap{
		Base: keymap.NewBase(),
		NewInstance: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new instance"),
		),
		Deselect: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear selection"),
		),
		ToggleInstall: key.NewBinding(
			key.WithKeys("i", "+"),
			key.WithHelp("i", "toggle install"),
		),
		ToggleUninstall: key.NewBinding(
			key.WithKeys("u", "-"),
			key.WithHelp("u", "toggle uninstall"),
		),
		Detail: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "details"),
		),
		Commit: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "commit changes"),
		),
		Discard: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "discard changes"),
		),
		PickPath: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "choose game directory"),
		),
		PickDeployment: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "choose deployment directory"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "previous field"),
		),
	}
	unknown := keymap.ApplyOverrides(&km, overrides)
	return km, unknown
}

// screenKeys is the help.KeyMap of one screen.
type screenKeys struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k screenKeys) ShortHelp() []key.Binding  { return k.short }
func (k screenKeys) FullHelp() [][]key.Binding { return k.full }

func (k KeyMap) forScreen(s router.Screen) screenKeys {
	switch s {
	case router.InstanceCreator:
		confirm := key.NewBinding(key.WithKeys(k.Confirm.Keys()...), key.WithHelp(k.Confirm.Help().Key, "create"))
		return screenKeys{
			short: []key.Binding{confirm, k.NextField, k.PickPath, k.PickDeployment, k.Back},
			full:  [][]key.Binding{{confirm, k.Back}, {k.NextField, k.PrevField}, {k.PickPath, k.PickDeployment}},
		}
	case router.PackageInstaller:
		return screenKeys{
			short: []key.Binding{k.ToggleInstall, k.ToggleUninstall, k.Commit, k.Search, k.Back, k.Help},
			full: [][]key.Binding{
				{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
				{k.Search, k.Refresh},
				{k.ToggleInstall, k.ToggleUninstall, k.Detail},
				{k.Commit, k.Discard, k.Back, k.Quit},
			},
		}
	default:
		open := key.NewBinding(key.WithKeys(k.Confirm.Keys()...), key.WithHelp(k.Confirm.Help().Key, "open"))
		return screenKeys{
			short: []key.Binding{open, k.NewInstance, k.Refresh, k.Quit, k.Help},
			full: [][]key.Binding{
				{k.Up, k.Down, open},
				{k.NewInstance, k.Deselect, k.Refresh, k.Quit},
			},
		}
	}
}
