// Package router tracks which top-level screen of the console is active.
package router

import "fmt"

// Screen identifies a top-level view. Exactly one is active at a time.
type Screen string

const (
	InstanceSelector Screen = "instance-selector"
	InstanceCreator  Screen = "instance-creator"
	PackageInstaller Screen = "package-installer"
)

// Screens lists every screen in display order.
var Screens = []Screen{InstanceSelector, InstanceCreator, PackageInstaller}

// Valid reports whether s names a known screen.
func (s Screen) Valid() bool {
	switch s {
	case InstanceSelector, InstanceCreator, PackageInstaller:
		return true
	}
	return false
}

// Title returns the human-readable name of the screen.
func (s Screen) Title() string {
	switch s {
	case InstanceSelector:
		return "Instances"
	case InstanceCreator:
		return "New Instance"
	case PackageInstaller:
		return "Packages"
	}
	return string(s)
}

// ParseScreen converts a configuration or state value into a Screen.
func ParseScreen(s string) (Screen, error) {
	screen := Screen(s)
	if !screen.Valid() {
		return "", fmt.Errorf("unknown screen %q", s)
	}
	return screen, nil
}
