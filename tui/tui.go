// Package tui holds the terminal interface shared pieces: the color theme,
// the key bindings and terminal setup.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// InitializeTUI sets the lipgloss color profile from the environment.
// NO_COLOR disables color; CLICOLOR_FORCE or COLORTERM=truecolor force true
// color when output is not a terminal, as under a test harness.
func InitializeTUI() {
	switch {
	case os.Getenv("NO_COLOR") != "":
		lipgloss.SetColorProfile(termenv.Ascii)
	case os.Getenv("CLICOLOR_FORCE") == "1" || os.Getenv("COLORTERM") == "truecolor":
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}
