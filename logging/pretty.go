package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/ckanconsole/tui/theme"
)

// PrettyLogger writes styled messages for a person at a terminal. Structured
// records go to the component loggers instead.
type PrettyLogger struct {
	writer io.Writer
	styles PrettyStyles
}

// PrettyStyles holds one style per message kind.
type PrettyStyles struct {
	Success lipgloss.Style
	Info    lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Hint    lipgloss.Style
	Key     lipgloss.Style
	Value   lipgloss.Style
}

// StylesFromTheme derives pretty styles from a console theme.
func StylesFromTheme(t *theme.Theme) PrettyStyles {
	return PrettyStyles{
		Success: t.Success,
		Info:    t.Info,
		Warning: t.Warning,
		Error:   t.Error,
		Hint:    t.Muted,
		Key:     t.Muted,
		Value:   t.Highlight,
	}
}

// NewPrettyLogger creates a pretty logger writing to stderr in the default theme.
func NewPrettyLogger() *PrettyLogger {
	return &PrettyLogger{
		writer: os.Stderr,
		styles: StylesFromTheme(theme.DefaultTheme),
	}
}

// WithWriter sets a custom writer for pretty output
func (p *PrettyLogger) WithWriter(w io.Writer) *PrettyLogger {
	p.writer = w
	return p
}

func (p *PrettyLogger) Success(message string) {
	fmt.Fprintln(p.writer, p.styles.Success.Render("✓ "+message))
}

func (p *PrettyLogger) InfoPretty(message string) {
	fmt.Fprintln(p.writer, p.styles.Info.Render(message))
}

func (p *PrettyLogger) WarnPretty(message string) {
	fmt.Fprintln(p.writer, p.styles.Warning.Render("⚠ "+message))
}

// ErrorPretty prints message, followed by err when it is non-nil.
func (p *PrettyLogger) ErrorPretty(message string, err error) {
	if err != nil {
		message += ": " + err.Error()
	}
	fmt.Fprintln(p.writer, p.styles.Error.Render("✗ "+message))
}

// Hint prints an indented suggestion, typically after ErrorPretty.
func (p *PrettyLogger) Hint(format string, args ...any) {
	fmt.Fprintln(p.writer, p.styles.Hint.Render("  → "+fmt.Sprintf(format, args...)))
}

func (p *PrettyLogger) Field(key string, value any) {
	fmt.Fprintf(p.writer, "  %s %s\n",
		p.styles.Key.Render(key+":"),
		p.styles.Value.Render(fmt.Sprint(value)))
}
