package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/ckanconsole/tui/theme"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const (
	maxWidth = 72
	minWidth = 40
)

// EnvAnnotation is the cobra annotation listing environment variables a
// command reads, one "NAME description" pair per line.
const EnvAnnotation = "ckan-console/env"

func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < minWidth {
		return maxWidth
	}
	return min(width, maxWidth)
}

// wrapText wraps text to width, preserving existing line breaks.
func wrapText(text string, width int) string {
	if width <= 0 {
		width = maxWidth
	}

	var result []string
	for _, paragraph := range strings.Split(text, "\n") {
		if len(paragraph) <= width {
			result = append(result, paragraph)
			continue
		}

		var line string
		for _, word := range strings.Fields(paragraph) {
			switch {
			case line == "":
				line = word
			case len(line)+1+len(word) <= width:
				line += " " + word
			default:
				result = append(result, line)
				line = word
			}
		}
		if line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}

// SetStyledHelp applies the console styling to a command's help output.
func SetStyledHelp(cmd *cobra.Command) {
	cmd.SetHelpFunc(styledHelpFunc)
}

// ApplyStyledHelpRecursive applies styled help to a command and all its
// subcommands. Call it after every subcommand has been added.
func ApplyStyledHelpRecursive(cmd *cobra.Command) {
	cmd.SetHelpFunc(styledHelpFunc)
	for _, sub := range cmd.Commands() {
		ApplyStyledHelpRecursive(sub)
	}
}

func styledHelpFunc(cmd *cobra.Command, args []string) {
	renderHelp(cmd.OutOrStdout(), cmd, theme.DefaultTheme, getTerminalWidth()-2)
}

type helpStyles struct {
	section lipgloss.Style
	name    lipgloss.Style
	flag    lipgloss.Style
	muted   lipgloss.Style
	header  lipgloss.Style
}

func renderHelp(w io.Writer, cmd *cobra.Command, t *theme.Theme, width int) {
	s := helpStyles{
		section: lipgloss.NewStyle().Italic(true).Foreground(t.Colors.Orange),
		name:    lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Cyan),
		flag:    lipgloss.NewStyle().Foreground(t.Colors.Violet),
		muted:   t.Muted,
		header:  t.Header,
	}

	fmt.Fprintln(w, " "+s.header.Render(strings.ToUpper(cmd.CommandPath())))
	writeWrapped(w, cmd.Short, width)
	if cmd.Long != "" && cmd.Long != cmd.Short {
		fmt.Fprintln(w)
		writeWrapped(w, cmd.Long, width)
	}

	if cmd.Runnable() || cmd.HasAvailableSubCommands() {
		fmt.Fprintln(w, "\n "+s.section.Render("USAGE"))
		if cmd.Runnable() {
			fmt.Fprintf(w, " %s\n", cmd.UseLine())
		}
		if cmd.HasAvailableSubCommands() {
			fmt.Fprintf(w, " %s [command]\n", cmd.CommandPath())
		}
	}

	renderCommands(w, cmd, s)
	renderFlags(w, "FLAGS", cmd.LocalFlags(), s)
	renderFlags(w, "GLOBAL FLAGS", cmd.InheritedFlags(), s)
	renderEnv(w, cmd, s)

	if cmd.Example != "" {
		fmt.Fprintln(w, "\n "+s.section.Render("EXAMPLES"))
		for _, line := range strings.Split(cmd.Example, "\n") {
			trimmed := strings.TrimSpace(line)
			switch {
			case trimmed == "":
				fmt.Fprintln(w)
			case strings.HasPrefix(trimmed, "#"):
				fmt.Fprintln(w, " "+s.muted.Render(trimmed))
			default:
				fmt.Fprintln(w, "   "+trimmed)
			}
		}
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "\n Use \"%s [command] --help\" for more information.\n", cmd.CommandPath())
	}
}

func writeWrapped(w io.Writer, text string, width int) {
	if text == "" {
		return
	}
	for _, line := range strings.Split(wrapText(text, width), "\n") {
		fmt.Fprintln(w, " "+line)
	}
}

// renderCommands lists subcommands under their cobra group titles, with
// ungrouped commands last.
func renderCommands(w io.Writer, cmd *cobra.Command, s helpStyles) {
	var subs []*cobra.Command
	width := 0
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			subs = append(subs, sub)
			width = max(width, len(sub.Name()))
		}
	}
	if len(subs) == 0 {
		return
	}

	titles := map[string]string{"": "COMMANDS"}
	order := []string{}
	for _, g := range cmd.Groups() {
		titles[g.ID] = strings.ToUpper(g.Title)
		order = append(order, g.ID)
	}
	order = append(order, "")

	for _, id := range order {
		var group []*cobra.Command
		for _, sub := range subs {
			gid := sub.GroupID
			if _, known := titles[gid]; !known {
				gid = ""
			}
			if gid == id {
				group = append(group, sub)
			}
		}
		if len(group) == 0 {
			continue
		}
		title := titles[id]
		if id == "" && len(order) > 1 {
			title = "OTHER COMMANDS"
		}
		fmt.Fprintln(w, "\n "+s.section.Render(title))
		for _, sub := range group {
			pad := strings.Repeat(" ", width-len(sub.Name()))
			fmt.Fprintf(w, " %s%s  %s\n", s.name.Render(sub.Name()), pad, sub.Short)
		}
	}
}

func renderFlags(w io.Writer, title string, fs *pflag.FlagSet, s helpStyles) {
	var flags []*pflag.Flag
	width := 0
	fs.VisitAll(func(f *pflag.Flag) {
		if !f.Hidden {
			flags = append(flags, f)
			width = max(width, len(formatFlagName(f)))
		}
	})
	if len(flags) == 0 {
		return
	}

	fmt.Fprintln(w, "\n "+s.section.Render(title))
	for _, f := range flags {
		name := formatFlagName(f)
		usage := f.Usage
		switch f.DefValue {
		case "", "false", "[]", "0":
		default:
			usage += s.muted.Render(fmt.Sprintf(" (default: %s)", f.DefValue))
		}
		fmt.Fprintf(w, " %s%s  %s\n", s.flag.Render(name), strings.Repeat(" ", width-len(name)), usage)
	}
}

// renderEnv lists the variables annotated on cmd and its ancestors.
func renderEnv(w io.Writer, cmd *cobra.Command, s helpStyles) {
	vars := map[string]string{}
	for c := cmd; c != nil; c = c.Parent() {
		for _, line := range strings.Split(c.Annotations[EnvAnnotation], "\n") {
			name, desc, _ := strings.Cut(strings.TrimSpace(line), " ")
			if name != "" {
				if _, seen := vars[name]; !seen {
					vars[name] = strings.TrimSpace(desc)
				}
			}
		}
	}
	if len(vars) == 0 {
		return
	}

	names := make([]string, 0, len(vars))
	width := 0
	for name := range vars {
		names = append(names, name)
		width = max(width, len(name))
	}
	sort.Strings(names)

	fmt.Fprintln(w, "\n "+s.section.Render("ENVIRONMENT"))
	for _, name := range names {
		fmt.Fprintf(w, " %s%s  %s\n", s.flag.Render(name), strings.Repeat(" ", width-len(name)), vars[name])
	}
}

// formatFlagName returns "-f, --flag" or "    --flag".
func formatFlagName(f *pflag.Flag) string {
	if f.Shorthand != "" {
		return fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	}
	return fmt.Sprintf("    --%s", f.Name)
}
