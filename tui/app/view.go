package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/ckanconsole/errors"
	"github.com/grovetools/ckanconsole/pkg/models"
	"github.com/grovetools/ckanconsole/pkg/router"
	"github.com/grovetools/ckanconsole/pkg/views"
	"github.com/grovetools/ckanconsole/tui/utils/scrollbar"
)

// reserved lines for tabs, headings, status and help
const chromeHeight = 9

// View renders the active screen.
func (m *Model) View() string {
	if m.showDetail {
		return m.viewDetail()
	}

	current := m.c.Router.Current()
	var body string
	switch current {
	case router.InstanceCreator:
		body = m.viewCreator()
	case router.PackageInstaller:
		body = m.viewInstaller()
	default:
		body = m.viewSelector()
	}

	sections := []string{m.viewTabs(current), body, m.viewStatus(current)}
	if m.help.ShowAll {
		sections = append(sections, m.help.FullHelpView(m.keys.forScreen(current).FullHelp()))
	} else {
		sections = append(sections, m.help.ShortHelpView(m.keys.forScreen(current).ShortHelp()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) viewTabs(current router.Screen) string {
	tabs := make([]string, 0, len(router.Screens))
	for _, s := range router.Screens {
		if s == current {
			tabs = append(tabs, m.theme.ActiveTab.Render(s.Title()))
		} else {
			tabs = append(tabs, m.theme.Tab.Render(s.Title()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n"
}

func (m *Model) viewSelector() string {
	var b strings.Builder
	instances := m.c.Selector.Instances()
	current := m.c.Instances.Name()

	fmt.Fprintln(&b, m.theme.Bold.Render(m.c.Selector.SelectionText()))
	fmt.Fprintln(&b)
	if len(instances) == 0 && !m.busy {
		fmt.Fprintln(&b, m.theme.Muted.Render(views.StatusNoInstances))
	}
	for i, inst := range instances {
		marker := "  "
		if inst.Name == current {
			marker = m.theme.Success.Render("* ")
		}
		line := fmt.Sprintf("%-20s %s", inst.Name, m.theme.Muted.Render(inst.Path))
		if i == m.cursor {
			line = m.theme.Selected.Render(line)
		}
		fmt.Fprintln(&b, marker+line)
	}
	return b.String()
}

func (m *Model) viewCreator() string {
	var b strings.Builder
	fmt.Fprintln(&b, m.theme.Header.Render("Register a new instance"))
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "%s %s\n", m.theme.Bold.Render("Name:      "), m.name.View())
	fmt.Fprintf(&b, "%s %s\n", m.theme.Bold.Render("Game dir:  "), m.path.View())
	fmt.Fprintf(&b, "%s %s\n", m.theme.Bold.Render("Deploy dir:"), m.deploy.View())
	return b.String()
}

func (m *Model) viewInstaller() string {
	var b strings.Builder
	installer := m.c.Installer
	name := m.c.Instances.Name()
	if name == "" {
		fmt.Fprintln(&b, m.theme.Warning.Render(views.StatusNoInstanceSelected))
		return b.String()
	}

	fmt.Fprintf(&b, "%s %s", m.theme.Header.Render("Packages for"), m.theme.Bold.Render(name))
	if n := installer.Engine().Len(); n > 0 {
		fmt.Fprintf(&b, "  %s", m.theme.Accent.Render(fmt.Sprintf("%d pending", n)))
	}
	fmt.Fprintln(&b)
	if m.filtering {
		fmt.Fprintln(&b, m.filter.View())
	} else if v := m.filter.Value(); v != "" {
		fmt.Fprintln(&b, m.theme.Muted.Render("filter: "+v))
	} else {
		fmt.Fprintln(&b)
	}

	rows := installer.Rows()
	start, end := window(m.cursor, len(rows), m.listHeight())
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		line := m.packageLine(rows[i])
		if i == m.cursor {
			line = m.theme.Selected.Render(line)
		}
		lines = append(lines, line)
	}
	switch {
	case len(rows) > len(lines):
		fmt.Fprintln(&b, scrollbar.Overlay(lines, start, len(rows)))
		fmt.Fprintln(&b, m.theme.Muted.Render(fmt.Sprintf("%d-%d of %d", start+1, end, len(rows))))
	case len(lines) > 0:
		fmt.Fprintln(&b, strings.Join(lines, "\n"))
	}
	return b.String()
}

func (m *Model) packageLine(row views.PackageRow) string {
	state := "[ ]"
	if row.Installed {
		state = m.theme.Installed.Render("[x]")
	}
	pending := " "
	if row.Pending != nil {
		switch *row.Pending {
		case models.Install:
			pending = m.theme.Install.Render("+")
		case models.Uninstall:
			pending = m.theme.Uninstall.Render("-")
		}
	}
	id := row.Package.Identifier
	return fmt.Sprintf("%s %s %-32s %-16s %s", state, pending, id.Identifier, id.Version.String(), row.Package.Name)
}

func (m *Model) viewStatus(current router.Screen) string {
	var parts []string
	if m.busy {
		parts = append(parts, m.spinner.View())
	}
	var status string
	switch current {
	case router.InstanceCreator:
		status = m.c.Creator.Status()
	case router.PackageInstaller:
		status = m.c.Installer.Status()
	default:
		status = m.c.Selector.Status()
	}
	if status != "" {
		parts = append(parts, m.theme.Info.Render(status))
	}
	if m.lastErr != nil {
		msg := m.lastErr.Error()
		if ce, ok := errors.As(m.lastErr); ok {
			msg = ce.Message
		}
		parts = append(parts, m.theme.Error.Render(msg))
	}
	return "\n" + strings.Join(parts, " ")
}

func (m *Model) viewDetail() string {
	var b strings.Builder
	title := "Package details"
	if name, ok := m.detail["name"].(string); ok && name != "" {
		title = name
	}
	fmt.Fprintln(&b, m.theme.Header.Render(title))
	for _, row := range m.detail.Rows() {
		fmt.Fprintf(&b, "%s %s\n", m.theme.Bold.Render(row.Property+":"), row.Value)
	}
	fmt.Fprint(&b, m.theme.Muted.Render("esc to close"))

	box := m.theme.DetailsBox
	if m.width > 4 {
		box = box.Width(m.width - 4)
	}
	return box.Render(b.String())
}

func (m *Model) listHeight() int {
	if m.height <= chromeHeight {
		return 20
	}
	return m.height - chromeHeight
}

// window returns the slice bounds of a list of n items, at most size long,
// that keep cursor visible.
func window(cursor, n, size int) (start, end int) {
	if n <= size {
		return 0, n
	}
	start = cursor - size/2
	if start < 0 {
		start = 0
	}
	end = start + size
	if end > n {
		end = n
		start = n - size
	}
	return start, end
}
