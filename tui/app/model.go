// Package app is the interactive terminal console built on bubbletea.
package app

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/grovetools/ckanconsole/pkg/console"
	"github.com/grovetools/ckanconsole/pkg/models"
	"github.com/grovetools/ckanconsole/pkg/picker"
	"github.com/grovetools/ckanconsole/pkg/router"
	"github.com/grovetools/ckanconsole/tui/theme"
)

type (
	// loadedMsg reports the end of a screen data load.
	loadedMsg struct{ err error }
	// doneMsg reports the end of any other host operation.
	doneMsg struct{ err error }
	// detailMsg carries a description pushed by the host.
	detailMsg models.PackageDetail
	// pickerMsg reports a directory chosen in the host dialog. field is the
	// picker's event name.
	pickerMsg struct{ field, value string }
)

// Model is the root bubbletea model. Host calls run in commands; the
// console's views hold the state and View renders it.
type Model struct {
	c     *console.Console
	ctx   context.Context
	send  func(tea.Msg)
	keys  KeyMap
	theme *theme.Theme

	help    help.Model
	spinner spinner.Model
	name    textinput.Model
	path    textinput.Model
	deploy  textinput.Model
	filter  textinput.Model

	screen     router.Screen
	field      int
	filtering  bool
	busy       bool
	cursor     int
	lastErr    error
	detail     models.PackageDetail
	showDetail bool
	width      int
	height     int
	stops      []func()
}

// New builds the model over c. send delivers messages from host events to
// the running program; it must not be called from inside Update.
func New(ctx context.Context, c *console.Console, keys KeyMap, send func(tea.Msg)) *Model {
	if send == nil {
		send = func(tea.Msg) {}
	}

	name := textinput.New()
	name.Placeholder = "instance name"
	name.CharLimit = 64

	path := textinput.New()
	path.Placeholder = "type a path or press ctrl+o"

	deploy := textinput.New()
	deploy.Placeholder = "type a path or press ctrl+t"

	filter := textinput.New()
	filter.Placeholder = "pattern, !exclude"
	filter.Prompt = "/ "

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		c:       c,
		ctx:     ctx,
		send:    send,
		keys:    keys,
		theme:   theme.DefaultTheme,
		help:    help.New(),
		spinner: sp,
		name:    name,
		path:    path,
		deploy:  deploy,
		filter:  filter,
		busy:    true,
	}
	m.stops = append(m.stops, c.Detail.Watch(func(d models.PackageDetail) {
		m.send(detailMsg(d))
	}))
	m.prepareScreen()
	return m
}

// Close releases the model's event subscriptions.
func (m *Model) Close() {
	for _, stop := range m.stops {
		stop()
	}
	m.stops = nil
}

// Init restores the last session and loads the first screen.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return loadedMsg{err: m.c.Start(m.ctx)}
	})
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		m.busy = false
		m.lastErr = msg.err
		// Start may have moved to another screen.
		if m.c.Router.Current() != m.screen {
			m.prepareScreen()
		}
		m.clampCursor()
		return m, nil

	case doneMsg:
		m.busy = false
		m.lastErr = msg.err
		m.clampCursor()
		return m, nil

	case detailMsg:
		m.detail = models.PackageDetail(msg)
		m.showDetail = true
		return m, nil

	case pickerMsg:
		if in := m.pickerInput(msg.field); in != nil {
			in.SetValue(msg.value)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.showDetail {
		if key.Matches(msg, m.keys.Back, m.keys.Confirm, m.keys.Quit) {
			m.showDetail = false
		}
		return m, nil
	}

	if m.filtering {
		return m.handleFilterKey(msg)
	}

	if m.help.ShowAll {
		if key.Matches(msg, m.keys.Help, m.keys.Back) {
			m.help.ShowAll = false
		}
		return m, nil
	}

	switch m.c.Router.Current() {
	case router.InstanceCreator:
		return m.handleCreatorKey(msg)
	case router.PackageInstaller:
		return m.handleInstallerKey(msg)
	default:
		return m.handleSelectorKey(msg)
	}
}

func (m *Model) handleSelectorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	instances := m.c.Selector.Instances()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = true
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Refresh):
		return m, m.load()
	case key.Matches(msg, m.keys.Deselect):
		m.c.Selector.Clear()
	case key.Matches(msg, m.keys.NewInstance):
		return m, m.navigate(m.c.Selector.CreateNew)
	case key.Matches(msg, m.keys.Confirm):
		if m.cursor >= len(instances) {
			return m, nil
		}
		if err := m.c.Selector.Select(instances[m.cursor].Name); err != nil {
			m.lastErr = err
			return m, nil
		}
		return m, m.navigate(m.c.Selector.Open)
	}
	return m, nil
}

func (m *Model) handleCreatorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	creator := m.c.Creator
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, m.navigate(creator.Cancel)
	case key.Matches(msg, m.keys.PickPath):
		return m, m.openPicker(creator.PathPicker())
	case key.Matches(msg, m.keys.PickDeployment):
		return m, m.openPicker(creator.DeploymentPicker())
	case key.Matches(msg, m.keys.NextField):
		return m, m.focusField(m.field + 1)
	case key.Matches(msg, m.keys.PrevField):
		return m, m.focusField(m.field - 1)
	case key.Matches(msg, m.keys.Confirm):
		if m.busy {
			return m, nil
		}
		name := m.name.Value()
		return m, m.run(func(ctx context.Context) error {
			return creator.Submit(ctx, name)
		})
	}

	in, session := m.creatorField(m.field)
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	if session != nil && session.Value() != in.Value() {
		session.Set(in.Value())
	}
	return m, cmd
}

const creatorFields = 3

// creatorField returns the input at index i of the creator form and the
// picker it feeds, if any.
func (m *Model) creatorField(i int) (*textinput.Model, *picker.Session) {
	switch i {
	case 1:
		return &m.path, m.c.Creator.PathPicker()
	case 2:
		return &m.deploy, m.c.Creator.DeploymentPicker()
	default:
		return &m.name, nil
	}
}

func (m *Model) focusField(i int) tea.Cmd {
	m.field = (i + creatorFields) % creatorFields
	var cmd tea.Cmd
	for j := 0; j < creatorFields; j++ {
		in, _ := m.creatorField(j)
		if j == m.field {
			cmd = in.Focus()
		} else {
			in.Blur()
		}
	}
	return cmd
}

// pickerInput returns the input bound to the picker listening on event.
func (m *Model) pickerInput(event string) *textinput.Model {
	for j := 1; j < creatorFields; j++ {
		in, s := m.creatorField(j)
		if s != nil && s.EventName() == event {
			return in
		}
	}
	return nil
}

func (m *Model) handleInstallerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	installer := m.c.Installer
	rows := installer.Rows()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = true
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.listHeight())
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.listHeight())
	case key.Matches(msg, m.keys.Top):
		m.moveCursor(-len(rows))
	case key.Matches(msg, m.keys.Bottom):
		m.moveCursor(len(rows))
	case key.Matches(msg, m.keys.Back):
		return m, m.navigate(installer.Back)
	case key.Matches(msg, m.keys.Refresh):
		return m, m.load()
	case key.Matches(msg, m.keys.Search):
		m.filtering = true
		return m, m.filter.Focus()
	case key.Matches(msg, m.keys.Discard):
		installer.Engine().Reset()
	case key.Matches(msg, m.keys.Commit):
		if m.busy {
			return m, nil
		}
		return m, m.run(installer.Commit)
	case key.Matches(msg, m.keys.ToggleInstall, m.keys.ToggleUninstall, m.keys.Detail):
		if m.cursor >= len(rows) {
			return m, nil
		}
		id := rows[m.cursor].Package.Identifier
		switch {
		case key.Matches(msg, m.keys.ToggleInstall):
			m.lastErr = installer.Install(id)
		case key.Matches(msg, m.keys.ToggleUninstall):
			m.lastErr = installer.Uninstall(id)
		default:
			return m, m.run(func(ctx context.Context) error {
				return installer.OpenDetail(ctx, id)
			})
		}
	}
	return m, nil
}

func (m *Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.filtering = false
		m.filter.Blur()
		m.lastErr = m.c.Installer.Filter(strings.Fields(m.filter.Value()))
		m.cursor = 0
		return m, nil
	case key.Matches(msg, m.keys.Back):
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

// navigate runs a screen change and prepares the new screen.
func (m *Model) navigate(fn func() error) tea.Cmd {
	before := m.c.Router.Current()
	if err := fn(); err != nil {
		m.lastErr = err
		return nil
	}
	if m.c.Router.Current() == before {
		return nil
	}
	m.lastErr = nil
	m.prepareScreen()
	return m.load()
}

// prepareScreen resets per-screen input state for the active screen.
func (m *Model) prepareScreen() {
	m.screen = m.c.Router.Current()
	m.cursor = 0
	m.filtering = false
	m.filter.Blur()

	if m.c.Router.Current() != router.InstanceCreator {
		m.name.Blur()
		m.path.Blur()
		m.deploy.Blur()
		return
	}
	m.name.Reset()
	m.path.Reset()
	m.deploy.Reset()
	m.focusField(0)
	for j := 1; j < creatorFields; j++ {
		in, s := m.creatorField(j)
		if s == nil {
			continue
		}
		in.SetValue(s.Value())
		event := s.EventName()
		s.OnChange(func(v string) {
			m.send(pickerMsg{field: event, value: v})
		})
	}
}

func (m *Model) load() tea.Cmd {
	if m.c.Router.Current() == router.InstanceCreator {
		return nil
	}
	m.busy = true
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return loadedMsg{err: m.c.Load(m.ctx)}
	})
}

func (m *Model) run(fn func(context.Context) error) tea.Cmd {
	m.busy = true
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return doneMsg{err: fn(m.ctx)}
	})
}

func (m *Model) openPicker(s *picker.Session) tea.Cmd {
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		return doneMsg{err: s.Open(m.ctx)}
	}
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	var n int
	switch m.c.Router.Current() {
	case router.InstanceSelector:
		n = len(m.c.Selector.Instances())
	case router.PackageInstaller:
		n = len(m.c.Installer.Rows())
	}
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
