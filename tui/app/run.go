package app

import (
	"context"
	stderrors "errors"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/grovetools/ckanconsole/logging"
	"github.com/grovetools/ckanconsole/pkg/console"
	"github.com/grovetools/ckanconsole/tui"
	"github.com/grovetools/ckanconsole/tui/keymap"
)

// Run starts the interactive console on the terminal and blocks until the
// user quits or ctx is done.
func Run(ctx context.Context, c *console.Console, overrides keymap.Overrides) error {
	tui.InitializeTUI()

	keys, unknown := NewKeyMap(overrides)
	if len(unknown) > 0 {
		logging.NewLogger("tui").WithField("bindings", unknown).Warn("Ignoring unknown keybinding overrides")
	}

	var program atomic.Pointer[tea.Program]
	m := New(ctx, c, keys, func(msg tea.Msg) {
		if p := program.Load(); p != nil {
			p.Send(msg)
		}
	})
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	program.Store(p)

	_, err := p.Run()
	if stderrors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
