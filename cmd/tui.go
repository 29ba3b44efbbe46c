package cmd

import (
	"time"

	"github.com/grovetools/ckanconsole/cli"
	"github.com/grovetools/ckanconsole/config"
	"github.com/grovetools/ckanconsole/logging"
	"github.com/grovetools/ckanconsole/tui/app"
	"github.com/grovetools/ckanconsole/tui/keymap"
	"github.com/spf13/cobra"
)

// NewTuiCmd creates the `tui` command, which is also the root command's
// default action.
func NewTuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive console",
		Long: `Opens the interactive console: pick an instance, browse compatible
packages, queue installs and removals, and commit them in one step. Changes
to the configuration file's logging section apply while the console runs.`,
		Args: cobra.NoArgs,
		RunE: runTui,
	}
}

func runTui(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	logger := cli.GetLogger(cmd)

	c, err := openConsole(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	overrides, err := keymap.LoadOverrides(c.Config)
	if err != nil {
		logger.WithError(err).Warn("Ignoring invalid key binding overrides")
		overrides = nil
	}

	if path, err := configPath(cmd, nil); err == nil {
		w, err := config.NewWatcher(path, 200*time.Millisecond, logger, logging.Reload)
		if err != nil {
			logger.WithError(err).Debug("Config watcher unavailable")
		} else {
			defer w.Close()
			go w.Start(ctx)
		}
	} else {
		logger.WithError(err).Debug("No configuration file to watch")
	}

	return app.Run(ctx, c, overrides)
}
