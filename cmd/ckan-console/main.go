package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/grovetools/ckanconsole/cli"
	"github.com/grovetools/ckanconsole/cmd"
	"github.com/grovetools/ckanconsole/logging"
	"github.com/grovetools/ckanconsole/pkg/paths"
	"github.com/grovetools/ckanconsole/pkg/profiling"
	"github.com/grovetools/ckanconsole/tui/theme"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"ckan-console",
		"Manage Kerbal Space Program mods through a running CKAN host",
	)
	rootCmd.Long = `ckan-console talks to a running CKAN host over its WebSocket bridge.
Without a subcommand it opens the interactive console.`
	rootCmd.RunE = cmd.NewTuiCmd().RunE
	profiling.NewCobraProfiler(logging.NewLogger("profiling")).AddFlags(rootCmd)

	rootCmd.Annotations = map[string]string{cli.EnvAnnotation: strings.Join([]string{
		paths.HomeEnv + " relocates config, state and log directories",
		theme.ThemeEnv + " selects the color theme (kanagawa, terminal)",
		"CKAN_LOG_LEVEL overrides logging.level",
		"CKAN_LOG_CALLER=true adds the caller to log records",
		"NO_COLOR disables colors",
	}, "\n")}

	rootCmd.AddGroup(
		&cobra.Group{ID: "instances", Title: "Instances"},
		&cobra.Group{ID: "packages", Title: "Packages"},
		&cobra.Group{ID: "console", Title: "Console"},
	)
	addTo := func(group string, cmds ...*cobra.Command) {
		for _, c := range cmds {
			c.GroupID = group
			rootCmd.AddCommand(c)
		}
	}
	addTo("instances", cmd.NewInstancesCmd(), cmd.NewCreateCmd())
	addTo("packages", cmd.NewPackagesCmd(), cmd.NewInstallCmd(), cmd.NewUninstallCmd(), cmd.NewDetailCmd())
	addTo("console", cmd.NewTuiCmd(), cmd.NewConfigCmd(), cmd.NewLogsCmd())
	rootCmd.AddCommand(cli.NewVersionCommand("ckan-console"))

	cli.SetVersionTemplate(rootCmd)
	cli.ApplyStyledHelpRecursive(rootCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		cli.NewErrorHandler(verbose).Handle(err)
		stop()
		os.Exit(1)
	}
}
