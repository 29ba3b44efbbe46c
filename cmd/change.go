package cmd

import (
	"fmt"

	"github.com/grovetools/ckanconsole/cli"
	"github.com/grovetools/ckanconsole/logging"
	"github.com/grovetools/ckanconsole/pkg/models"
	"github.com/grovetools/ckanconsole/pkg/views"
	"github.com/spf13/cobra"
)

// NewInstallCmd creates the `install` command.
func NewInstallCmd() *cobra.Command {
	cmd := newChangeCmd("install", "Install packages into an instance", models.Install)
	cmd.Example = `ckan-console install ModuleManager Kopernicus@release-1.12.1-199
ckan-console install ModuleManager --instance KSP1 --dry-run`
	return cmd
}

// NewUninstallCmd creates the `uninstall` command.
func NewUninstallCmd() *cobra.Command {
	cmd := newChangeCmd("uninstall", "Remove packages from an instance", models.Uninstall)
	cmd.Example = `ckan-console uninstall Kopernicus --instance KSP1`
	return cmd
}

func newChangeCmd(use, short string, action models.Action) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " PACKAGE...",
		Short: short,
		Long: `Queues one change per package and submits them to the host in a single
request. PACKAGE is an identifier, optionally followed by @version; without
a version the first compatible version is used.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChange(cmd, args, action)
		},
	}
	addInstanceFlag(cmd)
	cmd.Flags().Bool("dry-run", false, "Show the changes without submitting them")
	return cmd
}

func runChange(cmd *cobra.Command, args []string, action models.Action) error {
	ctx := commandContext(cmd)
	c, err := openConsole(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	if _, err := openInstaller(cmd, c); err != nil {
		return err
	}

	installer := c.Installer
	for _, arg := range args {
		id, err := resolvePackage(installer, arg)
		if err != nil {
			return err
		}
		if err := queue(installer, id, action); err != nil {
			return err
		}
	}

	changes := installer.Changes()
	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		return printChanges(cmd, changes)
	}

	if err := installer.Commit(ctx); err != nil {
		return err
	}
	if cli.GetOptions(cmd).JSONOutput {
		return printChanges(cmd, changes)
	}
	logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout()).Success(installer.Status())
	return nil
}

func queue(installer *views.PackageInstaller, id models.PackageIdentifier, action models.Action) error {
	if current, ok := installer.Engine().Action(id); ok && current == action {
		// Toggling again would cancel the entry.
		return nil
	}
	if action == models.Install {
		return installer.Install(id)
	}
	return installer.Uninstall(id)
}

func printChanges(cmd *cobra.Command, changes []models.ChangeEntry) error {
	if cli.GetOptions(cmd).JSONOutput {
		return cli.PrintJSON(cmd.OutOrStdout(), changes)
	}
	rows := make([][]string, 0, len(changes))
	for _, ch := range changes {
		rows = append(rows, []string{ch.Action.String(), ch.Identifier.String(), ch.Package.Name})
	}
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No changes.")
		return nil
	}
	cli.PrintTable(cmd.OutOrStdout(), []string{"ACTION", "PACKAGE", "NAME"}, rows)
	return nil
}
