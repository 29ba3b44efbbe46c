package cmd

import (
	"fmt"
	"time"

	"github.com/grovetools/ckanconsole/cli"
	"github.com/grovetools/ckanconsole/errors"
	"github.com/grovetools/ckanconsole/pkg/bridge"
	"github.com/grovetools/ckanconsole/pkg/models"
	"github.com/spf13/cobra"
)

// NewDetailCmd creates the `detail` command.
func NewDetailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detail PACKAGE",
		Short: "Show the host's description of a package",
		Long: `Asks the host to open the detail surface for a package and prints the
description the host pushes back.`,
		Example: `ckan-console detail ModuleManager
ckan-console detail Kopernicus@release-1.12.1-199 --json`,
		Args: cobra.ExactArgs(1),
		RunE: runDetail,
	}
	addInstanceFlag(cmd)
	cmd.Flags().Duration("wait", 10*time.Second, "How long to wait for the description")
	return cmd
}

func runDetail(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	c, err := openConsole(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	if _, err := openInstaller(cmd, c); err != nil {
		return err
	}
	id, err := resolvePackage(c.Installer, args[0])
	if err != nil {
		return err
	}

	received := make(chan models.PackageDetail, 1)
	cancel := c.Detail.Watch(func(d models.PackageDetail) {
		select {
		case received <- d:
		default:
		}
	})
	defer cancel()

	if err := c.Installer.OpenDetail(ctx, id); err != nil {
		return err
	}
	wait, _ := cmd.Flags().GetDuration("wait")
	detail, ok := waitFor(ctx, received, wait)
	if !ok {
		return errors.New(errors.ErrCodeHostCommand, fmt.Sprintf("no description received for %s", id)).
			WithDetail("command", bridge.CmdOpenPackageDetail)
	}

	if cli.GetOptions(cmd).JSONOutput {
		return cli.PrintJSON(cmd.OutOrStdout(), detail)
	}
	rows := make([][]string, 0, len(detail))
	for _, r := range detail.Rows() {
		rows = append(rows, []string{r.Property, r.Value})
	}
	cli.PrintTable(cmd.OutOrStdout(), []string{"PROPERTY", "VALUE"}, rows)
	return nil
}
