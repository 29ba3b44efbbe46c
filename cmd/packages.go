package cmd

import (
	"fmt"
	"strings"

	"github.com/grovetools/ckanconsole/cli"
	"github.com/grovetools/ckanconsole/pkg/views"
	"github.com/spf13/cobra"
)

// NewPackagesCmd creates the `packages` command.
func NewPackagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packages",
		Short: "List packages compatible with an instance",
		Long: `Lists the packages the host reports as compatible, with their install
state in the selected instance. --filter takes gitignore-style patterns
matched against package identifiers; prefix a pattern with '!' to exclude.`,
		Example: `ckan-console packages --instance KSP1
ckan-console packages --filter 'Kopernicus*' --filter '!*Expansion'
ckan-console packages --installed --json`,
		Args: cobra.NoArgs,
		RunE: runPackages,
	}
	addInstanceFlag(cmd)
	cmd.Flags().StringSliceP("filter", "f", nil, "Identifier patterns to include (repeatable)")
	cmd.Flags().Bool("installed", false, "Only show installed packages")
	return cmd
}

// packageView is the --json form of a package row.
type packageView struct {
	Identifier string   `json:"identifier"`
	Version    string   `json:"version"`
	Name       string   `json:"name"`
	Author     []string `json:"author"`
	Installed  bool     `json:"installed"`
	Pending    string   `json:"pending,omitempty"`
}

func runPackages(cmd *cobra.Command, args []string) error {
	c, err := openConsole(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	inst, err := openInstaller(cmd, c)
	if err != nil {
		return err
	}

	patterns, _ := cmd.Flags().GetStringSlice("filter")
	if err := c.Installer.Filter(patterns); err != nil {
		return err
	}
	installedOnly, _ := cmd.Flags().GetBool("installed")

	var rows []views.PackageRow
	for _, row := range c.Installer.Rows() {
		if installedOnly && !row.Installed {
			continue
		}
		rows = append(rows, row)
	}

	if cli.GetOptions(cmd).JSONOutput {
		out := make([]packageView, 0, len(rows))
		for _, row := range rows {
			out = append(out, toPackageView(row))
		}
		return cli.PrintJSON(cmd.OutOrStdout(), out)
	}

	if len(rows) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No matching packages for %s.\n", inst.Name)
		return nil
	}
	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		table = append(table, []string{
			row.Package.Identifier.Identifier,
			row.Package.Identifier.Version.String(),
			row.Package.Name,
			row.Package.Authors(),
			rowState(row),
		})
	}
	cli.PrintTable(cmd.OutOrStdout(), []string{"IDENTIFIER", "VERSION", "NAME", "AUTHOR", "STATE"}, table)
	return nil
}

func toPackageView(row views.PackageRow) packageView {
	v := packageView{
		Identifier: row.Package.Identifier.Identifier,
		Version:    row.Package.Identifier.Version.String(),
		Name:       row.Package.Name,
		Author:     row.Package.Author,
		Installed:  row.Installed,
	}
	if v.Author == nil {
		v.Author = []string{}
	}
	if row.Pending != nil {
		v.Pending = row.Pending.String()
	}
	return v
}

func rowState(row views.PackageRow) string {
	var parts []string
	if row.Installed {
		parts = append(parts, "installed")
	}
	if row.Pending != nil {
		parts = append(parts, "pending "+row.Pending.String())
	}
	return strings.Join(parts, ", ")
}
