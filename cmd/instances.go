package cmd

import (
	"fmt"

	"github.com/grovetools/ckanconsole/cli"
	"github.com/grovetools/ckanconsole/logging"
	"github.com/grovetools/ckanconsole/pkg/router"
	"github.com/spf13/cobra"
)

// NewInstancesCmd creates the `instances` command.
func NewInstancesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instances",
		Short: "List game instances registered with the host",
		Long: `Lists the instances known to the host. The last selected instance is
marked with '*'. Use --select to change it; later commands operate on the
selected instance unless --instance is given.`,
		Example: `# List instances
ckan-console instances

# Remember KSP1 for later commands
ckan-console instances --select KSP1`,
		Args: cobra.NoArgs,
		RunE: runInstances,
	}
	cmd.Flags().String("select", "", "Select the named instance")
	return cmd
}

func runInstances(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	c, err := openConsole(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Router.Navigate(router.InstanceSelector); err != nil {
		return err
	}
	if err := c.Selector.Load(ctx); err != nil {
		return err
	}

	if name, _ := cmd.Flags().GetString("select"); name != "" {
		inst, err := c.SelectInstance(ctx, name)
		if err != nil {
			return err
		}
		logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout()).
			Success(fmt.Sprintf("Selected %s (%s)", inst.Name, inst.Path))
		return nil
	}
	c.Restore(ctx)

	instances := c.Selector.Instances()
	if cli.GetOptions(cmd).JSONOutput {
		return cli.PrintJSON(cmd.OutOrStdout(), instances)
	}
	if len(instances) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), c.Selector.Status())
		return nil
	}

	current := c.Instances.Name()
	rows := make([][]string, 0, len(instances))
	for _, inst := range instances {
		mark := ""
		if inst.Name == current {
			mark = "*"
		}
		rows = append(rows, []string{mark, inst.Name, inst.Path, inst.DeploymentPath})
	}
	cli.PrintTable(cmd.OutOrStdout(), []string{"", "NAME", "PATH", "DEPLOYMENT"}, rows)
	return nil
}
