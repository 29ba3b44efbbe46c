package cmd

import (
	"fmt"
	"time"

	"github.com/grovetools/ckanconsole/errors"
	"github.com/grovetools/ckanconsole/logging"
	"github.com/grovetools/ckanconsole/pkg/picker"
	"github.com/grovetools/ckanconsole/pkg/router"
	"github.com/spf13/cobra"
)

// NewCreateCmd creates the `create` command.
func NewCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Register a new game instance",
		Long: `Asks the host to register a new instance. Directories not given with
--path or --deployment are chosen in the host's directory dialog when
--pick is set.`,
		Example: `ckan-console create KSP2 --path /games/ksp2 --deployment /games/ksp2/GameData

# Choose both directories in the host's dialog
ckan-console create KSP2 --pick`,
		Args: cobra.ExactArgs(1),
		RunE: runCreate,
	}
	cmd.Flags().String("path", "", "Game installation directory")
	cmd.Flags().String("deployment", "", "Directory packages are deployed into")
	cmd.Flags().Bool("pick", false, "Open the host's directory dialog for missing directories")
	cmd.Flags().Duration("pick-timeout", 2*time.Minute, "How long to wait for a directory choice")
	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	c, err := openConsole(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Router.Navigate(router.InstanceCreator); err != nil {
		return err
	}
	creator := c.Creator

	pick, _ := cmd.Flags().GetBool("pick")
	timeout, _ := cmd.Flags().GetDuration("pick-timeout")
	fields := []struct {
		flag    string
		session *picker.Session
	}{
		{"path", creator.PathPicker()},
		{"deployment", creator.DeploymentPicker()},
	}
	for _, f := range fields {
		value, _ := cmd.Flags().GetString(f.flag)
		if value != "" {
			f.session.Set(value)
			continue
		}
		if !pick {
			continue
		}

		chosen := make(chan string, 1)
		f.session.OnChange(func(v string) {
			select {
			case chosen <- v:
			default:
			}
		})
		if err := f.session.Open(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Choose the %s directory in the host dialog...\n", f.flag)
		if _, ok := waitFor(ctx, chosen, timeout); !ok {
			return errors.InvalidInput(f.flag, "no directory was chosen")
		}
	}

	pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
	if err := creator.Submit(ctx, args[0]); err != nil {
		return err
	}
	pretty.Success(creator.Status())
	return nil
}
