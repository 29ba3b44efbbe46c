// Package cmd implements the ckan-console subcommands.
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/grovetools/ckanconsole/cli"
	"github.com/grovetools/ckanconsole/errors"
	"github.com/grovetools/ckanconsole/pkg/console"
	"github.com/grovetools/ckanconsole/pkg/models"
	"github.com/grovetools/ckanconsole/pkg/router"
	"github.com/grovetools/ckanconsole/pkg/views"
	"github.com/spf13/cobra"
)

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// openConsole loads the configuration selected by the command flags and
// connects to the host. Callers must Close the console.
func openConsole(cmd *cobra.Command) (*console.Console, error) {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := cli.GetLogger(cmd)
	logger.WithField("host", cfg.Host.URL).Debug("Connecting to host")
	return console.Dial(commandContext(cmd), cfg)
}

// useInstance selects the named instance, or restores the remembered one
// when name is empty.
func useInstance(ctx context.Context, c *console.Console, name string) (models.Instance, error) {
	if name != "" {
		return c.SelectInstance(ctx, name)
	}
	c.Restore(ctx)
	if inst := c.Instances.Current(); inst != nil {
		return *inst, nil
	}
	return models.Instance{}, errors.NoInstance()
}

// openInstaller shows the package installer for the instance selected by
// --instance and loads its package lists.
func openInstaller(cmd *cobra.Command, c *console.Console) (models.Instance, error) {
	ctx := commandContext(cmd)
	name, _ := cmd.Flags().GetString("instance")
	inst, err := useInstance(ctx, c, name)
	if err != nil {
		return inst, err
	}
	if err := c.Router.Navigate(router.PackageInstaller); err != nil {
		return inst, err
	}
	return inst, c.Installer.Load(ctx)
}

// resolvePackage finds the package named by arg ("Identifier" or
// "Identifier@version") in the installer's list. Without a version the
// first listed version matches.
func resolvePackage(installer *views.PackageInstaller, arg string) (models.PackageIdentifier, error) {
	want := models.ParseIdentifier(arg)
	for _, row := range installer.Rows() {
		id := row.Package.Identifier
		if id.Matches(want) || (want.Version.IsZero() && id.Identifier == want.Identifier) {
			return id, nil
		}
	}
	return models.PackageIdentifier{}, errors.InvalidInput("package", fmt.Sprintf("no compatible package %s", arg))
}

func addInstanceFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("instance", "i", "", "Instance to operate on (default: the last selected instance)")
}

// waitFor blocks until ch yields or the timeout elapses.
func waitFor[T any](ctx context.Context, ch <-chan T, timeout time.Duration) (T, bool) {
	var zero T
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case v := <-ch:
		return v, true
	case <-timer.C:
		return zero, false
	case <-ctx.Done():
		return zero, false
	}
}
