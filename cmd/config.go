package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grovetools/ckanconsole/cli"
	"github.com/grovetools/ckanconsole/config"
	"github.com/grovetools/ckanconsole/errors"
	"github.com/grovetools/ckanconsole/logging"
	"github.com/grovetools/ckanconsole/schema"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCmd creates the `config` command and its subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate the console configuration",
	}
	cmd.AddCommand(newConfigShowCmd(), newConfigSchemaCmd(), newConfigValidateCmd(), newConfigWatchCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration after defaults and merging",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			if cli.GetOptions(cmd).JSONOutput {
				return cli.PrintJSON(cmd.OutOrStdout(), cfg)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [FILE]",
		Short: "Check a configuration file against the schema",
		Long: `Checks the file structurally against the configuration schema, then
semantically (URLs, durations, screen names). Without FILE the file named by
--config, or the one found from the current directory, is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runConfigValidate,
	}
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path, err := configPath(cmd, args)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.ConfigNotFound(path)
		}
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file")
	}

	if err := validateAgainstSchema(path, data); err != nil {
		return err
	}
	if _, err := config.Load(path); err != nil {
		return err
	}

	logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout()).Success(fmt.Sprintf("%s is valid", path))
	return nil
}

func configPath(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if path := cli.GetOptions(cmd).ConfigFile; path != "" {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return config.FindConfigFile(cwd)
}

// validateAgainstSchema decodes data generically and checks it against the
// generated configuration schema.
func validateAgainstSchema(path string, data []byte) error {
	var doc map[string]interface{}
	var err error
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse configuration").WithDetail("path", path)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "configuration is not JSON compatible")
	}
	schemaDoc, err := config.GenerateSchema()
	if err != nil {
		return err
	}
	v, err := schema.Compile("ckan-console.schema.json", schemaDoc)
	if err != nil {
		return err
	}
	if err := v.ValidateJSON(raw); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "configuration does not match the schema").WithDetail("path", path)
	}
	return nil
}

func newConfigWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Report configuration reloads until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(cmd, nil)
			if err != nil {
				return err
			}
			debounce, _ := cmd.Flags().GetDuration("debounce")
			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())

			w, err := config.NewWatcher(path, debounce, cli.GetLogger(cmd), func(cfg *config.Config) {
				logging.Reload(cfg)
				pretty.Success(fmt.Sprintf("Reloaded %s (host %s)", path, cfg.Host.URL))
			})
			if err != nil {
				return err
			}
			defer w.Close()

			pretty.InfoPretty(fmt.Sprintf("Watching %s", path))
			w.Start(commandContext(cmd))
			return nil
		},
	}
	cmd.Flags().Duration("debounce", 200*time.Millisecond, "Quiet period before a change is applied")
	return cmd
}
