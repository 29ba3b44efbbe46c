package cli

import (
	"github.com/grovetools/ckanconsole/config"
	"github.com/grovetools/ckanconsole/logging"
	"github.com/grovetools/ckanconsole/util/pathutil"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommandOptions holds common options for console commands
type CommandOptions struct {
	ConfigFile string
	Host       string
	Verbose    bool
	JSONOutput bool
}

// NewStandardCommand creates a new command with the standard console flags
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to ckan-console config file")
	cmd.PersistentFlags().String("host", "", "WebSocket URL of the host bridge (overrides host.url)")

	SetStyledHelp(cmd)

	return cmd
}

// GetLogger returns the cli component logger adjusted for command flags
func GetLogger(cmd *cobra.Command) *logrus.Entry {
	entry := logging.NewLogger("cli")

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logging.SetLevel(logrus.DebugLevel)
	}

	return entry
}

// GetOptions extracts common options from a command
func GetOptions(cmd *cobra.Command) CommandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	host, _ := cmd.Flags().GetString("host")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return CommandOptions{
		ConfigFile: configFile,
		Host:       host,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
	}
}

// LoadConfig loads the configuration selected by the command flags. An
// explicit --config file must exist; otherwise the usual lookup applies.
// --host overrides the configured host URL.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	opts := GetOptions(cmd)

	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigFile != "" {
		cfg, err = config.Load(pathutil.MustExpand(opts.ConfigFile))
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	if opts.Host != "" {
		cfg.Host.URL = opts.Host
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
