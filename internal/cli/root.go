package cli

import (
	"github.com/spf13/cobra"

	"github.com/arech/yacce/internal/log"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	JSONLog    bool
	ConfigPath string

	// Config is the loaded user config, populated before any RunE fires.
	Config Config
}

// NewRootCommand creates the root command for the yacce CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "yacce",
		Short: "yacce - yet another compile_commands.json extractor",
		Long: `yacce reconstructs compile_commands.json (and optionally
link_commands.json) from an strace log of a build, without cooperation
from the build system.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log.Init(log.Options{Verbose: opts.Verbose, JSONFormat: opts.JSONLog})

			cfg, err := LoadConfig(opts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading config", err)
			}
			opts.Config = cfg
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVar(&opts.JSONLog, "json_log", false, "emit diagnostics as JSON lines")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ~/"+DefaultConfigName+")")

	cmd.AddCommand(NewBazelCommand(opts))
	cmd.AddCommand(NewFromLogCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))

	return cmd
}
