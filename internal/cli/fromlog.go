package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/arech/yacce/internal/log"
)

// FromLogOptions holds flags for the from_log command.
type FromLogOptions struct {
	CommonOptions
}

// NewFromLogCommand creates the from_log command, which parses an existing
// strace log instead of running a build.
func NewFromLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FromLogOptions{CommonOptions: CommonOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "from_log <log_file>",
		Short: "Reconstruct command databases from an existing strace log",
		Long: `Parse an strace log produced earlier (for example by a kept
--keep_log run, or by tracing a build by hand) and write the command
databases from it.

The log must have been produced with strace -f -ttt -e trace=execve and a
string limit large enough to avoid truncating argument vectors.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFromLog(cmd, opts, args[0])
		},
	}

	addCommonFlags(cmd, &opts.CommonOptions)
	// historical alias for --cwd
	cmd.Flags().StringVar(&opts.Cwd, "dir", "", "absolute path of the compilation directory (same as --cwd)")

	return cmd
}

func runFromLog(cmd *cobra.Command, opts *FromLogOptions, logPath string) error {
	opts.applyConfig(cmd)

	if _, err := os.Stat(logPath); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("trace log %s", logPath), err)
	}

	// Without --cwd the best guess for the compilation directory is where
	// the log itself lives, resolved through symlinks.
	if opts.Cwd == "" {
		dir, err := filepath.Abs(filepath.Dir(logPath))
		if err != nil {
			return WrapExitError(ExitCommandError, "resolving log directory", err)
		}
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			dir = resolved
		}
		opts.Cwd = dir
		log.Debug("defaulted compilation directory", "cwd", opts.Cwd)
	}

	run := opts.newRun(logPath)
	res, err := opts.parseTrace(logPath)
	if err != nil {
		return err
	}

	if err := opts.writeDatabases(opts.DestDir, res.Compiles, res.Links); err != nil {
		return err
	}
	if err := opts.persistRun(cmd.Context(), run, res); err != nil {
		return err
	}

	summarize(res, opts.LinkCommands)
	return nil
}
