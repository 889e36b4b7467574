package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/arech/yacce/internal/bazel"
	"github.com/arech/yacce/internal/cdb"
	"github.com/arech/yacce/internal/log"
	"github.com/arech/yacce/internal/strace"
)

// BazelOptions holds flags for the bazel command.
type BazelOptions struct {
	CommonOptions

	LogFile           string
	KeepLog           string
	External          string
	ExternalSavePath  string
	ExternalGenerated bool
}

// NewBazelCommand creates the bazel command, which traces a bazel build and
// reconstructs the command databases from the trace.
func NewBazelCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BazelOptions{CommonOptions: CommonOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "bazel [flags] -- <build command>",
		Short: "Trace a bazel build and reconstruct command databases",
		Long: `Run a bazel build under strace and reconstruct compile_commands.json
(and optionally link_commands.json) from the trace.

Everything after -- is the build command, e.g.:

  yacce bazel -- bazel build //src:app

Compile commands for external components (sources under external/ in the
execution root) are dropped by default; --external controls this.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBazel(cmd, opts, args)
		},
	}

	addCommonFlags(cmd, &opts.CommonOptions)
	cmd.Flags().StringVar(&opts.LogFile, "log_file", "", "write the strace log here instead of a temp file")
	cmd.Flags().StringVar(&opts.KeepLog, "keep_log", string(bazel.KeepLogIfFailed),
		"when to keep the strace log (if_failed|always|never)")
	cmd.Flags().StringVar(&opts.External, "external", string(bazel.ExternalIgnore),
		"handling of external component compile commands (ignore|separate|squash)")
	cmd.Flags().StringVar(&opts.ExternalSavePath, "external_save_path", "",
		"with --external=separate, write per-component databases under this directory instead of the components' own directories")
	cmd.Flags().BoolVar(&opts.ExternalGenerated, "external_generated", false,
		"treat sources generated under bazel-out/.../bin/external/ as external too")

	return cmd
}

func runBazel(cmd *cobra.Command, opts *BazelOptions, argv []string) error {
	opts.applyConfig(cmd)
	if !cmd.Flags().Changed("external") && opts.Config.External != "" {
		opts.External = opts.Config.External
	}

	mode := bazel.ExternalMode(opts.External)
	if !slices.Contains(bazel.ValidExternalModes, mode) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid --external %q: must be one of %v", opts.External, bazel.ValidExternalModes))
	}
	keep := bazel.KeepLogPolicy(opts.KeepLog)
	if !slices.Contains(bazel.ValidKeepLogPolicies, keep) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid --keep_log %q: must be one of %v", opts.KeepLog, bazel.ValidKeepLogPolicies))
	}
	if len(argv) == 0 {
		return NewExitError(ExitCommandError, "no build command given after --")
	}

	ctx := cmd.Context()

	// Bazel compiles from the execution root, so that's the right
	// compilation directory unless the user says otherwise.
	if opts.Cwd == "" {
		root, err := bazel.ExecutionRoot(ctx, ".")
		if err != nil {
			return WrapExitError(ExitCommandError, "querying bazel execution root", err)
		}
		opts.Cwd = root
		log.Debug("defaulted compilation directory", "cwd", opts.Cwd)
	}

	logPath, cleanup, err := prepareLogPath(opts.LogFile)
	if err != nil {
		return err
	}

	failed := true
	defer func() {
		if bazel.ShouldKeepLog(keep, failed) {
			log.Info("strace log kept", "path", logPath)
		} else {
			cleanup()
		}
	}()

	log.Info("tracing build", "log", logPath, "command", argv)
	if err := bazel.TraceBuild(ctx, logPath, argv); err != nil {
		return WrapExitError(ExitCommandError, "running traced build", err)
	}

	run := opts.newRun(logPath)
	res, err := opts.parseTrace(logPath)
	if err != nil {
		return err
	}

	compiles := res.Compiles
	var external map[string][]strace.CompileCommand
	if mode != bazel.ExternalSquash {
		p := bazel.PartitionExternal(compiles, bazel.PartitionOptions{
			IncludeGenerated: opts.ExternalGenerated,
			Log:              log.Logger(),
		})
		compiles = p.Project
		if mode == bazel.ExternalSeparate {
			external = p.External
		} else if len(p.External) > 0 {
			log.Info("dropped external compile commands", "components", len(p.External))
		}
	}

	if err := opts.writeDatabases(opts.DestDir, compiles, res.Links); err != nil {
		return err
	}
	if err := opts.writeExternalDatabases(ctx, external); err != nil {
		return err
	}
	if err := opts.persistRun(ctx, run, res); err != nil {
		return err
	}

	failed = false
	summarize(res, opts.LinkCommands)
	return nil
}

// writeExternalDatabases writes one compile database per external component,
// next to the component's sources under the bazel output base, or under
// --external_save_path when given.
func (o *BazelOptions) writeExternalDatabases(ctx context.Context, external map[string][]strace.CompileCommand) error {
	if len(external) == 0 {
		return nil
	}

	root := o.ExternalSavePath
	if root == "" {
		base, err := bazel.OutputBase(ctx, ".")
		if err != nil {
			return WrapExitError(ExitCommandError, "querying bazel output base", err)
		}
		root = filepath.Join(base, "external")
	}

	dirs := bazel.ComponentDirs(root, bazel.Partition{External: external}, log.Logger())
	for comp, cmds := range external {
		dir := dirs[comp]
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("creating %s", dir), err)
		}
		if _, err := cdb.WriteCompile(dir, o.Cwd, cmds, o.SaveDuration); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("writing database for component %s", comp), err)
		}
	}
	return nil
}

// prepareLogPath returns the strace log destination and a cleanup func.
// With an explicit path the file is the user's business; otherwise a temp
// file is created.
func prepareLogPath(explicit string) (string, func(), error) {
	if explicit != "" {
		return explicit, func() {}, nil
	}
	f, err := os.CreateTemp("", "yacce-*.trace")
	if err != nil {
		return "", nil, WrapExitError(ExitCommandError, "creating temp trace log", err)
	}
	path := f.Name()
	f.Close()
	return path, func() {
		if err := os.Remove(path); err != nil {
			log.Warn("couldn't remove strace log", "path", path, "error", err)
		}
	}, nil
}
