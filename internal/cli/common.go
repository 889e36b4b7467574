package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/arech/yacce/internal/catalog"
	"github.com/arech/yacce/internal/cdb"
	"github.com/arech/yacce/internal/log"
	"github.com/arech/yacce/internal/store"
	"github.com/arech/yacce/internal/strace"
)

// CommonOptions holds the flags shared by the bazel and from_log commands.
type CommonOptions struct {
	*RootOptions

	Cwd            string
	Compilers      []string
	CatalogDir     string
	DestDir        string
	LinkCommands   bool
	IgnoreNotFound bool
	SaveDuration   bool
	DB             string
}

func addCommonFlags(cmd *cobra.Command, opts *CommonOptions) {
	cmd.Flags().StringVar(&opts.Cwd, "cwd", "", "compilation directory for the databases (default depends on the mode)")
	cmd.Flags().StringArrayVarP(&opts.Compilers, "compiler", "c", nil,
		"additional compiler to recognize; a leading / matches the full path, otherwise the basename")
	cmd.Flags().StringVar(&opts.CatalogDir, "catalog", "", "directory with extra compiler catalogue CUE files")
	cmd.Flags().StringVarP(&opts.DestDir, "dest_dir", "d", ".", "directory to write the databases into")
	cmd.Flags().BoolVarP(&opts.LinkCommands, "link_commands", "l", false, "also write "+cdb.LinkDBName)
	cmd.Flags().BoolVar(&opts.IgnoreNotFound, "ignore-not-found", false, "don't warn about referenced paths that don't exist")
	cmd.Flags().BoolVar(&opts.SaveDuration, "save_duration", false, "record measured command durations in the databases")
	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite file to persist the run into (empty disables)")
}

// applyConfig fills in defaults from the user config for flags the user
// didn't set on the command line.
func (o *CommonOptions) applyConfig(cmd *cobra.Command) {
	cfg := o.Config
	if !cmd.Flags().Changed("compiler") {
		o.Compilers = cfg.Compilers
	}
	if !cmd.Flags().Changed("catalog") && cfg.CatalogDir != "" {
		o.CatalogDir = cfg.CatalogDir
	}
	if !cmd.Flags().Changed("link_commands") {
		o.LinkCommands = cfg.LinkCommands
	}
	if !cmd.Flags().Changed("save_duration") {
		o.SaveDuration = cfg.SaveDuration
	}
	if !cmd.Flags().Changed("db") && cfg.DB != "" {
		o.DB = cfg.DB
	}
}

// parseTrace reconstructs commands from the trace at logPath.
func (o *CommonOptions) parseTrace(logPath string) (*strace.Result, error) {
	compilers, err := catalog.Build(o.Compilers, o.CatalogDir)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "building compiler catalogue", err)
	}

	res, err := strace.ParseFile(logPath, strace.Config{
		Cwd:          o.Cwd,
		Compilers:    compilers,
		CollectLinks: o.LinkCommands,
		CheckFiles:   !o.IgnoreNotFound,
		Log:          log.Logger(),
	})
	if err != nil {
		return nil, WrapExitError(ExitFailure, "parsing trace", err)
	}
	return res, nil
}

// writeDatabases writes the main compile database (and the link database if
// requested) under destDir.
func (o *CommonOptions) writeDatabases(destDir string, compiles []strace.CompileCommand, links []strace.LinkCommand) error {
	if _, err := cdb.WriteCompile(destDir, o.Cwd, compiles, o.SaveDuration); err != nil {
		return WrapExitError(ExitCommandError, "writing compile database", err)
	}
	if o.LinkCommands {
		if _, err := cdb.WriteLink(destDir, o.Cwd, links, o.SaveDuration); err != nil {
			return WrapExitError(ExitCommandError, "writing link database", err)
		}
	}
	return nil
}

// newRun mints the run identity for this invocation when --db is set, and
// tags all further diagnostics with it.
func (o *CommonOptions) newRun(logPath string) *store.Run {
	if o.DB == "" {
		return nil
	}
	run := store.NewRun(o.Cwd, logPath)
	log.SetRunID(run.ID)
	return &run
}

// persistRun saves the run to the SQLite store. A nil run means --db wasn't
// given.
func (o *CommonOptions) persistRun(ctx context.Context, run *store.Run, res *strace.Result) error {
	if run == nil {
		return nil
	}
	s, err := store.Open(o.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening run store", err)
	}
	defer s.Close()

	if err := s.SaveRun(ctx, *run, res); err != nil {
		return WrapExitError(ExitCommandError, "saving run", err)
	}
	log.Info("run saved", "id", run.ID, "db", o.DB)
	return nil
}

// summarize reports what the parse produced.
func summarize(res *strace.Result, linkCommands bool) {
	if linkCommands {
		log.Info("reconstruction finished",
			"compile_commands", len(res.Compiles), "link_commands", len(res.Links))
		return
	}
	log.Info("reconstruction finished", "compile_commands", len(res.Compiles))
}
