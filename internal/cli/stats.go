package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arech/yacce/internal/store"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions

	DB    string
	RunID string
	Top   int
}

// NewStatsCommand creates the stats command, which reports on runs saved
// with --db.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show saved runs and their slowest commands",
		Long: `Read the SQLite run store written by --db and report saved runs
together with the slowest commands of one run (the latest by default).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite run store to read")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run to detail (default: the latest)")
	cmd.Flags().IntVar(&opts.Top, "top", 10, "how many slowest commands to show")

	return cmd
}

func runStats(cmd *cobra.Command, opts *StatsOptions) error {
	if opts.DB == "" {
		opts.DB = opts.Config.DB
	}
	if opts.DB == "" {
		return NewExitError(ExitCommandError, "--db is required (or set db in the config file)")
	}
	if _, err := os.Stat(opts.DB); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("run store %s", opts.DB), err)
	}

	s, err := store.Open(opts.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening run store", err)
	}
	defer s.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	runs, err := s.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "listing runs", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "no saved runs")
		return nil
	}

	fmt.Fprintf(out, "%d saved run(s):\n\n", len(runs))
	for _, r := range runs {
		fmt.Fprintf(out, "  %s  %s  %d compile(s), %d link(s), %.3fs total\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Compiles, r.Links, r.TotalDuration)
		fmt.Fprintf(out, "    cwd:   %s\n", r.Cwd)
		fmt.Fprintf(out, "    trace: %s\n", r.TraceFile)
	}

	runID := opts.RunID
	if runID == "" {
		runID = runs[0].ID
	}

	cmds, err := s.SlowestCommands(ctx, runID, opts.Top)
	if err != nil {
		return WrapExitError(ExitCommandError, "querying slowest commands", err)
	}
	if len(cmds) == 0 {
		fmt.Fprintf(out, "\nrun %s has no commands\n", runID)
		return nil
	}

	fmt.Fprintf(out, "\nslowest commands of run %s:\n\n", runID)
	for _, c := range cmds {
		target := c.File
		if target == "" {
			target = c.Output
		}
		fmt.Fprintf(out, "  %8.3fs  %-7s  %s\n", c.Duration, c.Kind, target)
		if opts.Verbose {
			fmt.Fprintf(out, "             %s\n", strings.Join(c.Arguments, " "))
		}
	}
	return nil
}
