package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/rulekit/internal/store"
)

// JournalRun is one run as printed by the journal command.
type JournalRun struct {
	store.Run
	Firings []store.Firing `json:"firings,omitempty"`
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal <db> [run-id]",
		Short: "Show recorded runs",
		Long: `Show the runs recorded by "rulekit run --journal".

Without a run ID every run is listed in order. With a run ID the run is
shown with each firing.

Examples:
  rulekit journal ./rulekit.db
  rulekit journal ./rulekit.db 0192c6f4-... --format json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 2 {
				runID = args[1]
			}
			return runJournal(rootOpts, args[0], runID, cmd)
		},
	}
	return cmd
}

func runJournal(opts *RootOptions, path, runID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	ctx := commandContext(cmd)

	if _, err := os.Stat(path); err != nil {
		return WrapExitError(ExitCommandError, "journal not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer st.Close()

	if runID == "" {
		runs, err := st.ReadRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		if formatter.IsJSON() {
			return formatter.Success(runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(formatter.Writer, "No runs recorded.")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(formatter.Writer, "%s  %-9s %-6s passes=%d fired=%d\n", r.ID, r.Engine, r.Status, r.Passes, r.Fired)
		}
		return nil
	}

	run, err := st.ReadRun(ctx, runID)
	if store.IsRunNotFound(err) {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitFailure, "run not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	firings, err := st.ReadFirings(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	if formatter.IsJSON() {
		return formatter.Success(JournalRun{Run: run, Firings: firings})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run: %s\n", run.ID)
	fmt.Fprintf(w, "Engine: %s  Status: %s  Passes: %d\n", run.Engine, run.Status, run.Passes)
	fmt.Fprintf(w, "Rules: %d (%s)\n", run.Rules, run.RuleSetHash)
	if run.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", run.Error)
	}
	for _, f := range firings {
		line := fmt.Sprintf("  [%d] %s %s", f.Seq, f.Rule, f.Outcome)
		if f.Error != "" {
			line += ": " + f.Error
		}
		fmt.Fprintln(w, line)
	}
	if run.FinalFacts != "" {
		fmt.Fprintf(w, "Final facts: %s\n", run.FinalFacts)
	}
	return nil
}
