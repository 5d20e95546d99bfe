package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rulekit/internal/canonical"
	"github.com/roach88/rulekit/internal/definition"
	"github.com/roach88/rulekit/internal/engine"
	"github.com/roach88/rulekit/internal/facts"
	"github.com/roach88/rulekit/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	FactsFile                   string
	Inference                   bool
	MaxPasses                   int
	SkipOnFirstNonTriggeredRule bool
	SkipOnFirstAppliedRule      bool
	PriorityThreshold           int
	Language                    string
	Journal                     string

	// IDGenerator overrides the journal run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator store.IDGenerator
}

// RunOutput is the result of the run command.
type RunOutput struct {
	Engine string         `json:"engine"`
	Passes int            `json:"passes"`
	Fired  []string       `json:"fired"`
	Facts  map[string]any `json:"facts"`
	RunID  string         `json:"run_id,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <rules-file>...",
		Short: "Fire rules against a facts file",
		Long: `Compile rule definitions and fire them against a set of facts.

Prints the rules that fired, in order, and the final facts. With --journal
the run and its firings are recorded in a SQLite journal.

Example:
  rulekit run rules.yaml --facts facts.yaml
  rulekit run rules.yaml more.cue --facts facts.json --inference --max-passes 10
  rulekit run rules.json --facts facts.yaml --journal ./rulekit.db --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.FactsFile, "facts", "", "YAML or JSON facts file")
	cmd.Flags().BoolVar(&opts.Inference, "inference", false, "repeat passes until no rule fires")
	cmd.Flags().IntVar(&opts.MaxPasses, "max-passes", 0, "cap on inference passes (0 = uncapped)")
	cmd.Flags().BoolVar(&opts.SkipOnFirstNonTriggeredRule, "skip-on-first-non-triggered", false, "end the pass at the first rule that does not trigger")
	cmd.Flags().BoolVar(&opts.SkipOnFirstAppliedRule, "skip-on-first-applied", false, "end the pass after the first rule fires")
	cmd.Flags().IntVar(&opts.PriorityThreshold, "priority-threshold", 0, "end the pass at the first rule with a greater priority (default none)")
	cmd.Flags().StringVar(&opts.Language, "language", definition.LanguageJS, "default expression language (js|cel)")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "record the run in this SQLite journal")

	return cmd
}

func runRules(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	if opts.Language != definition.LanguageJS && opts.Language != definition.LanguageCEL {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid language %q: must be js or cel", opts.Language))
	}
	if opts.MaxPasses < 0 {
		return NewExitError(ExitCommandError, "--max-passes must not be negative")
	}

	rs, err := LoadRules(paths, opts.Language, logger)
	if err != nil {
		_ = formatter.Error(loadErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load rules", err)
	}
	formatter.VerboseLog("Loaded %d rule(s) from %d file(s)", rs.Len(), len(paths))

	fs, err := LoadFacts(opts.FactsFile)
	if err != nil {
		_ = formatter.Error(loadErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load facts", err)
	}

	params := engine.DefaultParameters()
	params.SkipOnFirstAppliedRule = opts.SkipOnFirstAppliedRule
	params.SkipOnFirstNonTriggeredRule = opts.SkipOnFirstNonTriggeredRule
	if cmd.Flags().Changed("priority-threshold") {
		params.PriorityThreshold = engine.Threshold(opts.PriorityThreshold)
	}

	engineOpts := []engine.Option{
		engine.WithParameters(params),
		engine.WithLogger(logger),
	}

	var rec *store.Recorder
	if opts.Journal != "" {
		st, err := store.Open(opts.Journal)
		if err != nil {
			_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing journal", "error", closeErr)
			}
		}()

		recOpts := []store.RecorderOption{store.WithLogger(logger)}
		if opts.IDGenerator != nil {
			recOpts = append(recOpts, store.WithIDGenerator(opts.IDGenerator))
		}
		if opts.Inference {
			recOpts = append(recOpts, store.WithEngineKind(engine.KindInference))
		}
		rec, err = store.NewRecorder(commandContext(cmd), st, recOpts...)
		if err != nil {
			_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		engineOpts = append(engineOpts, engine.WithRuleListener(rec), engine.WithEngineListener(rec))
	}

	var eng engine.Engine
	if opts.Inference {
		eng = engine.NewInference(append(engineOpts, engine.WithMaxPasses(opts.MaxPasses))...)
	} else {
		eng = engine.NewDefault(engineOpts...)
	}

	report, runErr := eng.Execute(rs, fs)

	out := RunOutput{
		Engine: report.Engine,
		Passes: report.Passes,
		Fired:  report.FiredNames(),
		Facts:  fs.AsMap(),
	}
	if rec != nil {
		if err := rec.Err(); err != nil {
			_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write journal", err)
		}
		if ids := rec.RunIDs(); len(ids) > 0 {
			out.RunID = ids[len(ids)-1]
		}
	}

	if runErr != nil {
		out.Error = runErr.Error()
		if formatter.IsJSON() {
			_ = formatter.Failure(ErrCodeEngine, runErr.Error(), out)
		} else {
			writeRunText(formatter.Writer, out, fs)
			fmt.Fprintf(formatter.Writer, "Error [%s]: %s\n", ErrCodeEngine, runErr.Error())
		}
		return WrapExitError(ExitFailure, "rule engine failed", runErr)
	}

	if formatter.IsJSON() {
		return formatter.Success(out)
	}
	writeRunText(formatter.Writer, out, fs)
	return nil
}

// writeRunText prints fired rules and final facts. Facts are printed as
// canonical JSON in insertion order.
func writeRunText(w io.Writer, out RunOutput, fs *facts.Facts) {
	passes := "passes"
	if out.Passes == 1 {
		passes = "pass"
	}
	fmt.Fprintf(w, "Engine: %s (%d %s)\n", out.Engine, out.Passes, passes)
	if out.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", out.RunID)
	}

	if len(out.Fired) == 0 {
		fmt.Fprintln(w, "Fired: none")
	} else {
		fmt.Fprintln(w, "Fired:")
		for i, name := range out.Fired {
			fmt.Fprintf(w, "  %d. %s\n", i+1, name)
		}
	}

	fmt.Fprintln(w, "Facts:")
	for f := range fs.All() {
		fmt.Fprintf(w, "  %s = %s\n", f.Name, renderValue(f.Value))
	}
}

func renderValue(v any) string {
	data, err := canonical.Marshal(v)
	if err != nil {
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
	return string(data)
}

func loadErrorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeGeneric
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
