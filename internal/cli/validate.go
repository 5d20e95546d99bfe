package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rulekit/internal/compiler"
	"github.com/roach88/rulekit/internal/definition"
)

// Issue is one problem found in a definitions file.
type Issue struct {
	File    string `json:"file"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

func (i Issue) String() string {
	loc := i.File
	if i.Line > 0 {
		loc = fmt.Sprintf("%s:%d", i.File, i.Line)
	}
	if i.Field != "" {
		return fmt.Sprintf("%s: [%s] %s: %s", loc, i.Code, i.Field, i.Message)
	}
	return fmt.Sprintf("%s: [%s] %s", loc, i.Code, i.Message)
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool    `json:"valid"`
	Rules    int     `json:"rules"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Language string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <rules-file>...",
		Short: "Check rule definitions without running them",
		Long: `Check rule definition files without firing any rule.

Reports parse errors, definition errors (missing names, conditions or
actions, bad composite groups) and expression syntax errors for every file,
rather than stopping at the first.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Language, "language", definition.LanguageJS, "default expression language (js|cel)")

	return cmd
}

func runValidate(opts *ValidateOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
	factory := compiler.NewFactory(
		compiler.WithLanguage(opts.Language),
		compiler.WithLogger(newLogger(cmd.ErrOrStderr(), opts.Verbose)),
	)

	result := ValidationResult{Valid: true}
	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)
		count, issues, warnings := validateFile(factory, path)
		result.Rules += count
		result.Errors = append(result.Errors, issues...)
		result.Warnings = append(result.Warnings, warnings...)
	}
	result.Valid = len(result.Errors) == 0

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(formatter.Writer, "! %s\n", w)
	}
	return formatter.Success(fmt.Sprintf("✓ %d rule(s) valid", result.Rules))
}

// validateFile returns the number of definitions read from path, every
// issue found in them and any warnings.
func validateFile(factory *compiler.Factory, path string) (int, []Issue, []Issue) {
	defs, err := definition.ReadFile(path)
	if err != nil {
		le := loadError(path, err)
		return 0, []Issue{{File: path, Code: le.Code, Message: le.Message, Line: le.Line}}, nil
	}

	var warnings []Issue
	for _, ve := range definition.Duplicates(defs) {
		warnings = append(warnings, Issue{File: path, Code: ve.Code, Field: ve.Field, Message: ve.Message})
	}

	var issues []Issue
	for _, ve := range definition.ValidateAll(defs) {
		issues = append(issues, Issue{File: path, Code: ve.Code, Field: ve.Field, Message: ve.Message})
	}
	if len(issues) > 0 {
		return len(defs), issues, warnings
	}

	// Definitions are well formed; compile them to catch expression errors.
	for i := range defs {
		if _, err := factory.Compile(&defs[i]); err != nil {
			issue := Issue{File: path, Code: ErrCodeCompile, Message: err.Error()}
			var ce *compiler.CompileError
			if errors.As(err, &ce) {
				issue.Field = fmt.Sprintf("[%d].%s", i, ce.Field)
				issue.Message = ce.Message
			}
			issues = append(issues, issue)
		}
	}
	return len(defs), issues, warnings
}

func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	msg := fmt.Sprintf("%d validation error(s)", len(result.Errors))
	if formatter.IsJSON() {
		_ = formatter.Failure(ErrCodeGeneric, msg, result)
	} else {
		for _, issue := range result.Errors {
			fmt.Fprintf(formatter.Writer, "✗ %s\n", issue)
		}
		fmt.Fprintln(formatter.Writer, msg)
	}
	return NewExitError(ExitFailure, msg)
}
