package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rulekit/internal/compiler"
	"github.com/roach88/rulekit/internal/definition"
	"github.com/roach88/rulekit/internal/facts"
	"github.com/roach88/rulekit/internal/rules"
)

// LoadError describes a file the CLI could not use.
type LoadError struct {
	Code    string
	File    string
	Line    int
	Message string
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Code, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// loadError converts a definition read error into a LoadError.
func loadError(path string, err error) *LoadError {
	var pe *definition.ParseError
	if errors.As(err, &pe) {
		return &LoadError{Code: ErrCodeParse, File: path, Line: pe.Line, Message: pe.Message}
	}
	return &LoadError{Code: ErrCodeGeneric, File: path, Message: err.Error()}
}

// LoadRules reads and compiles definition files into a rule set.
func LoadRules(paths []string, language string, logger *slog.Logger) (*rules.Rules, error) {
	var defs []definition.RuleDefinition
	for _, p := range paths {
		d, err := definition.ReadFile(p)
		if err != nil {
			return nil, loadError(p, err)
		}
		defs = append(defs, d...)
	}

	factory := compiler.NewFactory(
		compiler.WithLanguage(language),
		compiler.WithLogger(logger),
	)
	rs, err := factory.CompileAll(defs)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeCompile, Message: err.Error()}
	}
	return rs, nil
}

// LoadFacts reads a YAML or JSON mapping of fact names to values.
// JSON is read as YAML, which it is a subset of. An empty path gives an
// empty store.
func LoadFacts(path string) (*facts.Facts, error) {
	if path == "" {
		return facts.New(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, File: path, Message: err.Error()}
	}

	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		var te *yaml.TypeError
		if errors.As(err, &te) {
			return nil, &LoadError{Code: ErrCodeParse, File: path, Message: "facts must be a mapping of names to values"}
		}
		return nil, &LoadError{Code: ErrCodeParse, File: path, Message: err.Error()}
	}
	return facts.FromMap(m), nil
}
