package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rulekit/internal/definition"
	"github.com/roach88/rulekit/internal/engine"
)

// Scenario is one engine run with expectations about its outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Rules lists definition files (.json, .yaml, .yml, .cue).
	// Paths are relative to the scenario file location.
	Rules []string `yaml:"rules,omitempty"`

	// Definitions are inline rule definitions, added after those from Rules.
	Definitions []definition.RuleDefinition `yaml:"definitions,omitempty"`

	// Language is the default expression language. Default: js.
	Language string `yaml:"language,omitempty"`

	// Engine is "default" or "inference". Default: default.
	Engine string `yaml:"engine,omitempty"`

	Parameters Parameters `yaml:"parameters,omitempty"`

	// MaxPasses caps inference passes. 0 means uncapped.
	MaxPasses int `yaml:"max_passes,omitempty"`

	// Facts is the initial fact store.
	Facts map[string]any `yaml:"facts,omitempty"`

	Expect Expect `yaml:"expect"`
}

// Parameters mirrors engine.Parameters. An unset threshold means none.
type Parameters struct {
	SkipOnFirstAppliedRule      bool `yaml:"skip_on_first_applied_rule,omitempty"`
	SkipOnFirstNonTriggeredRule bool `yaml:"skip_on_first_non_triggered_rule,omitempty"`
	PriorityThreshold           *int `yaml:"priority_threshold,omitempty"`
}

// Engine returns the engine parameters described by p.
func (p Parameters) Engine() engine.Parameters {
	params := engine.DefaultParameters()
	params.SkipOnFirstAppliedRule = p.SkipOnFirstAppliedRule
	params.SkipOnFirstNonTriggeredRule = p.SkipOnFirstNonTriggeredRule
	if p.PriorityThreshold != nil {
		params.PriorityThreshold = engine.Threshold(*p.PriorityThreshold)
	}
	return params
}

// Expect describes the outcome a scenario requires.
type Expect struct {
	// Fired is the exact firing order, by rule name.
	// Nil skips the check; an empty list requires that nothing fired.
	Fired []string `yaml:"fired"`

	// Facts are required final fact values. Facts not listed may hold
	// anything.
	Facts map[string]any `yaml:"facts,omitempty"`

	// Absent lists facts that must not be present at the end.
	Absent []string `yaml:"absent,omitempty"`

	// Error is a substring the run's error must contain. Empty requires
	// the run to succeed.
	Error string `yaml:"error,omitempty"`
}

// RulesFileNotFoundError is returned when a scenario references a rules
// file that does not exist.
type RulesFileNotFoundError struct {
	Scenario     string
	Path         string
	ResolvedPath string
}

func (e *RulesFileNotFoundError) Error() string {
	return fmt.Sprintf(
		"scenario %q references rules file %q which does not exist (resolved to: %s)",
		e.Scenario,
		e.Path,
		e.ResolvedPath,
	)
}

// LoadScenario reads and parses a scenario YAML file, resolving rules
// paths relative to the file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(path)
	for i, p := range scenario.Rules {
		if !filepath.IsAbs(p) {
			scenario.Rules[i] = filepath.Join(baseDir, p)
		}
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes a scenario without resolving or checking rules
// paths.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml scenario in dir, sorted by
// file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to list scenarios: %w", err)
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Rules) == 0 && len(s.Definitions) == 0 {
		return fmt.Errorf("rules or definitions is required")
	}

	switch s.Engine {
	case "", engine.KindDefault, engine.KindInference:
	default:
		return fmt.Errorf("engine must be %q or %q, got %q", engine.KindDefault, engine.KindInference, s.Engine)
	}

	switch s.Language {
	case "", definition.LanguageJS, definition.LanguageCEL:
	default:
		return fmt.Errorf("language must be %q or %q, got %q", definition.LanguageJS, definition.LanguageCEL, s.Language)
	}

	if s.MaxPasses < 0 {
		return fmt.Errorf("max_passes must not be negative")
	}
	if s.MaxPasses > 0 && s.engineKind() != engine.KindInference {
		return fmt.Errorf("max_passes requires the inference engine")
	}

	for _, p := range s.Rules {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return &RulesFileNotFoundError{Scenario: s.Name, Path: filepath.Base(p), ResolvedPath: p}
		}
	}

	for i, name := range s.Expect.Absent {
		if _, ok := s.Expect.Facts[name]; ok {
			return fmt.Errorf("expect.absent[%d]: %q is also listed in expect.facts", i, name)
		}
	}
	return nil
}

func (s *Scenario) engineKind() string {
	if s.Engine == "" {
		return engine.KindDefault
	}
	return s.Engine
}

func (s *Scenario) language() string {
	if s.Language == "" {
		return definition.LanguageJS
	}
	return s.Language
}
