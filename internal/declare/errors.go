package declare

import (
	"errors"
	"fmt"
)

// DefinitionError reports a declared rule whose shape cannot be adapted.
type DefinitionError struct {
	// Type is the candidate's Go type.
	Type string

	// Rule is the declared rule name, empty when the marker is missing.
	Rule string

	// Message names the violated shape rule.
	Message string
}

// Error implements the error interface.
func (e *DefinitionError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("declare: %s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("declare: %s (rule %q): %s", e.Type, e.Rule, e.Message)
}

// IsDefinitionError returns true if err is or wraps a DefinitionError.
func IsDefinitionError(err error) bool {
	var de *DefinitionError
	return errors.As(err, &de)
}
