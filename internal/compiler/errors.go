package compiler

import (
	"errors"
	"fmt"
)

// CompileError reports a definition that could not be turned into a rule.
type CompileError struct {
	Rule    string
	Field   string
	Message string
}

func (e *CompileError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("compile: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("compile rule %q: %s: %s", e.Rule, e.Field, e.Message)
}

// IsCompileError returns true if err is or wraps a CompileError.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

// ExpressionError reports an expression that failed while a rule ran.
type ExpressionError struct {
	Language string
	Source   string
	Err      error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("%s expression %q: %v", e.Language, e.Source, e.Err)
}

func (e *ExpressionError) Unwrap() error {
	return e.Err
}
