package rules

import (
	"errors"
	"fmt"
	"reflect"
)

// ArgumentError reports a nil or otherwise unusable argument.
// Returned for nil rules added to a set and for nil rules or facts passed
// to an engine.
type ArgumentError struct {
	Arg     string
	Message string
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("invalid argument %s: must not be nil", e.Arg)
	}
	return fmt.Sprintf("invalid argument %s: %s", e.Arg, e.Message)
}

// IsArgumentError returns true if err is or wraps an ArgumentError.
func IsArgumentError(err error) bool {
	var ae *ArgumentError
	return errors.As(err, &ae)
}

// isNil catches both untyped nil and typed nil pointers hidden in an
// interface value.
func isNil(r Rule) bool {
	if r == nil {
		return true
	}
	v := reflect.ValueOf(r)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}
