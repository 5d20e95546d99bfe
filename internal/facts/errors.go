package facts

import (
	"errors"
	"fmt"
)

// NotFoundError is returned when a lookup names a fact that is not in the store.
type NotFoundError struct {
	Name string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("fact %q not found", e.Name)
}

// TypeMismatchError is returned when a stored value cannot be retrieved as
// the requested type.
type TypeMismatchError struct {
	Name      string
	Requested string
	Stored    string
}

// Error implements the error interface.
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("fact %q holds %s, requested %s", e.Name, e.Stored, e.Requested)
}

// IsNotFound returns true if err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsTypeMismatch returns true if err is or wraps a TypeMismatchError.
func IsTypeMismatch(err error) bool {
	var tm *TypeMismatchError
	return errors.As(err, &tm)
}
