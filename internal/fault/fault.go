// Package fault defines the error taxonomy shared by the harness.
//
// Every error that aborts or degrades a scenario falls into one of four
// classes:
//
//   - Auth: login/logout against the backend failed
//   - Infrastructure: network error, timeout, or malformed JSON
//   - Assertion: an expectation on a response was violated
//   - Cleanup: best-effort teardown failed (never fatal)
//
// The classes drive both reporting (an infrastructure failure is not a
// regression) and propagation (cleanup errors never mask earlier ones).
package fault

import (
	"errors"
	"fmt"
)

// Class categorizes harness errors.
type Class string

const (
	// ClassAuth indicates a login or logout failure.
	ClassAuth Class = "AUTH"

	// ClassInfrastructure indicates a network error, timeout, or
	// unparseable response body.
	ClassInfrastructure Class = "INFRASTRUCTURE"

	// ClassAssertion indicates an expectation violation.
	ClassAssertion Class = "ASSERTION"

	// ClassCleanup indicates a best-effort teardown failure.
	ClassCleanup Class = "CLEANUP"
)

// Error is a classified harness error.
type Error struct {
	// Class identifies the error category.
	Class Class

	// Op names the operation that failed (e.g. "POST /api/v1/cash/open").
	Op string

	// Message is a human-readable description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %s: %v", e.Class, e.Op, e.Message, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s: %s", e.Class, e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Class, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Class, e.Message)
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error.
func New(class Class, op, message string, err error) *Error {
	return &Error{Class: class, Op: op, Message: message, Err: err}
}

// Auth creates a ClassAuth error.
func Auth(op, message string, err error) *Error {
	return New(ClassAuth, op, message, err)
}

// Infrastructure creates a ClassInfrastructure error.
func Infrastructure(op, message string, err error) *Error {
	return New(ClassInfrastructure, op, message, err)
}

// Assertion creates a ClassAssertion error.
func Assertion(op, message string, err error) *Error {
	return New(ClassAssertion, op, message, err)
}

// Cleanup creates a ClassCleanup error.
func Cleanup(op, message string, err error) *Error {
	return New(ClassCleanup, op, message, err)
}

// ClassOf extracts the class from an error chain.
// Unclassified errors are treated as infrastructure failures, since they
// can only come from the transport or the harness itself, never from a
// checked expectation.
func ClassOf(err error) Class {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Class
	}
	return ClassInfrastructure
}

// IsAuth reports whether err is a ClassAuth error.
// Uses errors.As to handle wrapped errors.
func IsAuth(err error) bool { return is(err, ClassAuth) }

// IsInfrastructure reports whether err is a ClassInfrastructure error
// (or unclassified).
func IsInfrastructure(err error) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Class == ClassInfrastructure
	}
	return err != nil
}

// IsAssertion reports whether err is a ClassAssertion error.
func IsAssertion(err error) bool { return is(err, ClassAssertion) }

// IsCleanup reports whether err is a ClassCleanup error.
func IsCleanup(err error) bool { return is(err, ClassCleanup) }

func is(err error, class Class) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Class == class
	}
	return false
}
