package apperr

import (
	"errors"
	"fmt"
)

// Kind categorizes errors surfaced to callers
type Kind string

const (
	// KindData means the whole input is unusable
	KindData Kind = "DATA"
	// KindInvalidParameter means a query or control parameter is out of range
	KindInvalidParameter Kind = "INVALID_PARAMETER"
)

// Error is a structured error carrying enough context to display a message
type Error struct {
	Kind  Kind
	Op    string // Operation that failed, e.g. "topStations"
	Field string // Offending parameter or field, if any
	Value any    // Offending value, if any
	Err   error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Op)
	if e.Field != "" {
		msg += fmt.Sprintf(": invalid %s", e.Field)
		if e.Value != nil {
			msg += fmt.Sprintf(" %v", e.Value)
		}
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Data creates a DataError for op wrapping cause
func Data(op string, cause error) *Error {
	return &Error{Kind: KindData, Op: op, Err: cause}
}

// InvalidParam creates an InvalidQueryParameter error
func InvalidParam(op, field string, value any, reason string) *Error {
	var cause error
	if reason != "" {
		cause = errors.New(reason)
	}
	return &Error{Kind: KindInvalidParameter, Op: op, Field: field, Value: value, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or ""
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsData reports whether err is a DataError
func IsData(err error) bool {
	return KindOf(err) == KindData
}

// IsInvalidParam reports whether err is an InvalidQueryParameter error
func IsInvalidParam(err error) bool {
	return KindOf(err) == KindInvalidParameter
}
