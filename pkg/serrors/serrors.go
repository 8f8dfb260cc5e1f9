// Package serrors defines the semantic error kinds used across the pipeline.
// A kind is a comparable sentinel; wrapping an error with a kind lets callers
// classify failures with errors.Is without inspecting message strings.
package serrors

import (
	"errors"
	"fmt"
)

// Kind is a marker interface implemented by all semantic error kinds created
// with NewKind. It allows distinguishing semantic kinds from ordinary errors.
type Kind interface {
	error
	isKind()
}

type kind struct{ s string }

func (k kind) Error() string { return k.s }
func (k kind) isKind()       {}

// NewKind creates a new semantic error kind (a sentinel) with the provided
// name. Kinds are comparable and can be used with errors.Is/As through the
// serrors.Error wrapper.
func NewKind(name string) Kind { return kind{s: name} }

// Kinds used by the pipeline. Step implementations wrap their failures with
// one of these so the runner can report a classified failure for the run.
var (
	// ErrNotFound indicates a requested artifact, run or file does not exist.
	ErrNotFound = NewKind("NOT_FOUND")
	// ErrInvalidConfig indicates the configuration (file or override) is unusable.
	ErrInvalidConfig = NewKind("INVALID_CONFIG")
	// ErrInvalidData indicates a dataset failed validation or cannot be parsed.
	ErrInvalidData = NewKind("INVALID_DATA")
	// ErrExternal indicates a failure in an external system (source download,
	// tracking API, object storage).
	ErrExternal = NewKind("EXTERNAL")
	// ErrInternal indicates a programming or environment error.
	ErrInternal = NewKind("INTERNAL")
	// ErrCanceled indicates the run was interrupted before completion.
	ErrCanceled = NewKind("CANCELED")
)

// Error is a semantic error carrying a kind, an optional wrapped cause and an
// optional message. It fully supports errors.Is/errors.As and unwrapping:
// matching succeeds against either the kind sentinel or the wrapped cause.
type Error struct {
	kind Kind
	err  error
	msg  string
}

// With constructs a new semantic error with the given kind and a formatted
// message. Use Wrap if there is also a concrete cause to carry.
func With(k Kind, msgFmt string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(msgFmt, args...)}
}

// Wrap constructs a new semantic error with the given kind, wrapping cause err
// and adding a formatted message.
func Wrap(k Kind, err error, msgFmt string, args ...any) *Error {
	return &Error{kind: k, err: err, msg: fmt.Sprintf(msgFmt, args...)}
}

// KindOnly creates a semantic error carrying only the kind.
func KindOnly(k Kind) *Error { return &Error{kind: k} }

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	default:
		if e.kind != nil {
			return e.kind.Error()
		}

		return "unknown error"
	}
}

// Unwrap returns the wrapped cause, enabling errors.Unwrap/Is/As traversal.
func (e *Error) Unwrap() error { return e.err }

// Is matches against either the kind sentinel or the wrapped cause.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return e == nil && target == nil
	}
	if e.kind != nil && errors.Is(e.kind, target) {
		return true
	}
	if e.err != nil && errors.Is(e.err, target) {
		return true
	}

	return false
}

// As matches type assertions against either the kind sentinel or the wrapped
// cause.
func (e *Error) As(target any) bool {
	if e == nil || target == nil {
		return false
	}
	if e.kind != nil && errors.As(e.kind, target) {
		return true
	}
	if e.err != nil && errors.As(e.err, target) {
		return true
	}

	return false
}

// Kind returns the semantic kind sentinel associated with this error, or nil.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the message attached to this error.
func (e *Error) Message() string { return e.msg }
