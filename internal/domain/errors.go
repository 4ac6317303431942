package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures for the run wrapper and HTTP layer.
type ErrorKind string

const (
	// KindValidation marks a missing or invalid required input.
	KindValidation ErrorKind = "validation"
	// KindAgent marks a fault inside a node's own logic.
	KindAgent ErrorKind = "agent"
	// KindWorkflow marks a graph-level failure.
	KindWorkflow ErrorKind = "workflow"
	// KindService marks an external call failure (advisory, dispatch).
	KindService ErrorKind = "external_service"
)

type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func NewValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func NewAgentError(msg string, err error) *Error {
	return &Error{Kind: KindAgent, Msg: msg, Err: err}
}

func NewWorkflowError(msg string) *Error {
	return &Error{Kind: KindWorkflow, Msg: msg}
}

func NewServiceError(msg string, err error) *Error {
	return &Error{Kind: KindService, Msg: msg, Err: err}
}

// IsKind reports whether err wraps a domain error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}
