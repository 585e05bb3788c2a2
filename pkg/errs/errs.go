// Package errs defines the error-kind taxonomy shared across the service:
// configuration, validation, permission, pipeline, infrastructure, and parse
// errors each carry distinct retry and HTTP-status semantics.
package errs

import (
	"errors"
	"fmt"
)

// Kind tags an error with the handling policy it requires.
type Kind string

const (
	KindConfiguration  Kind = "configuration"
	KindValidation     Kind = "validation"
	KindPermission     Kind = "permission"
	KindPipeline       Kind = "pipeline"
	KindInfrastructure Kind = "infrastructure"
	KindParse          Kind = "parse"
	KindUnknown        Kind = "unknown"
)

// Error is a typed, wrapped error carrying a Kind and an optional
// component/field for context, mirroring the teacher's ValidationError/
// LoadError wrapper-struct pattern.
type Error struct {
	Kind      Kind
	Component string
	Message   string
	Err       error
}

func (e *Error) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Component, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a new typed error.
func New(kind Kind, component, message string) *Error {
	return &Error{Kind: kind, Component: component, Message: message}
}

// Wrap wraps an existing error with a kind and component context.
func Wrap(kind Kind, component string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Component: component, Message: err.Error(), Err: err}
}

// KindOf extracts the Kind of err, defaulting to KindUnknown for untyped errors.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindUnknown
}

// Retryable reports whether the error kind is eligible for the
// exponential-backoff retry policy (spec.md §7): only infrastructure errors
// retry, never validation/parse/pipeline/permission/configuration errors.
func Retryable(err error) bool {
	return KindOf(err) == KindInfrastructure
}

// Sentinel errors used with errors.Is across packages that don't need the
// richer *Error context (mirrors pkg/queue/types.go's sentinel-var idiom).
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrBlocked       = errors.New("operation blocked")
)
