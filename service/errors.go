package service

import (
	"errors"
	"fmt"
)

// Kind classifies orchestrator failures.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindProvider      Kind = "provider"
	KindStore         Kind = "store"
	KindValidation    Kind = "validation"
)

var (
	// ErrConfiguration matches missing or invalid settings and collection schema mismatches.
	ErrConfiguration = errors.New("configuration error")
	// ErrProvider matches embedding provider failures.
	ErrProvider = errors.New("embedding provider error")
	// ErrStore matches vector database failures.
	ErrStore = errors.New("vector store error")
	// ErrValidation matches caller arguments that violate a precondition.
	ErrValidation = errors.New("validation error")
)

func (k Kind) sentinel() error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindProvider:
		return ErrProvider
	case KindStore:
		return ErrStore
	case KindValidation:
		return ErrValidation
	}
	return nil
}

// Error is returned by every Service operation.
// errors.Is matches both the Kind sentinel and the wrapped cause.
type Error struct {
	Kind  Kind
	Op    string
	Field string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.sentinel().Error()
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// KindOf returns the kind of an orchestrator error, or "" for other errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func configError(op, field string, format string, args ...interface{}) *Error {
	return &Error{Kind: KindConfiguration, Op: op, Field: field, Err: fmt.Errorf(format, args...)}
}

func validationError(op, field string, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Op: op, Field: field, Err: fmt.Errorf(format, args...)}
}

// StageError names the pipeline stage that failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }
