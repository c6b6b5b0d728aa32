// Package errors provides the structured error types returned by the engine
// and its collaborators. Callers check kinds with errors.Is / errors.As or
// with the Is helper below.
package errors

import (
	"errors"
	"fmt"
)

// InputShapeError indicates a table that cannot be matched at all: ragged
// rows, a missing header, unreadable CSV. No partial output accompanies it.
type InputShapeError struct {
	Op  string // where it happened (package.Function)
	Msg string
	Row int // 1-based offending row, 0 when not row specific
	Err error
}

func (e *InputShapeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Msg
	if e.Row > 0 {
		msg = fmt.Sprintf("%s (row %d)", msg, e.Row)
	}
	if e.Err != nil {
		return fmt.Sprintf("input shape: %s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("input shape: %s: %s", e.Op, msg)
}

func (e *InputShapeError) Unwrap() error { return e.Err }

func NewInputShape(op, msg string, row int, err error) error {
	return &InputShapeError{Op: op, Msg: msg, Row: row, Err: err}
}

// ValidationError indicates invalid options or configuration.
type ValidationError struct {
	Op  string
	Msg string
	Err error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("validation: %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("validation: %s: %s", e.Op, e.Msg)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func NewValidation(op, msg string, err error) error {
	return &ValidationError{Op: op, Msg: msg, Err: err}
}

// DBError represents failures of an SQL data source.
type DBError struct {
	Op  string
	Msg string
	Err error
}

func (e *DBError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("db: %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("db: %s: %s", e.Op, e.Msg)
}

func (e *DBError) Unwrap() error { return e.Err }

func NewDB(op, msg string, err error) error { return &DBError{Op: op, Msg: msg, Err: err} }

// Kind sentinels for Is.
var (
	ErrInputShape = &InputShapeError{}
	ErrValidation = &ValidationError{}
	ErrDB         = &DBError{}
)

// Is reports whether err is of the same kind as target. For the sentinels
// above it matches any error of that type in the chain.
func Is(err, target error) bool {
	if err == nil || target == nil {
		return errors.Is(err, target)
	}
	switch target.(type) {
	case *InputShapeError:
		var v *InputShapeError
		return errors.As(err, &v)
	case *ValidationError:
		var v *ValidationError
		return errors.As(err, &v)
	case *DBError:
		var d *DBError
		return errors.As(err, &d)
	default:
		return errors.Is(err, target)
	}
}
