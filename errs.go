package dbmodel

import (
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrKeyAlreadyExists  = errors.New("key already exists")
	ErrKeyNotFound       = errors.New("key not found")
	ErrNoRowsAffected    = errors.New("no rows affected")
	ErrUnknownDriver     = errors.New("unknown driver")
	ErrConnectionClosed  = errors.New("connection already closed")
	ErrInvalidModel      = errors.New("invalid model")
	ErrUnsupportedAssign = errors.New("unsupported assignment")
)

// ConnectionError is returned when a driver cannot be resolved or the database
// cannot be reached.
type ConnectionError struct {
	Driver string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Driver, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// BatchExecutionError reports the first statement of a create or update batch
// that failed or affected no rows. Statements after Index were not executed.
type BatchExecutionError struct {
	Index     int
	Statement string
	Err       error
}

func (e *BatchExecutionError) Error() string {
	return fmt.Sprintf("batch statement %d (%s): %v", e.Index, e.Statement, e.Err)
}

func (e *BatchExecutionError) Unwrap() error {
	return e.Err
}

type HydrationError struct {
	Attribute string
	Err       error
}

func (e *HydrationError) Error() string {
	if e.Attribute == "" {
		return fmt.Sprintf("hydrate: %v", e.Err)
	}
	return fmt.Sprintf("hydrate %s: %v", e.Attribute, e.Err)
}

func (e *HydrationError) Unwrap() error {
	return e.Err
}

// AmbiguousDeleteError is returned when a delete affected a row count other
// than exactly one.
type AmbiguousDeleteError struct {
	Table     string
	Predicate string
	Affected  int64
}

func (e *AmbiguousDeleteError) Error() string {
	return fmt.Sprintf("delete from %s where %s affected %d rows, expected 1", e.Table, e.Predicate, e.Affected)
}

func wrapDriverError(family *driverFamily, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrKeyNotFound, err)
	}

	if family != nil && family.isUniqueViolation != nil && family.isUniqueViolation(err) {
		return fmt.Errorf("%w: %w", ErrKeyAlreadyExists, err)
	}

	return err
}
