package graph

import (
	"errors"
	"fmt"

	"github.com/Mirraz/http-replay-sub000/internal/ir"
)

// ErrNotFound is returned by Load when a keyed row does not exist.
var ErrNotFound = errors.New("row not found")

// EngineError represents a failure of one graph submission or load.
//
// Engine errors include:
//   - Table operation failed: a statement against the store failed
//   - Shape violation: the literal or join spec does not fit the presets
//   - Enum race: a lookup-or-insert could not settle on one row
//
// EngineError includes structured fields for diagnostics. None of these
// errors are retried internally; retry is a caller policy of re-submitting
// the whole graph.
type EngineError struct {
	// Code identifies the error category.
	Code EngineErrorCode

	// Message is a human-readable description.
	Message string

	// Table is the table the failing operation targeted, if any.
	Table string

	// Err is the underlying cause, if any.
	Err error
}

// EngineErrorCode categorizes engine errors.
type EngineErrorCode string

const (
	// ErrCodeTableOperationFailed indicates a store statement failed.
	ErrCodeTableOperationFailed EngineErrorCode = "TABLE_OPERATION_FAILED"

	// ErrCodeShapeViolation indicates a malformed literal or join spec.
	ErrCodeShapeViolation EngineErrorCode = "SHAPE_VIOLATION"

	// ErrCodeEnumRace indicates lookup-or-insert kept losing to a concurrent insert.
	ErrCodeEnumRace EngineErrorCode = "ENUM_RACE"
)

// Error implements the error interface.
func (e *EngineError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Table != "" {
		msg = fmt.Sprintf("%s (table=%s)", msg, e.Table)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// IsTableOperationFailed returns true if err is a failed store statement.
// Uses errors.As to handle wrapped errors.
func IsTableOperationFailed(err error) bool {
	return hasCode(err, ErrCodeTableOperationFailed)
}

// IsShapeViolation returns true if err is a shape violation.
// Uses errors.As to handle wrapped errors.
func IsShapeViolation(err error) bool {
	return hasCode(err, ErrCodeShapeViolation)
}

// IsEnumRace returns true if err is an unresolved enum race.
// Uses errors.As to handle wrapped errors.
func IsEnumRace(err error) bool {
	return hasCode(err, ErrCodeEnumRace)
}

func hasCode(err error, code EngineErrorCode) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}

// newTableOpError creates an EngineError for a failed statement.
func newTableOpError(table, op string, err error) *EngineError {
	return &EngineError{
		Code:    ErrCodeTableOperationFailed,
		Message: op + " failed",
		Table:   table,
		Err:     err,
	}
}

// newShapeError creates an EngineError for a shape violation.
func newShapeError(table, format string, args ...any) *EngineError {
	return &EngineError{
		Code:    ErrCodeShapeViolation,
		Message: fmt.Sprintf(format, args...),
		Table:   table,
	}
}

// newEnumRaceError creates an EngineError for an enum race that did not settle.
func newEnumRaceError(table string, value ir.Value, attempts int) *EngineError {
	return &EngineError{
		Code:    ErrCodeEnumRace,
		Message: fmt.Sprintf("value %.40q not settled after %d attempts", ir.Key(value), attempts),
		Table:   table,
	}
}
