package secinfo

import (
	"errors"
	"fmt"
)

// ErrInvalidString is returned by Encode when the error message cannot be
// written as a NUL-terminated wide string.
var ErrInvalidString = errors.New("string is not encodable as a NUL-terminated wide string")

// DecodeErrorCode categorizes decode failures.
type DecodeErrorCode string

const (
	// ErrCodeIdentityMismatch indicates a type identity other than the expected one.
	ErrCodeIdentityMismatch DecodeErrorCode = "IDENTITY_MISMATCH"

	// ErrCodeTrailingData indicates bytes left over after the root record.
	ErrCodeTrailingData DecodeErrorCode = "TRAILING_DATA"

	// ErrCodeTruncated indicates the buffer ended inside a field.
	ErrCodeTruncated DecodeErrorCode = "TRUNCATED"

	// ErrCodeUnsupportedEnvelope indicates the outer envelope is not a
	// serialized security info object.
	ErrCodeUnsupportedEnvelope DecodeErrorCode = "UNSUPPORTED_ENVELOPE"

	// ErrCodeInvalidString indicates a malformed wide string.
	ErrCodeInvalidString DecodeErrorCode = "INVALID_STRING"
)

// DecodeError reports why a buffer is not a valid record.
// Decode errors are local to one blob: callers fall back to keeping the
// raw bytes.
type DecodeError struct {
	Code DecodeErrorCode

	// Node is the structural node being read when decoding failed.
	Node string

	// Offset is the byte offset of the failing read.
	Offset int

	// Expected and Actual are set for IDENTITY_MISMATCH.
	Expected ID
	Actual   ID

	Message string
	Err     error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("%s at offset %d", e.Code, e.Offset)
	if e.Node != "" {
		msg = fmt.Sprintf("%s (node=%s)", msg, e.Node)
	}
	if e.Code == ErrCodeIdentityMismatch {
		msg = fmt.Sprintf("%s: expected %s, got %s", msg, e.Expected, e.Actual)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsIdentityMismatch returns true if err is a type identity mismatch.
func IsIdentityMismatch(err error) bool {
	return hasCode(err, ErrCodeIdentityMismatch)
}

// IsTrailingData returns true if err reports unconsumed bytes.
func IsTrailingData(err error) bool {
	return hasCode(err, ErrCodeTrailingData)
}

// IsTruncated returns true if err reports a short buffer.
func IsTruncated(err error) bool {
	return hasCode(err, ErrCodeTruncated)
}

// IsUnsupportedEnvelope returns true if err rejects the outer envelope.
func IsUnsupportedEnvelope(err error) bool {
	return hasCode(err, ErrCodeUnsupportedEnvelope)
}

// IsInvalidString returns true if err reports a malformed wide string.
func IsInvalidString(err error) bool {
	return hasCode(err, ErrCodeInvalidString)
}

func hasCode(err error, code DecodeErrorCode) bool {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

var errUnpairedSurrogate = errors.New("unpaired UTF-16 surrogate")
