package export

import "fmt"

// ErrorCode discriminates export failures. The engine is the only seam
// that classifies errors; renderers and the registry just return or throw.
type ErrorCode string

// Error codes.
const (
	CodeEntityNotFound     ErrorCode = "ENTITY_NOT_FOUND"
	CodeFormatNotSupported ErrorCode = "FORMAT_NOT_SUPPORTED"
	CodePermissionDenied   ErrorCode = "PERMISSION_DENIED"
	CodeTemplateError      ErrorCode = "TEMPLATE_ERROR"
	CodeDataError          ErrorCode = "DATA_ERROR"
)

// Error is the single tagged error type surfaced by the engine.
type Error struct {
	Code    ErrorCode
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the original cause for diagnostics.
func (e *Error) Unwrap() error { return e.cause }

// NewError creates an export error without a cause.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError attaches a lower-level cause under the given code.
// If err is already an *Error it is returned unchanged so classification
// done earlier in the pipeline is preserved.
func WrapError(code ErrorCode, message string, err error) *Error {
	if ee, ok := err.(*Error); ok {
		return ee
	}
	return &Error{Code: code, Message: message, cause: err}
}

// CodeOf returns the error code of err, or CodeDataError when err is not
// an export error.
func CodeOf(err error) ErrorCode {
	if ee, ok := err.(*Error); ok {
		return ee.Code
	}
	return CodeDataError
}
