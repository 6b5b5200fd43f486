package manifest

import "fmt"

// Validation error codes. A validator failure carries exactly one of
// these, so callers can record a distinct issue per failure mode instead
// of aborting a larger sweep.
const (
	CodeNoVariants        = "NO_VARIANTS"
	CodeVariantUnresolved = "VARIANT_UNRESOLVED"
	CodeFetchFailed       = "MANIFEST_FETCH_FAILED"
	CodeDurationMismatch  = "DURATION_MISMATCH"
)

// Error is a manifest validation failure.
type Error struct {
	Code    string
	Message string
	Details map[string]interface{}
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}
