package objectstore

import (
	"errors"
	"fmt"
)

// Closed set of error kinds produced at the adapter boundary. Retry
// classification operates on these sentinels via errors.Is, never on
// provider-specific codes or message text.
var (
	// ErrNotFound indicates the requested object or bucket does not exist.
	ErrNotFound = errors.New("objectstore: not found")

	// ErrAccessDenied indicates the caller lacks permission.
	ErrAccessDenied = errors.New("objectstore: access denied")

	// ErrBadCredentials indicates invalid or expired credentials/signature.
	ErrBadCredentials = errors.New("objectstore: bad credentials")

	// ErrMalformedRequest indicates a structurally invalid request argument.
	ErrMalformedRequest = errors.New("objectstore: malformed request")

	// ErrBucketNotEmpty indicates a delete target still holds objects.
	ErrBucketNotEmpty = errors.New("objectstore: bucket not empty")

	// ErrInvalidKey indicates an unusable object key.
	ErrInvalidKey = errors.New("objectstore: invalid key")

	// ErrTimeout indicates the operation timed out.
	ErrTimeout = errors.New("objectstore: operation timed out")

	// ErrThrottled indicates the provider rejected the request due to rate limits.
	ErrThrottled = errors.New("objectstore: throttled")

	// ErrInternal indicates a server-side failure.
	ErrInternal = errors.New("objectstore: internal provider error")
)

// Error is a storage error with operation context. Kind is always one of
// the sentinels above; Err is the underlying provider error.
type Error struct {
	Op       string
	Ref      ObjectRef
	Provider string
	Kind     error
	Err      error
}

func (e *Error) Error() string {
	if !e.Ref.IsZero() {
		return fmt.Sprintf("objectstore %s: %s failed for %s: %v", e.Provider, e.Op, e.Ref, e.Err)
	}
	return fmt.Sprintf("objectstore %s: %s failed: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches either the kind sentinel or the underlying error.
func (e *Error) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return errors.Is(e.Err, target)
}

// NewError creates a new adapter-boundary error.
func NewError(op string, ref ObjectRef, provider string, kind, err error) error {
	return &Error{
		Op:       op,
		Ref:      ref,
		Provider: provider,
		Kind:     kind,
		Err:      err,
	}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAccessDenied checks if an error is an access denied error.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsBadCredentials checks if an error is a credentials error.
func IsBadCredentials(err error) bool {
	return errors.Is(err, ErrBadCredentials)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsThrottled checks if an error is a throttling error.
func IsThrottled(err error) bool {
	return errors.Is(err, ErrThrottled)
}
