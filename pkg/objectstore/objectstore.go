package objectstore

import (
	"context"
	"io"
	"time"
)

// ObjectRef identifies a single object in a bucket. Keys are treated as
// opaque strings; they are derived upstream from slugified titles and
// media type.
type ObjectRef struct {
	Bucket string
	Key    string
}

// String renders the reference as "bucket/key".
func (r ObjectRef) String() string {
	return r.Bucket + "/" + r.Key
}

// IsZero reports whether the reference is empty.
func (r ObjectRef) IsZero() bool {
	return r.Bucket == "" && r.Key == ""
}

// HeadInfo is the result of a size/existence probe.
type HeadInfo struct {
	Exists      bool
	Size        int64
	ContentType string
	ETag        string
}

// ObjectStore is the object-store collaborator contract. Implementations
// map their SDK errors onto the closed error-kind set in errors.go before
// returning, so callers can classify without inspecting provider types.
type ObjectStore interface {
	// Head probes size and existence. A missing object returns
	// HeadInfo{Exists: false} with a nil error.
	Head(ctx context.Context, ref ObjectRef) (HeadInfo, error)

	// Get opens a whole-object read stream.
	Get(ctx context.Context, ref ObjectRef) (io.ReadCloser, error)

	// GetRange fetches the inclusive byte range [start, end].
	GetRange(ctx context.Context, ref ObjectRef, start, end int64) ([]byte, error)

	// Put writes an object from the reader, streaming in chunks for large
	// payloads, and returns the object's location URI.
	Put(ctx context.Context, ref ObjectRef, reader io.Reader, size int64, contentType string, metadata map[string]string) (string, error)

	// Delete removes an object.
	Delete(ctx context.Context, ref ObjectRef) error

	// PresignGet returns a time-limited read URL for the object.
	PresignGet(ctx context.Context, ref ObjectRef, ttl time.Duration) (string, error)
}
