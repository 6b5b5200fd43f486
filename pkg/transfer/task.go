package transfer

import (
	"github.com/google/uuid"

	"github.com/vodforge/vodforge/pkg/objectstore"
)

// OpKind is the kind of transfer operation a task performs.
type OpKind string

const (
	OpPut      OpKind = "put"
	OpGet      OpKind = "get"
	OpGetRange OpKind = "get-range"
	OpHead     OpKind = "head"
	OpDelete   OpKind = "delete"
)

// task tracks one in-flight operation. It lives only for the duration of
// a single Engine call and is never persisted.
type task struct {
	id       string
	kind     OpKind
	target   objectstore.ObjectRef
	attempts int
}

func newTask(kind OpKind, target objectstore.ObjectRef) *task {
	return &task{
		id:     uuid.NewString(),
		kind:   kind,
		target: target,
	}
}

// Result is the structured outcome of a public transfer operation.
// Failures are returned as values, not panics, so pipeline callers can
// decide whether a failure is fatal to the enclosing workflow.
type Result struct {
	Success  bool
	Location string
	Err      error
}

func failure(err error) Result {
	return Result{Success: false, Err: err}
}

func success(location string) Result {
	return Result{Success: true, Location: location}
}
