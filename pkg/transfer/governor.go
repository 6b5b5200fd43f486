package transfer

import (
	"context"
	"runtime"
	"sync"
)

// Class is a resource class admitted independently by the governor.
type Class int

const (
	ClassUpload Class = iota
	ClassDownload
	ClassHead
	ClassDelete
	ClassQuery
)

func (c Class) String() string {
	switch c {
	case ClassUpload:
		return "upload"
	case ClassDownload:
		return "download"
	case ClassHead:
		return "head"
	case ClassDelete:
		return "delete"
	case ClassQuery:
		return "query"
	default:
		return "unknown"
	}
}

// GovernorLimits holds per-class admission slot counts. Zero values fall
// back to a parallelism-derived default.
type GovernorLimits struct {
	Upload   int
	Download int
	Head     int
	Delete   int
	Query    int
}

// Governor bounds how many operations of each class run concurrently.
// Admission is best-effort FIFO via buffered channels; strict fairness
// under sustained contention is not guaranteed.
type Governor struct {
	sems map[Class]chan struct{}
}

func defaultSlots() int {
	n := runtime.GOMAXPROCS(0)
	if n < 2 {
		n = 2
	}
	return n
}

// NewGovernor creates a governor with the given per-class limits.
func NewGovernor(limits GovernorLimits) *Governor {
	pick := func(n, fallback int) int {
		if n > 0 {
			return n
		}
		return fallback
	}

	base := defaultSlots()
	sems := map[Class]chan struct{}{
		ClassUpload:   make(chan struct{}, pick(limits.Upload, base)),
		ClassDownload: make(chan struct{}, pick(limits.Download, base)),
		// Head probes are cheap; allow twice the base parallelism.
		ClassHead:   make(chan struct{}, pick(limits.Head, base*2)),
		ClassDelete: make(chan struct{}, pick(limits.Delete, base)),
		ClassQuery:  make(chan struct{}, pick(limits.Query, base)),
	}

	return &Governor{sems: sems}
}

// Acquire blocks until an admission slot for the class is free or the
// context is cancelled. The returned release function is idempotent and
// must be called on every exit path of the guarded operation.
func (g *Governor) Acquire(ctx context.Context, class Class) (func(), error) {
	sem := g.sems[class]

	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	release := func() {
		once.Do(func() { <-sem })
	}
	return release, nil
}

// Limit returns the slot count for a class.
func (g *Governor) Limit(class Class) int {
	return cap(g.sems[class])
}

// InFlight returns the number of currently admitted operations of a class.
func (g *Governor) InFlight(class Class) int {
	return len(g.sems[class])
}
