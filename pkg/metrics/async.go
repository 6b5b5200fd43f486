package metrics

import (
	"sync"

	"github.com/vodforge/vodforge/pkg/logging"
)

const defaultAsyncBuffer = 256

type emission struct {
	name  string
	value float64
	dims  map[string]string
}

// AsyncSink decouples emitters from the downstream sink through a
// bounded queue. Enqueueing never blocks: when the queue is full the
// emission is dropped and logged. Downstream errors are logged and
// swallowed, so EmitCounter always returns nil.
type AsyncSink struct {
	next   Sink
	logger logging.Interface

	queue chan emission
	wg    sync.WaitGroup
	once  sync.Once
}

// NewAsyncSink wraps next with a forwarding queue of the given size.
// A non-positive size falls back to the default buffer.
func NewAsyncSink(next Sink, size int, logger logging.Interface) *AsyncSink {
	if size <= 0 {
		size = defaultAsyncBuffer
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &AsyncSink{
		next:   next,
		logger: logger,
		queue:  make(chan emission, size),
	}
	s.wg.Add(1)
	go s.forward()
	return s
}

func (s *AsyncSink) forward() {
	defer s.wg.Done()
	for e := range s.queue {
		if err := s.next.EmitCounter(e.name, e.value, e.dims); err != nil {
			s.logger.WithError(err).WithField("counter", e.name).
				Debug("Dropped counter emission after downstream error")
		}
	}
}

func (s *AsyncSink) EmitCounter(name string, value float64, dims map[string]string) error {
	select {
	case s.queue <- emission{name: name, value: value, dims: dims}:
	default:
		s.logger.WithField("counter", name).Debug("Metrics queue full, dropping emission")
	}
	return nil
}

// Close stops accepting emissions and drains the queue. Emitting after
// Close panics; close only once emitters are done.
func (s *AsyncSink) Close() {
	s.once.Do(func() {
		close(s.queue)
	})
	s.wg.Wait()
}
