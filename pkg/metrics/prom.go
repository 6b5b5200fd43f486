package metrics

import (
	"fmt"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PromSink exposes emitted counters through a Prometheus registerer.
// Counter vectors are registered lazily on first emission of each name;
// the dimension keys seen then become the vector's label set, and later
// emissions for the same name must carry the same keys.
type PromSink struct {
	registerer prometheus.Registerer

	mu   sync.Mutex
	vecs map[string]*counterVec
}

type counterVec struct {
	vec    *prometheus.CounterVec
	labels []string
}

// NewPromSink creates a sink registering against the given registerer,
// or the default registerer when nil.
func NewPromSink(registerer prometheus.Registerer) *PromSink {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &PromSink{
		registerer: registerer,
		vecs:       make(map[string]*counterVec),
	}
}

func (s *PromSink) EmitCounter(name string, value float64, dims map[string]string) error {
	if name == "" {
		return fmt.Errorf("counter name is empty")
	}
	if value < 0 {
		return fmt.Errorf("counter %s: negative value %v", name, value)
	}

	labels := make([]string, 0, len(dims))
	for k := range dims {
		labels = append(labels, k)
	}
	sort.Strings(labels)

	entry, err := s.vecFor(name, labels)
	if err != nil {
		return err
	}

	counter, err := entry.vec.GetMetricWith(prometheus.Labels(dims))
	if err != nil {
		return fmt.Errorf("counter %s: %w", name, err)
	}
	counter.Add(value)
	return nil
}

func (s *PromSink) vecFor(name string, labels []string) (*counterVec, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.vecs[name]; ok {
		if len(entry.labels) != len(labels) {
			return nil, fmt.Errorf("counter %s: label set changed from %v to %v", name, entry.labels, labels)
		}
		for i := range labels {
			if entry.labels[i] != labels[i] {
				return nil, fmt.Errorf("counter %s: label set changed from %v to %v", name, entry.labels, labels)
			}
		}
		return entry, nil
	}

	vec := promauto.With(s.registerer).NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: fmt.Sprintf("Counter %s emitted by the transfer and integrity layers", name),
	}, labels)
	entry := &counterVec{vec: vec, labels: labels}
	s.vecs[name] = entry
	return entry, nil
}
