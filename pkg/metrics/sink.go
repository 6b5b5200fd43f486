// Package metrics is the sink boundary for operational counters. The
// scanner and transfer layers emit through Sink on a best-effort basis;
// a failing or absent sink never fails the operation that emitted.
package metrics

// Sink receives named counter increments with free-form dimensions.
type Sink interface {
	EmitCounter(name string, value float64, dims map[string]string) error
}

// NopSink discards every emission.
type NopSink struct{}

// NewNopSink returns a sink that does nothing.
func NewNopSink() *NopSink {
	return &NopSink{}
}

func (*NopSink) EmitCounter(string, float64, map[string]string) error {
	return nil
}
