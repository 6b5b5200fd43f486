package metrics

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/vodforge/vodforge/pkg/logging"
)

type metricsParams struct {
	fx.In

	AnotherLogger logging.Interface
}

// Module provides a Sink from viper configuration under the metrics
// key. A disabled config yields a NopSink; otherwise emissions flow
// through an async queue into the default Prometheus registerer, and
// the queue is drained when the app stops.
var Module = fx.Provide(
	func(v *viper.Viper, params metricsParams, lc fx.Lifecycle) (Sink, error) {
		config, err := NewConfig(
			WithViper(v),
			WithAnotherLog(params.AnotherLogger),
		)
		if err != nil {
			return nil, fmt.Errorf("error creating metrics config: %+v", err)
		}

		if err = config.Validate(); err != nil {
			return nil, fmt.Errorf("error validating metrics config: %+v", err)
		}

		if !config.Enabled {
			return NewNopSink(), nil
		}

		sink := NewAsyncSink(NewPromSink(nil), config.BufferSize, params.AnotherLogger)
		lc.Append(fx.StopHook(sink.Close))
		return sink, nil
	})
