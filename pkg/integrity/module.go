package integrity

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/vodforge/vodforge/pkg/logging"
	"github.com/vodforge/vodforge/pkg/manifest"
	"github.com/vodforge/vodforge/pkg/metadata"
	"github.com/vodforge/vodforge/pkg/metrics"
	"github.com/vodforge/vodforge/pkg/transfer"
)

type integrityParams struct {
	fx.In

	AnotherLogger logging.Interface
	Store         metadata.Store
	Engine        *transfer.Engine
	Sink          metrics.Sink
}

// Module provides a *integrity.Scanner from viper configuration under
// the integrity key, wiring the transfer engine as both the existence
// checker and the manifest fetcher.
var Module = fx.Provide(
	func(v *viper.Viper, params integrityParams) (*Scanner, error) {
		config, err := NewConfig(
			WithViper(v),
			WithAnotherLog(params.AnotherLogger),
			WithStore(params.Store),
			WithChecker(params.Engine),
			WithReconciler(manifest.NewValidator(params.Engine, params.AnotherLogger)),
			WithSink(params.Sink),
		)
		if err != nil {
			return nil, fmt.Errorf("error creating integrity config: %+v", err)
		}

		if err = config.Validate(); err != nil {
			return nil, fmt.Errorf("error validating integrity config: %+v", err)
		}
		return NewScanner(config)
	})
