package transfer

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/vodforge/vodforge/pkg/logging"
	"github.com/vodforge/vodforge/pkg/objectstore"
)

type transferParams struct {
	fx.In

	AnotherLogger logging.Interface
	Store         objectstore.ObjectStore
}

// Module provides a *transfer.Engine from viper configuration under the
// transfer key.
var Module = fx.Provide(
	func(v *viper.Viper, params transferParams) (*Engine, error) {
		config, err := NewConfig(
			WithViper(v),
			WithAnotherLog(params.AnotherLogger),
			WithStore(params.Store),
		)
		if err != nil {
			return nil, fmt.Errorf("error creating transfer config: %+v", err)
		}

		if err = config.Validate(); err != nil {
			return nil, fmt.Errorf("error validating transfer config: %+v", err)
		}
		return NewEngine(config)
	})
