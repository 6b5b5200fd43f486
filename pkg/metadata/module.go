package metadata

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/vodforge/vodforge/pkg/logging"
)

type metadataParams struct {
	fx.In

	AnotherLogger logging.Interface
}

// Module provides the episode Store from viper configuration under the
// metadata key. The SQLite handle is closed when the app stops.
var Module = fx.Provide(
	func(v *viper.Viper, params metadataParams, lc fx.Lifecycle) (Store, error) {
		config, err := NewConfig(
			WithViper(v),
			WithAnotherLog(params.AnotherLogger),
		)
		if err != nil {
			return nil, fmt.Errorf("error creating metadata config: %+v", err)
		}

		if err = config.Validate(); err != nil {
			return nil, fmt.Errorf("error validating metadata config: %+v", err)
		}

		store, err := OpenSQLite(config.DatabasePath)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.StopHook(store.Close))
		return store, nil
	})
