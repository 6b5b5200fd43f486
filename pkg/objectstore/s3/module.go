package s3

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/vodforge/vodforge/pkg/logging"
	"github.com/vodforge/vodforge/pkg/objectstore"
)

// Module provides an objectstore.ObjectStore backed by S3 from viper
// configuration under the object_store key.
var Module = fx.Provide(
	func(v *viper.Viper, logger logging.Interface) (objectstore.ObjectStore, error) {
		config, err := NewConfig(
			WithViper(v),
			WithAnotherLog(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("error creating object store config: %+v", err)
		}

		if err = config.Validate(); err != nil {
			return nil, fmt.Errorf("error validating object store config: %+v", err)
		}

		return NewStore(context.Background(), config)
	})
