package transfer

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/vodforge/vodforge/pkg/configutils"
	"github.com/vodforge/vodforge/pkg/logging"
	"github.com/vodforge/vodforge/pkg/objectstore"
)

// ConfigKey is the root configuration key (in Viper) for this module.
const ConfigKey = "transfer"

// Config holds the transfer engine configuration.
type Config struct {
	AnotherLogger logging.Interface
	Store         objectstore.ObjectStore `validate:"required"`

	// Per-class admission slot counts; zero means a parallelism-derived
	// default.
	UploadSlots   int `mapstructure:"upload_slots" validate:"gte=0"`
	DownloadSlots int `mapstructure:"download_slots" validate:"gte=0"`
	HeadSlots     int `mapstructure:"head_slots" validate:"gte=0"`
	DeleteSlots   int `mapstructure:"delete_slots" validate:"gte=0"`
	QuerySlots    int `mapstructure:"query_slots" validate:"gte=0"`

	MaxAttempts     int `mapstructure:"max_attempts" validate:"gte=1"`
	BaseDelayMillis int `mapstructure:"base_delay_millis" validate:"gte=0"`

	DownloadPartSizeMB int `mapstructure:"download_part_size_mb" validate:"gte=1"`
	DownloadWorkers    int `mapstructure:"download_workers" validate:"gte=1"`
}

// Option mutates the configuration.
type Option func(*Config) error

// Apply applies the given options to the configuration.
func (c *Config) Apply(opts ...Option) error {
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(c); err != nil {
			return err
		}
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		MaxAttempts:        3,
		BaseDelayMillis:    200,
		DownloadPartSizeMB: 10,
		DownloadWorkers:    4,
	}
}

// NewConfig builds and returns a new configuration from the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// WithViper sets the configuration from the transfer viper key.
func WithViper(v *viper.Viper) Option {
	return func(c *Config) error {
		*c = *defaultConfig()
		if err := configutils.BindEnvsRecursive(v, c, ConfigKey); err != nil {
			return fmt.Errorf("error occurred when binding environment variables: %+v", err)
		}
		if err := v.UnmarshalKey(ConfigKey, c); err != nil {
			return fmt.Errorf("error occurred when unmarshalling config: %+v", err)
		}
		return nil
	}
}

// WithAnotherLog sets the logger for the configuration.
func WithAnotherLog(logger logging.Interface) Option {
	return func(c *Config) error {
		c.AnotherLogger = logger
		return nil
	}
}

// WithStore sets the object store collaborator.
func WithStore(store objectstore.ObjectStore) Option {
	return func(c *Config) error {
		c.Store = store
		return nil
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

func (c *Config) baseDelay() time.Duration {
	return time.Duration(c.BaseDelayMillis) * time.Millisecond
}

func (c *Config) governorLimits() GovernorLimits {
	return GovernorLimits{
		Upload:   c.UploadSlots,
		Download: c.DownloadSlots,
		Head:     c.HeadSlots,
		Delete:   c.DeleteSlots,
		Query:    c.QuerySlots,
	}
}
