package s3

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/vodforge/vodforge/pkg/configutils"
	"github.com/vodforge/vodforge/pkg/logging"
)

// ConfigKey is the root configuration key (in Viper) for this module.
const ConfigKey = "object_store"

// Config holds the S3 client configuration. The endpoint field supports
// S3-compatible stores (MinIO, Ceph RGW); anything non-AWS forces
// path-style addressing.
type Config struct {
	AnotherLogger logging.Interface

	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`

	// UploadPartSizeMB and UploadConcurrency configure the streamed
	// chunked writer used by Put for large payloads.
	UploadPartSizeMB  int `mapstructure:"upload_part_size_mb" validate:"gte=0"`
	UploadConcurrency int `mapstructure:"upload_concurrency" validate:"gte=0"`

	// HTTPTimeoutMinutes bounds every request issued by the client.
	HTTPTimeoutMinutes int `mapstructure:"http_timeout_minutes" validate:"gte=0"`
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
		UploadPartSizeMB:   8,
		UploadConcurrency:  5,
		HTTPTimeoutMinutes: 10,
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

// WithViper sets the configuration from the object_store viper key.
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

// Validate checks the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}
