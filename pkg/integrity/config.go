package integrity

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/vodforge/vodforge/pkg/configutils"
	"github.com/vodforge/vodforge/pkg/logging"
	"github.com/vodforge/vodforge/pkg/metadata"
	"github.com/vodforge/vodforge/pkg/metrics"
)

// ConfigKey is the root configuration key (in Viper) for this module.
const ConfigKey = "integrity"

// Config holds the scanner configuration.
type Config struct {
	AnotherLogger logging.Interface
	Store         metadata.Store `validate:"required"`
	Checker       ExistenceChecker
	Reconciler    DurationReconciler
	Sink          metrics.Sink

	// ScanLimit bounds how many records one scan pass examines.
	ScanLimit int `mapstructure:"scan_limit" validate:"gte=0"`

	// RequiredKeys must each be present and non-empty in every
	// record's additional-data map.
	RequiredKeys []string `mapstructure:"required_keys"`

	// CheckManifestCompanion toggles the rule requiring a media
	// location alongside a master manifest key.
	CheckManifestCompanion bool `mapstructure:"check_manifest_companion"`

	// DeepChecks enables the networked rules: object existence for
	// every URL-shaped value and duration reconciliation against the
	// master manifest.
	DeepChecks bool `mapstructure:"deep_checks"`

	// DurationToleranceSeconds is the allowed drift between recorded
	// and reconciled durations during deep checks.
	DurationToleranceSeconds float64 `mapstructure:"duration_tolerance_seconds" validate:"gte=0"`
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
		ScanLimit:                100,
		CheckManifestCompanion:   true,
		DurationToleranceSeconds: 2,
	}
}

// NewConfig builds and returns a new configuration from the given
// options. Unlike the numeric knobs elsewhere, the rule toggles cannot
// treat the zero value as unset, so construction starts from defaults.
func NewConfig(opts ...Option) (*Config, error) {
	c := defaultConfig()
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// WithViper sets the configuration from the integrity viper key.
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

// WithStore sets the metadata store collaborator.
func WithStore(store metadata.Store) Option {
	return func(c *Config) error {
		c.Store = store
		return nil
	}
}

// WithChecker sets the object existence collaborator used by deep checks.
func WithChecker(checker ExistenceChecker) Option {
	return func(c *Config) error {
		c.Checker = checker
		return nil
	}
}

// WithReconciler sets the manifest duration collaborator used by deep checks.
func WithReconciler(reconciler DurationReconciler) Option {
	return func(c *Config) error {
		c.Reconciler = reconciler
		return nil
	}
}

// WithSink sets the metrics sink for summary counters.
func WithSink(sink metrics.Sink) Option {
	return func(c *Config) error {
		c.Sink = sink
		return nil
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}
