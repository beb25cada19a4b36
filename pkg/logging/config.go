package logging

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tinybirdco/s3gate/pkg/configutils"
)

// ConfigKey is the root configuration key (in Viper) for this package.
const ConfigKey = "logging"

// Level is the logging level as written in configuration files.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Validate checks that the level is one of the recognized values.
// The empty string is valid and means INFO.
func (l Level) Validate() error {
	switch strings.ToUpper(string(l)) {
	case "", "DEBUG", "INFO", "WARN", "ERROR":
		return nil
	default:
		return fmt.Errorf("unknown log level: %s", l)
	}
}

// Config holds the configuration for logging.
type Config struct {
	// Debug forces the debug level and the console encoder instead of JSON.
	Debug bool `mapstructure:"debug"`

	// Level controls the logging level. Defaults to INFO if not set.
	Level Level `mapstructure:"level"`

	// DisableConsoleOutput stops logs from being copied to stdout. Rotated
	// file output (if a filename is configured) is unaffected.
	DisableConsoleOutput bool `mapstructure:"disableConsoleOutput"`

	// Logger contains the lumberjack file-rotation knobs (filename, maxsize,
	// maxbackups, maxage).
	lumberjack.Logger `mapstructure:",squash"`
}

// Option is a configuration option for logging.
type Option func(*Config) error

// rootConfig anchors the block at the "logging" key so a root-level
// Unmarshal, which is what resolves bound environment overrides, can decode
// it.
type rootConfig struct {
	Logging Config `mapstructure:"logging"`
}

// WithViper reads the configuration from the "logging" key of the given
// Viper. Environment variables (LOGGING.LEVEL and friends) override file
// values.
func WithViper(v *viper.Viper) Option {
	return func(c *Config) error {
		if v == nil {
			return errors.New("nil Viper")
		}
		if err := configutils.BindEnvsRecursive(v, c, ConfigKey); err != nil {
			return fmt.Errorf("error binding environment variables: %w", err)
		}
		root := rootConfig{Logging: *c}
		if err := v.Unmarshal(&root); err != nil {
			return err
		}
		*c = root.Logging
		return nil
	}
}

// Apply applies the supplied options to the configuration.
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

// NewConfig creates a new logging config with the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate ensures the logging Config is valid.
func (c *Config) Validate() error {
	if c.MaxSize < 0 {
		return fmt.Errorf("maxsize must be >= 0, not %d", c.MaxSize)
	}
	if c.MaxBackups < 0 {
		return fmt.Errorf("maxbackups must be >= 0, not %d", c.MaxBackups)
	}
	if c.MaxAge < 0 {
		return fmt.Errorf("maxage days must be >= 0, not %d", c.MaxAge)
	}
	if err := c.Level.Validate(); err != nil {
		return fmt.Errorf("invalid level: %w", err)
	}
	return nil
}
