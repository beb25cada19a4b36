package s3

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/tinybirdco/s3gate/pkg/configutils"
)

const defaultMaxRedirects = 10

// Settings is the module-level configuration block under the "s3" key.
// Credential material lives in the named profiles (see AuthSettings), not
// here.
type Settings struct {
	// RequestsLogging is the initial state of the factory-wide per-request
	// logging toggle.
	RequestsLogging bool `mapstructure:"requests_logging"`

	// MaxRedirects bounds automatic redirect following per request.
	MaxRedirects int `mapstructure:"max_redirects" validate:"gte=0"`

	// AllowedHosts is the endpoint allow-list. Empty means no filtering.
	AllowedHosts []string `mapstructure:"allowed_hosts"`
}

// rootSettings anchors the block at the "s3" key so a root-level Unmarshal,
// which is what resolves bound environment overrides, can decode it.
type rootSettings struct {
	S3 Settings `mapstructure:"s3"`
}

// LoadSettings reads and validates the "s3" configuration block. Absent keys
// take their defaults; environment variables (S3.REQUESTS_LOGGING and
// friends) override file values.
func LoadSettings(v *viper.Viper) (Settings, error) {
	root := rootSettings{S3: Settings{MaxRedirects: defaultMaxRedirects}}
	if err := configutils.BindEnvsRecursive(v, &root.S3, "s3"); err != nil {
		return Settings{}, fmt.Errorf("s3: failed to bind environment variables: %w", err)
	}
	if err := v.Unmarshal(&root); err != nil {
		return Settings{}, fmt.Errorf("s3: failed to read settings: %w", err)
	}
	if err := validator.New().Struct(root.S3); err != nil {
		return Settings{}, fmt.Errorf("s3: invalid settings: %w", err)
	}
	return root.S3, nil
}

// HostFilter builds the endpoint filter the settings describe.
func (s Settings) HostFilter() RemoteHostFilter {
	if len(s.AllowedHosts) == 0 {
		return AllowAllHosts()
	}
	return NewHostAllowList(s.AllowedHosts...)
}
