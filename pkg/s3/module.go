package s3

import (
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/tinybirdco/s3gate/pkg/logging"
)

// ProvideClientFactory builds the client factory for the fx graph. The
// request-logging toggle starts from the "s3.requests_logging" configuration
// key and can still be flipped at runtime through the factory.
func ProvideClientFactory(settings Settings, logger logging.Interface) *ClientFactory {
	factory := NewClientFactory(logger)
	factory.SetRequestsLogging(settings.RequestsLogging)
	return factory
}

// ProvideSettings loads the validated "s3" configuration block.
func ProvideSettings(v *viper.Viper) (Settings, error) {
	return LoadSettings(v)
}

// Module provides the module settings and a singleton ClientFactory.
var Module = fx.Provide(
	ProvideSettings,
	ProvideClientFactory,
)
