package configutils

import (
	"go.uber.org/fx"

	"github.com/spf13/viper"
)

// ProvideViperFromFile returns an fx option providing a *viper.Viper loaded
// from the given configuration file. Environment variables override file
// values via AutomaticEnv.
func ProvideViperFromFile(filePath string) fx.Option {
	return fx.Provide(func() (*viper.Viper, error) {
		v := viper.New()
		v.AutomaticEnv()
		if err := ResolveAndMergeFile(v, filePath); err != nil {
			return nil, err
		}
		return v, nil
	})
}
