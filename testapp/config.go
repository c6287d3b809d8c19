package testapp

import (
	"fmt"

	"github.com/webcontract/web-contract-tests/servicedef"
	"github.com/webcontract/web-contract-tests/testapp/appconfig"
)

// Settings are the values every app starts from, before its config file and environment
// are applied.
type Settings struct {
	JWTSecretKey string `yaml:"JWT_SECRET_KEY"`
	Debug        bool   `yaml:"DEBUG"`
}

func DefaultSettings() Settings {
	return Settings{JWTSecretKey: defaultJWTSecret}
}

// LoadConfig builds the configuration of an app instance. In increasing order of
// precedence it applies DefaultSettings, the file named by the CONFIG_FILE setting, and the
// WEBAPP_ environment variables.
func LoadConfig() (*appconfig.Config, error) {
	env := appconfig.FromEnvironment(servicedef.ConfigEnvPrefix)
	config := appconfig.New()
	if err := config.LoadObject(DefaultSettings()); err != nil {
		return nil, err
	}
	if path := env.String(servicedef.ConfigFile, ""); path != "" {
		if err := config.LoadFile(path); err != nil {
			return nil, fmt.Errorf("can't load %s: %w", servicedef.ConfigFile, err)
		}
	}
	config.Merge(env)
	return config, nil
}
