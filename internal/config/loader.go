package config

import (
	"errors"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/viper"
)

const envPrefix = "VERSIONING"

// LoadConfig reads config.yaml from the given path (or the working
// directory and /etc/versioning when empty) with environment overrides
// under the VERSIONING_ prefix, then validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("http.address", ":8080")
	v.SetDefault("http.shutdowntimeout", "5s")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("artifactory.requesttimeout", "10s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if path != "" {
		v.AddConfigPath(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/versioning")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		// Environment-only configuration is fine; a malformed file is not.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, oops.Wrapf(err, "failed to read config file")
		}
	}

	cfg := &Config{}

	err = v.Unmarshal(cfg)
	if err != nil {
		return nil, oops.Wrapf(err, "failed to unmarshal config")
	}

	err = cfg.Validate()
	if err != nil {
		return nil, oops.Wrapf(err, "failed to validate config")
	}

	return cfg, nil
}
