// Package config holds the application configuration.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/opendeploy/versioning/internal/errs"
)

var (
	ErrConfigurationValuesError = errors.New("configuration value error")
	ErrEmptyDatabaseHost        = errors.New("database host must be specified")
	ErrEmptyDatabaseName        = errors.New("database name must be specified")
	ErrEmptyDefaultBaseURI      = errors.New("default artifactory base URI must be specified")
	ErrUnknownLogLevel          = errors.New("log level must be one of debug, info, warn, error")
)

// Config holds all application configuration parameters.
type Config struct {
	Database    Database    `yaml:"database" mapstructure:"database"`
	HTTP        HTTPServer  `yaml:"http" mapstructure:"http"`
	Artifactory Artifactory `yaml:"artifactory" mapstructure:"artifactory"`
	Logging     Logging     `yaml:"logging" mapstructure:"logging"`
}

func (c *Config) Validate() error {
	err := c.Database.Validate()
	if err != nil {
		return errs.Wrap(ErrConfigurationValuesError, err)
	}

	err = c.Artifactory.Validate()
	if err != nil {
		return errs.Wrap(ErrConfigurationValuesError, err)
	}

	err = c.Logging.Validate()
	if err != nil {
		return errs.Wrap(ErrConfigurationValuesError, err)
	}

	return nil
}

// Database holds database config.
type Database struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Name     string `yaml:"name" mapstructure:"name"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	SSLMode  string `yaml:"sslMode" mapstructure:"sslmode"`
}

func (d *Database) Validate() error {
	if d.Host == "" {
		return ErrEmptyDatabaseHost
	}

	if d.Name == "" {
		return ErrEmptyDatabaseName
	}

	return nil
}

func (d *Database) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// HTTPServer holds http server config.
type HTTPServer struct {
	Address         string        `yaml:"address" mapstructure:"address"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" mapstructure:"shutdowntimeout"`
}

// Artifactory holds the artifact resolution config. DefaultBaseURI binds
// artifacts first seen through a deployment create, where the payload names
// no artifactory.
type Artifactory struct {
	DefaultBaseURI string        `yaml:"defaultBaseUri" mapstructure:"defaultbaseuri"`
	RequestTimeout time.Duration `yaml:"requestTimeout" mapstructure:"requesttimeout"`
}

func (a *Artifactory) Validate() error {
	if a.DefaultBaseURI == "" {
		return ErrEmptyDefaultBaseURI
	}

	return nil
}

// Logging holds log output config.
type Logging struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

func (l *Logging) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
		return nil
	}

	return ErrUnknownLogLevel
}
