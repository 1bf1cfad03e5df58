package config

import (
	"github.com/cockroachdb/errors"
)

type ServerEnv = string

var (
	DevEnv     ServerEnv = "dev"
	StagingEnv ServerEnv = "staging"
	ProdEnv    ServerEnv = "prod"
)

const (
	GENERAL_CONFIG_KEY     = "general-config"
	ENGINE_CONFIG_KEY      = "engine-config"
	PERSISTENCE_CONFIG_KEY = "persistence-config"
)

// Config is one environment-backed section of the runtime configuration.
type Config interface {
	Key() string
	Load() error
	Validate() error
}

// LoadAll loads every section in order and stops at the first failure.
func LoadAll(confs ...Config) error {
	for _, c := range confs {
		if err := c.Load(); err != nil {
			return errors.Wrap(err, c.Key())
		}
	}
	return nil
}

type GeneralConfig struct {
	HTTPPort string
	HTTPHost string
	Env      string
	LogLevel string
}

func (gc *GeneralConfig) Key() string {
	return GENERAL_CONFIG_KEY
}

func (gc *GeneralConfig) Load() error {
	gc.HTTPPort = GetEnvOrDefault("HTTP_PORT", "8080")
	gc.HTTPHost = GetEnvOrDefault("HTTP_HOST", "localhost")
	gc.Env = GetEnvOrDefault("ENV", DevEnv)
	gc.LogLevel = GetEnvOrDefault("LOG_LEVEL", "INFO")
	return gc.Validate()
}

func (gc *GeneralConfig) Validate() error {
	if gc.HTTPPort == "" || gc.HTTPHost == "" || gc.Env == "" {
		return errors.New("invalid server config")
	}
	switch gc.Env {
	case DevEnv, StagingEnv, ProdEnv:
	default:
		return errors.Newf("invalid server config: unknown env %q", gc.Env)
	}
	return nil
}

func (gc *GeneralConfig) Addr() string {
	return gc.HTTPHost + ":" + gc.HTTPPort
}
