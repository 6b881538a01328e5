// Package config loads service configuration from a YAML file with
// environment overrides. Every key can be set through the environment
// using the APP_ prefix, e.g. APP_DB_URL.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type App struct {
	Name string
	Env  string
}

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

type Log struct {
	Level      string
	JSON       bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type JWT struct {
	Secret      string
	TokenTTLHrs int
}

type DB struct {
	URL string
}

type RateLimit struct {
	RPS   float64
	Burst int
}

type Config struct {
	App       App
	HTTP      HTTP
	Log       Log
	JWT       JWT
	DB        DB
	RateLimit RateLimit `mapstructure:"rate_limit"`
}

// Load reads the config file at path, if one exists, and applies
// environment overrides. A missing file is not an error; a missing JWT
// secret or database URL is.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "landmarket")
	v.SetDefault("app.env", "development")
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeoutsec", 15)
	v.SetDefault("http.writetimeoutsec", 30)
	v.SetDefault("http.idletimeoutsec", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", true)
	v.SetDefault("log.maxsizemb", 100)
	v.SetDefault("log.maxbackups", 5)
	v.SetDefault("log.maxagedays", 30)
	v.SetDefault("jwt.tokenttlhrs", 24)
	v.SetDefault("rate_limit.rps", 10.0)
	v.SetDefault("rate_limit.burst", 20)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if c.JWT.Secret == "" {
		return nil, fmt.Errorf("config: jwt secret required (APP_JWT_SECRET)")
	}
	if c.DB.URL == "" {
		return nil, fmt.Errorf("config: database url required (APP_DB_URL)")
	}
	return &c, nil
}
