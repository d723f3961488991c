// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration. Every field has a workable
// default except the admin token, which disables the admin API when
// empty.
type Config struct {
	DBPath   string `env:"ROOKERY_DB" envDefault:"rookery.db"`
	Timezone string `env:"ROOKERY_TZ" envDefault:"Australia/Sydney"`

	AdminAddr  string `env:"ROOKERY_ADMIN_ADDR" envDefault:":8090"`
	AdminToken string `env:"ROOKERY_ADMIN_TOKEN"`

	RandomOrgKey    string `env:"ROOKERY_RANDOM_ORG_KEY"`
	WeatherAPIKey   string `env:"ROOKERY_WEATHER_KEY"`
	WeatherLocation string `env:"ROOKERY_WEATHER_LOCATION" envDefault:"Sydney,AU"`
	TaxonomyBaseURL string `env:"ROOKERY_TAXONOMY_URL"`

	// AllowSelfBrood lets a player brood their own egg; debug only.
	AllowSelfBrood bool `env:"ROOKERY_ALLOW_SELF_BROOD" envDefault:"false"`

	LogLevel string `env:"ROOKERY_LOG_LEVEL" envDefault:"info"`
}

// Load reads the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
