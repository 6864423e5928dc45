package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable, e.g. GENEALOGY_PORT
const Prefix = "GENEALOGY"

// Config holds application configuration
type Config struct {
	ServerPort   string `envconfig:"PORT" default:"8080"`
	DatabaseType string `split_words:"true" default:"sqlite"`
	DatabasePath string `split_words:"true" default:"./genealogy.db"`
	DatabaseURL  string `split_words:"true"`

	TokenSecret string        `split_words:"true"`
	TokenTTL    time.Duration `split_words:"true" default:"24h"`

	LogLevel string `split_words:"true" default:"info"`

	// Mutating requests allowed per actor per RateWindow
	RateLimit  int           `split_words:"true" default:"60"`
	RateWindow time.Duration `split_words:"true" default:"1m"`

	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3PathStyle bool   `envconfig:"S3_PATH_STYLE"`
}

// Load reads an optional .env file and then the GENEALOGY_* environment variables
func Load() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process(Prefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return cfg, nil
}

// Validate checks settings that have no usable default
func (c *Config) Validate() error {
	if c.TokenSecret == "" {
		return fmt.Errorf("%s_TOKEN_SECRET is required", Prefix)
	}
	if len(c.TokenSecret) < 32 {
		return fmt.Errorf("%s_TOKEN_SECRET must be at least 32 characters", Prefix)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("%s_RATE_LIMIT must be positive", Prefix)
	}
	return nil
}
