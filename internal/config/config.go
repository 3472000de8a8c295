package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	envPrefix = "MEDIUM"
	envToken  = "MEDIUM_INTEGRATION_TOKEN"

	DefaultBaseURL     = "https://api.medium.com/v1"
	DefaultTimeout     = 60 * time.Second
	DefaultMaxAttempts = 3
)

// Config holds the process-wide settings read from the environment.
type Config struct {
	Token           string        `envconfig:"INTEGRATION_TOKEN"`
	BaseURL         string        `envconfig:"API_BASE_URL" default:"https://api.medium.com/v1"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"60s"`
	MaxAttempts     int           `envconfig:"MAX_ATTEMPTS" default:"3"`
	AnnounceTargets []string      `envconfig:"ANNOUNCE_TARGETS"`
}

// Load reads an optional .env file and then the MEDIUM_* environment.
// A missing integration token is reported as a MissingEnvError.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv processes the current environment without touching .env files.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process env config: %w", err)
	}

	cfg.Token = strings.TrimSpace(cfg.Token)
	if cfg.Token == "" {
		return Config{}, MissingEnvError{Provider: "medium", Variables: []string{envToken}}
	}

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultTimeout
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	targets := make([]string, 0, len(cfg.AnnounceTargets))
	for _, t := range cfg.AnnounceTargets {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			targets = append(targets, t)
		}
	}
	cfg.AnnounceTargets = targets

	return cfg, nil
}
