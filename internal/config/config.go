// Package config loads application configuration from HOOKCORD_* environment
// variables. Defaults are safe for local development only; the public key
// must always be set explicitly unless verification is disabled for tests.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	// Addr is the listen address for the interactions endpoint.
	Addr string `envconfig:"ADDR" default:":8080"`

	// PublicKey is the application's Ed25519 public key, hex encoded.
	PublicKey string `envconfig:"PUBLIC_KEY"`

	// BotToken authorizes REST calls outside the interaction webhook:
	// command registration and entity hydration. Optional; without it the
	// webhook channel still works.
	BotToken string `envconfig:"BOT_TOKEN"`

	// ApplicationID identifies the application for command registration.
	ApplicationID string `envconfig:"APPLICATION_ID"`

	// APIBaseURL overrides the Discord API root, mainly for tests.
	APIBaseURL string `envconfig:"API_BASE_URL"`

	// RegisterCommands bulk-overwrites global commands at startup.
	RegisterCommands bool `envconfig:"REGISTER_COMMANDS" default:"false"`

	// InsecureSkipVerify disables signature verification. Never enable
	// outside local development.
	InsecureSkipVerify bool `envconfig:"INSECURE_SKIP_VERIFY" default:"false"`

	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`

	// AckTimeout is how long a callback may run before the engine defers
	// on its behalf. Must leave headroom under the platform's 3 s cutoff.
	AckTimeout time.Duration `envconfig:"ACK_TIMEOUT" default:"1500ms"`

	// AutocompleteTimeout bounds autocomplete callbacks before the empty
	// choice list fallback fires.
	AutocompleteTimeout time.Duration `envconfig:"AUTOCOMPLETE_TIMEOUT" default:"10s"`

	RateLimitPerSecond float64 `envconfig:"RATE_LIMIT_PER_SECOND" default:"50"`
	RateLimitBurst     int     `envconfig:"RATE_LIMIT_BURST" default:"100"`

	CacheTTL           time.Duration `envconfig:"CACHE_TTL" default:"10m"`
	CacheMaxSize       int           `envconfig:"CACHE_MAX_SIZE" default:"10000"`
	CacheSweepInterval time.Duration `envconfig:"CACHE_SWEEP_INTERVAL" default:"5m"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
}

// Load reads configuration from HOOKCORD_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("hookcord", &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return &cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	if !c.InsecureSkipVerify {
		if c.PublicKey == "" {
			return errors.New("HOOKCORD_PUBLIC_KEY is required")
		}
		decoded, err := hex.DecodeString(c.PublicKey)
		if err != nil || len(decoded) != 32 {
			return errors.New("HOOKCORD_PUBLIC_KEY must be 32 hex-encoded bytes")
		}
	}

	if c.RegisterCommands {
		if c.BotToken == "" {
			return errors.New("HOOKCORD_BOT_TOKEN is required when HOOKCORD_REGISTER_COMMANDS is set")
		}
		if c.ApplicationID == "" {
			return errors.New("HOOKCORD_APPLICATION_ID is required when HOOKCORD_REGISTER_COMMANDS is set")
		}
	}

	if c.ReadTimeout <= 0 {
		return fmt.Errorf("HOOKCORD_READ_TIMEOUT must be positive, got %s", c.ReadTimeout)
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("HOOKCORD_WRITE_TIMEOUT must be positive, got %s", c.WriteTimeout)
	}
	if c.AckTimeout <= 0 || c.AckTimeout >= 3*time.Second {
		return fmt.Errorf("HOOKCORD_ACK_TIMEOUT must be positive and below 3s, got %s", c.AckTimeout)
	}
	if c.AutocompleteTimeout <= 0 {
		return fmt.Errorf("HOOKCORD_AUTOCOMPLETE_TIMEOUT must be positive, got %s", c.AutocompleteTimeout)
	}
	if c.RateLimitPerSecond <= 0 {
		return fmt.Errorf("HOOKCORD_RATE_LIMIT_PER_SECOND must be positive, got %g", c.RateLimitPerSecond)
	}
	if c.RateLimitBurst < 1 {
		return fmt.Errorf("HOOKCORD_RATE_LIMIT_BURST must be >= 1, got %d", c.RateLimitBurst)
	}
	if c.CacheMaxSize < 0 {
		return fmt.Errorf("HOOKCORD_CACHE_MAX_SIZE must be >= 0, got %d", c.CacheMaxSize)
	}
	if c.CacheSweepInterval <= 0 {
		return fmt.Errorf("HOOKCORD_CACHE_SWEEP_INTERVAL must be positive, got %s", c.CacheSweepInterval)
	}

	return nil
}
