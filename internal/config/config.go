// Package config loads typed application configuration from the
// environment, same envconfig-plus-Validate pattern per block as the
// teacher's original config layer.
package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Auth    AuthConfig
	App     AppConfig
}

// ServerConfig holds HTTP server and short-link URL configuration.
type ServerConfig struct {
	Port            string `envconfig:"PORT" default:"3001"`
	ShortlinkDomain string `envconfig:"SHORTLINK_DOMAIN"`
	CORSAllowOrigin string `envconfig:"CORS_ALLOW_ORIGIN" default:"*"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.CORSAllowOrigin == "" {
		return fmt.Errorf("CORS_ALLOW_ORIGIN cannot be empty")
	}
	return nil
}

// StorageProvider selects which Repository adapter the composition root
// wires up.
type StorageProvider string

const (
	StorageMemory StorageProvider = "memory"
	StorageSQLite StorageProvider = "sqlite"
	StorageAWS    StorageProvider = "aws"
)

// StorageConfig selects and configures the Repository adapter (§4.4/§9:
// a tagged variant, not dynamic dispatch, over repository kind).
type StorageConfig struct {
	Provider              StorageProvider `envconfig:"STORAGE_PROVIDER" default:"memory"`
	DBPath                string          `envconfig:"DB_PATH" default:"./data/shortlinks.db"`
	DynamoTableShortlinks string          `envconfig:"DYNAMO_TABLE_SHORTLINKS"`
	DynamoTableCounters   string          `envconfig:"DYNAMO_TABLE_COUNTERS"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	switch c.Provider {
	case StorageMemory:
		return nil
	case StorageSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required when STORAGE_PROVIDER=sqlite")
		}
		return nil
	case StorageAWS:
		if c.DynamoTableShortlinks == "" {
			return fmt.Errorf("DYNAMO_TABLE_SHORTLINKS is required when STORAGE_PROVIDER=aws")
		}
		if c.DynamoTableCounters == "" {
			return fmt.Errorf("DYNAMO_TABLE_COUNTERS is required when STORAGE_PROVIDER=aws")
		}
		return nil
	default:
		return fmt.Errorf("invalid STORAGE_PROVIDER: %s (must be one of: memory, sqlite, aws)", c.Provider)
	}
}

// AuthProvider selects which Authenticator the composition root wires up.
type AuthProvider string

const (
	AuthGoogle AuthProvider = "google"
	AuthNone   AuthProvider = "none"
)

// AuthConfig selects and configures the Authenticator.
type AuthConfig struct {
	Provider              AuthProvider `envconfig:"AUTH_PROVIDER" default:"google"`
	GoogleOAuthClientID   string       `envconfig:"GOOGLE_OAUTH_CLIENT_ID"`
	AllowedDomain         string       `envconfig:"ALLOWED_DOMAIN"`
	InsecureSkipSignature bool         `envconfig:"GOOGLE_AUTH_INSECURE_SKIP_SIGNATURE" default:"false"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	switch c.Provider {
	case AuthNone:
		return nil
	case AuthGoogle:
		if c.GoogleOAuthClientID == "" {
			return fmt.Errorf("GOOGLE_OAUTH_CLIENT_ID is required when AUTH_PROVIDER=google")
		}
		if c.AllowedDomain == "" {
			return fmt.Errorf("ALLOWED_DOMAIN is required when AUTH_PROVIDER=google")
		}
		return nil
	default:
		return fmt.Errorf("invalid AUTH_PROVIDER: %s (must be one of: google, none)", c.Provider)
	}
}

// AppConfig holds application-specific configuration.
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"` // development, test, production
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`      // debug, info, warn, error
}

// Validate validates the app configuration.
func (c *AppConfig) Validate() error {
	validEnvs := map[string]bool{"development": true, "test": true, "production": true}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid APP_ENV: %s (must be one of: development, test, production)", c.Environment)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid LOG_LEVEL: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	return nil
}

// Load loads configuration from environment variables only.
// (.env loading for development/test happens in internal/app's loadEnv, not here.)
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load Server config: %w", err)
	}
	if err := cfg.Server.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Server config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Storage); err != nil {
		return nil, fmt.Errorf("failed to load Storage config: %w", err)
	}
	cfg.Storage.Provider = StorageProvider(strings.ToLower(string(cfg.Storage.Provider)))
	if err := cfg.Storage.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Storage config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Auth); err != nil {
		return nil, fmt.Errorf("failed to load Auth config: %w", err)
	}
	cfg.Auth.Provider = AuthProvider(strings.ToLower(string(cfg.Auth.Provider)))
	if err := cfg.Auth.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Auth config: %w", err)
	}

	if err := envconfig.Process("", &cfg.App); err != nil {
		return nil, fmt.Errorf("failed to load App config: %w", err)
	}
	if err := cfg.App.Validate(); err != nil {
		return nil, fmt.Errorf("invalid App config: %w", err)
	}

	return cfg, nil
}
