// Package config loads ledger settings from the environment
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Backend names the storage medium behind the ledger
type Backend string

const (
	LocalBackend    Backend = "local"
	MongoBackend    Backend = "mongo"
	PostgresBackend Backend = "postgres"
)

type Config struct {
	Port int `env:"LEDGER_PORT" envDefault:"8080"`

	// Remote backend connection string; empty selects local storage
	DatabaseURL string `env:"LEDGER_DATABASE_URL"`

	DataDir       string `env:"LEDGER_DATA_DIR" envDefault:"./data"`
	Collection    string `env:"LEDGER_COLLECTION" envDefault:"thrift-trail-transactions"`
	MongoDatabase string `env:"LEDGER_MONGO_DATABASE" envDefault:"ledger"`

	LogLevel        string        `env:"LEDGER_LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"LEDGER_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// Load reads a .env file if present and parses the environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Backend derives the storage medium from the connection string scheme
func (c *Config) Backend() (Backend, error) {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return LocalBackend, nil
	}

	u, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid database url: %w", err)
	}

	switch u.Scheme {
	case "mongodb", "mongodb+srv":
		return MongoBackend, nil
	case "postgres", "postgresql":
		return PostgresBackend, nil
	default:
		return "", fmt.Errorf("unsupported database url scheme %q", u.Scheme)
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port))
	}

	if strings.TrimSpace(c.Collection) == "" {
		errs = append(errs, errors.New("collection name cannot be empty"))
	}

	backend, err := c.Backend()
	if err != nil {
		errs = append(errs, err)
	}

	if backend == LocalBackend && strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, errors.New("data directory cannot be empty when using local storage"))
	}

	if backend == MongoBackend && strings.TrimSpace(c.MongoDatabase) == "" {
		errs = append(errs, errors.New("mongo database name cannot be empty when using mongo"))
	}

	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid shutdown timeout %v", c.ShutdownTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// Addr is the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
