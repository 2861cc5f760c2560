// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config is the complete runtime configuration of the API process.
type Config struct {
	ListenAddr      string        `env:"LISTEN_ADDR"              envDefault:":8080"`
	DatabasePath    string        `env:"DATABASE_PATH"            envDefault:"taskhub.db"`
	JWTSecret       string        `env:"JWT_SECRET_KEY,required"`
	TokenTTL        time.Duration `env:"JWT_ACCESS_TOKEN_EXPIRES" envDefault:"15m"`
	BcryptCost      int           `env:"BCRYPT_COST"              envDefault:"10"`
	RedisURL        string        `env:"REDIS_URL"`
	TasksCacheTTL   time.Duration `env:"TASKS_CACHE_TTL"          envDefault:"5m"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS"     envSeparator:"," envDefault:"http://127.0.0.1:8000,http://localhost:8000"`
	Debug           bool          `env:"DEBUG"`
	LogFormat       string        `env:"LOG_FORMAT"               envDefault:"text"`
	OTelEndpoint    string        `env:"OTEL_ENDPOINT"`
	OTelEnabled     bool          `env:"OTEL_ENABLED"             envDefault:"true"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"         envDefault:"10s"`
}

// Load reads an optional .env file from the working directory, then parses
// the environment. Variables already set in the environment win over .env.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the current environment and validates it.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET_KEY must not be empty")
	}
	if c.TokenTTL <= 0 {
		return errors.New("JWT_ACCESS_TOKEN_EXPIRES must be greater than zero")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.TasksCacheTTL < 0 {
		return errors.New("TASKS_CACHE_TTL must not be negative")
	}
	if c.DatabasePath == "" {
		return errors.New("DATABASE_PATH must not be empty")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}
