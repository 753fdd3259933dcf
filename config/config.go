// Package config reads the service configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	DBPostgres = "postgres"
	DBSQLite   = "sqlite"
)

type Config struct {
	Port int `env:"PORT" envDefault:"4000"`

	DBType           string        `env:"DB_TYPE" envDefault:"postgres"`
	DatabaseURL      string        `env:"DATABASE_URL" envDefault:"postgres://localhost:5432/devfolio?sslmode=disable"`
	DatabaseReplicas []string      `env:"DATABASE_REPLICA_URLS" envSeparator:","`
	DBWaitTimeout    time.Duration `env:"DB_WAIT_TIMEOUT" envDefault:"30s"`
	AcceptedOrigins  []string      `env:"ACCEPTED_ORIGINS" envSeparator:"," envDefault:"*"`
	TrustProxy       bool          `env:"TRUST_PROXY" envDefault:"false"`
	RedisAddr        string        `env:"RATE_LIMIT_REDIS_ADDR"`
	RedisPassword    string        `env:"RATE_LIMIT_REDIS_PASSWORD"`
	RedisDB          int           `env:"RATE_LIMIT_REDIS_DB" envDefault:"0"`
	ReadTimeout      time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout     time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout      time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string        `env:"LOG_FORMAT" envDefault:"console"`
	BackupDir        string        `env:"BACKUP_DIR" envDefault:"./backups"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	DBSlowThreshold  time.Duration `env:"DB_SLOW_QUERY_THRESHOLD" envDefault:"2s"`
}

// Load reads .env when present and parses the environment into a Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		// a missing .env is normal outside development
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}
	return Parse()
}

// Parse reads the process environment only.
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

func (c Config) Validate() error {
	switch c.DBType {
	case DBPostgres, DBSQLite:
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.DBType)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL cannot be empty")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Replicas returns the non-empty replica DSNs.
func (c Config) Replicas() []string {
	out := make([]string, 0, len(c.DatabaseReplicas))
	for _, dsn := range c.DatabaseReplicas {
		if dsn = strings.TrimSpace(dsn); dsn != "" {
			out = append(out, dsn)
		}
	}
	return out
}

// Origins returns the trimmed CORS allow-list.
func (c Config) Origins() []string {
	out := make([]string, 0, len(c.AcceptedOrigins))
	for _, o := range c.AcceptedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
