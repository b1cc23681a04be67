// Package config provides unified configuration loading for catalog-sync.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the catalog sync pipeline.
type Config struct {
	Feed          FeedConfig          `yaml:"feed"`
	Database      DatabaseConfig      `yaml:"database"`
	Storefront    StorefrontConfig    `yaml:"storefront"`
	Paths         PathsConfig         `yaml:"paths"`
	Lock          LockConfig          `yaml:"lock"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// FeedConfig holds source feed settings.
type FeedConfig struct {
	BaseURL  string        `yaml:"base_url"`
	PageSize int           `yaml:"page_size"`
	Timeout  time.Duration `yaml:"timeout"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"` // sqlite or postgres
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// PostgresConfig holds Postgres-specific settings.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// StorefrontConfig holds remote storefront API settings.
type StorefrontConfig struct {
	URL            string        `yaml:"url"`
	ConsumerKey    string        `yaml:"consumer_key"`
	ConsumerSecret string        `yaml:"consumer_secret"`
	Timeout        time.Duration `yaml:"timeout"`
}

// PathsConfig holds on-disk artifact locations.
type PathsConfig struct {
	RawDir        string `yaml:"raw_dir"`
	NormalizedDir string `yaml:"normalized_dir"`
	ImagesDir     string `yaml:"images_dir"`
	PagesDir      string `yaml:"pages_dir"`
}

// LockConfig holds run-lock settings. Locking is disabled when Addr is empty.
type LockConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Key      string        `yaml:"key"`
	TTL      time.Duration `yaml:"ttl"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment overrides.
// A missing path loads defaults plus environment only.
func Load(path string) (*Config, error) {
	// .env is optional; ignore a missing file
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			PageSize: 250,
			Timeout:  30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{
				Path:         "catalog-sync.db",
				MaxOpenConns: 1,
			},
			Postgres: PostgresConfig{
				Port:            5432,
				SSLMode:         "disable",
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
		Storefront: StorefrontConfig{
			Timeout: 30 * time.Second,
		},
		Paths: PathsConfig{
			RawDir:        "output/raw_json",
			NormalizedDir: "output/normalized",
			ImagesDir:     "output/images",
			PagesDir:      "output/pages",
		},
		Lock: LockConfig{
			Key: "catalog-sync:run",
			TTL: 30 * time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// Validate checks the configuration for errors. Storefront credentials are
// validated separately by ValidateStorefront since only the publish stage
// needs them.
func (c *Config) Validate() error {
	if c.Feed.BaseURL == "" {
		return fmt.Errorf("feed base_url is required (FEED_BASE_URL)")
	}

	if c.Feed.PageSize < 1 {
		return fmt.Errorf("feed page_size must be positive")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case "postgres":
		pg := c.Database.Postgres
		if pg.Host == "" || pg.User == "" || pg.DBName == "" {
			return fmt.Errorf("postgres host, user and dbname are required (DB_HOST, DB_USER, DB_NAME)")
		}
	default:
		return fmt.Errorf("invalid database driver: %s", c.Database.Driver)
	}

	return nil
}

// ValidateStorefront checks that publish credentials are present.
func (c *Config) ValidateStorefront() error {
	if c.Storefront.URL == "" {
		return fmt.Errorf("storefront url is required (STOREFRONT_URL)")
	}
	if c.Storefront.ConsumerKey == "" || c.Storefront.ConsumerSecret == "" {
		return fmt.Errorf("storefront credentials are required (STOREFRONT_KEY, STOREFRONT_SECRET)")
	}
	return nil
}

// PostgresDSN builds a lib/pq connection string from the postgres settings.
func (c *Config) PostgresDSN() string {
	pg := c.Database.Postgres
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		pg.Host, pg.Port, pg.User, pg.Password, pg.DBName, pg.SSLMode)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FEED_BASE_URL"); v != "" {
		cfg.Feed.BaseURL = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		if strings.HasPrefix(v, "sqlite:") {
			cfg.Database.Driver = "sqlite"
			cfg.Database.SQLite.Path = strings.TrimPrefix(v, "sqlite:")
		}
	}

	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Driver = "postgres"
		cfg.Database.Postgres.Host = v
	}

	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Postgres.Port = port
		}
	}

	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.Postgres.User = v
	}

	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Postgres.Password = v
	}

	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.Postgres.DBName = v
	}

	if v := os.Getenv("STOREFRONT_URL"); v != "" {
		cfg.Storefront.URL = v
	}

	if v := os.Getenv("STOREFRONT_KEY"); v != "" {
		cfg.Storefront.ConsumerKey = v
	}

	if v := os.Getenv("STOREFRONT_SECRET"); v != "" {
		cfg.Storefront.ConsumerSecret = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Lock.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
