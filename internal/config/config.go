package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers accepted by storage.driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Session   SessionConfig   `yaml:"session"`
	Progress  ProgressConfig  `yaml:"progress"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	// Path is the SQLite database file.
	Path string `yaml:"path"`
	// Migrations is the golang-migrate source directory for postgres.
	Migrations string `yaml:"migrations"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type CatalogConfig struct {
	// Path overrides the embedded exercise catalog when set.
	Path string `yaml:"path"`
}

type SessionConfig struct {
	IdleTimeout              time.Duration `yaml:"idle_timeout"`
	ReapInterval             time.Duration `yaml:"reap_interval"`
	FeedbackLogLimit         int           `yaml:"feedback_log_limit"`
	DefaultTargetRepetitions int           `yaml:"default_target_repetitions"`
}

type ProgressConfig struct {
	Timezone     string `yaml:"timezone"`
	HistoryLimit int    `yaml:"history_limit"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Location resolves progress.timezone, defaulting to UTC.
func (p ProgressConfig) Location() (*time.Location, error) {
	if p.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(p.Timezone)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix KINETIC_ and underscore-separated paths:
//
//	KINETIC_SERVER_HOST, KINETIC_SERVER_PORT, KINETIC_AUTH_API_KEY,
//	KINETIC_STORAGE_DRIVER, KINETIC_STORAGE_PATH,
//	KINETIC_DB_HOST, KINETIC_DB_PORT, KINETIC_DB_NAME,
//	KINETIC_DB_USER, KINETIC_DB_PASSWORD, KINETIC_DB_SSLMODE,
//	KINETIC_REDIS_ADDR, KINETIC_REDIS_PASSWORD, KINETIC_REDIS_DB,
//	KINETIC_CATALOG_PATH, KINETIC_PROGRESS_TIMEZONE
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			Path:       "data/kinetic.db",
			Migrations: "migrations",
		},
		Redis: RedisConfig{KeyPrefix: "kinetic:"},
		Session: SessionConfig{
			IdleTimeout:      30 * time.Minute,
			ReapInterval:     time.Minute,
			FeedbackLogLimit: 300,
		},
		Progress: ProgressConfig{Timezone: "UTC", HistoryLimit: 1000},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KINETIC_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("KINETIC_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("KINETIC_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("KINETIC_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("KINETIC_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("KINETIC_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("KINETIC_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("KINETIC_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("KINETIC_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("KINETIC_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("KINETIC_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("KINETIC_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("KINETIC_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("KINETIC_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	if v := os.Getenv("KINETIC_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}
	if v := os.Getenv("KINETIC_PROGRESS_TIMEZONE"); v != "" {
		cfg.Progress.Timezone = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for sqlite")
		}
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	case DriverRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("storage.driver %q is not one of sqlite, postgres, redis, memory", c.Storage.Driver)
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	if c.Session.FeedbackLogLimit < 0 {
		return fmt.Errorf("session.feedback_log_limit must not be negative")
	}
	if c.Session.IdleTimeout < 0 || c.Session.ReapInterval < 0 {
		return fmt.Errorf("session timeouts must not be negative")
	}
	if c.Progress.HistoryLimit <= 0 {
		return fmt.Errorf("progress.history_limit must be positive")
	}
	if _, err := c.Progress.Location(); err != nil {
		return fmt.Errorf("progress.timezone: %w", err)
	}
	return nil
}
