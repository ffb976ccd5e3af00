package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders. Values come
// from defaults, then the optional YAML file named by IDEAFORGE_CONFIG, then
// environment variables.
type Config struct {
	ServiceName string `yaml:"service_name"`
	HTTPPort    string `yaml:"http_port"`

	StoreDriver string `yaml:"store_driver"`
	PostgresDSN string `yaml:"postgres_dsn"`
	SQLitePath  string `yaml:"sqlite_path"`

	PostgresMaxOpenConns    int           `yaml:"postgres_max_open_conns"`
	PostgresMaxIdleConns    int           `yaml:"postgres_max_idle_conns"`
	PostgresConnMaxLifetime time.Duration `yaml:"postgres_conn_max_lifetime"`

	NATSURL           string `yaml:"nats_url"`
	NATSSubjectPrefix string `yaml:"nats_subject_prefix"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	OutboxBatchSize    int           `yaml:"outbox_batch_size"`
	OutboxPollInterval time.Duration `yaml:"outbox_poll_interval"`

	EnableSwagger bool `yaml:"enable_swagger"`
	EnableMetrics bool `yaml:"enable_metrics"`
}

func Default() Config {
	return Config{
		ServiceName:             "ideaforge",
		HTTPPort:                "8080",
		StoreDriver:             StoreDriverSQLite,
		SQLitePath:              "data/ideaforge.db",
		PostgresMaxOpenConns:    20,
		PostgresMaxIdleConns:    5,
		PostgresConnMaxLifetime: 30 * time.Minute,
		NATSSubjectPrefix:       "ideaforge",
		LogLevel:                "info",
		LogFormat:               "text",
		OutboxBatchSize:         100,
		OutboxPollInterval:      time.Second,
		EnableSwagger:           true,
		EnableMetrics:           true,
	}
}

func Load() (Config, error) {
	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("IDEAFORGE_CONFIG")); path != "" {
		fromFile, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = fromFile
	}

	cfg.ServiceName = envString("SERVICE_NAME", cfg.ServiceName)
	cfg.HTTPPort = envString("HTTP_PORT", cfg.HTTPPort)
	cfg.StoreDriver = strings.ToLower(envString("STORE_DRIVER", cfg.StoreDriver))
	cfg.PostgresDSN = envString("POSTGRES_DSN", cfg.PostgresDSN)
	cfg.SQLitePath = envString("SQLITE_PATH", cfg.SQLitePath)
	cfg.PostgresMaxOpenConns = envInt("POSTGRES_MAX_OPEN_CONNS", cfg.PostgresMaxOpenConns)
	cfg.PostgresMaxIdleConns = envInt("POSTGRES_MAX_IDLE_CONNS", cfg.PostgresMaxIdleConns)
	cfg.PostgresConnMaxLifetime = envDuration("POSTGRES_CONN_MAX_LIFETIME", cfg.PostgresConnMaxLifetime)
	cfg.NATSURL = envString("NATS_URL", cfg.NATSURL)
	cfg.NATSSubjectPrefix = envString("NATS_SUBJECT_PREFIX", cfg.NATSSubjectPrefix)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envString("LOG_FORMAT", cfg.LogFormat)
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxPollInterval = envDuration("OUTBOX_POLL_INTERVAL", cfg.OutboxPollInterval)
	cfg.EnableSwagger = envBool("ENABLE_SWAGGER", cfg.EnableSwagger)
	cfg.EnableMetrics = envBool("ENABLE_METRICS", cfg.EnableMetrics)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads a YAML file over the defaults. Keys missing from the file
// keep their default values.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return errors.New("postgres_dsn is required when store_driver is postgres")
		}
	case StoreDriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("sqlite_path is required when store_driver is sqlite")
		}
	default:
		return fmt.Errorf("store_driver must be %q or %q, got %q", StoreDriverPostgres, StoreDriverSQLite, c.StoreDriver)
	}
	if _, err := strconv.Atoi(c.HTTPPort); err != nil {
		return fmt.Errorf("http_port must be numeric: %q", c.HTTPPort)
	}
	if c.PostgresMaxOpenConns < 0 || c.PostgresMaxIdleConns < 0 || c.PostgresConnMaxLifetime < 0 {
		return errors.New("postgres pool settings must not be negative")
	}
	if c.OutboxBatchSize <= 0 {
		return errors.New("outbox_batch_size must be positive")
	}
	if c.OutboxPollInterval <= 0 {
		return errors.New("outbox_poll_interval must be positive")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

func envString(name string, fallback string) string {
	if raw := strings.TrimSpace(os.Getenv(name)); raw != "" {
		return raw
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
