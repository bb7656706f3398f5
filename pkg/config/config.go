// Package config loads application configuration. Defaults are overridden by
// an optional YAML file (HEARTH_CONFIG_FILE), which is in turn overridden by
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Auth          AuthConfig          `yaml:"auth"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`
}

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// AuthConfig holds token issuance settings
type AuthConfig struct {
	TokenSecret    string        `yaml:"token_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	CleanupCron    string        `yaml:"cleanup_cron"`
	TokenRetention time.Duration `yaml:"token_retention"`
}

// StorageConfig holds attachment file storage settings
type StorageConfig struct {
	FilesystemRoot string `yaml:"filesystem_root"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "9090",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Auth: AuthConfig{
			TokenTTL:       24 * time.Hour,
			CleanupCron:    "@hourly",
			TokenRetention: 7 * 24 * time.Hour,
		},
		Storage: StorageConfig{
			FilesystemRoot: "/var/lib/hearth/files",
			MaxUploadBytes: 10 << 20,
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			MetricsEnabled: true,
		},
	}
}

// LoadConfig loads configuration from the optional YAML file and environment.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("HEARTH_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("HEARTH_HOST", c.Server.Host)
	c.Server.Port = getEnv("HEARTH_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("HEARTH_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("HEARTH_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("HEARTH_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("HEARTH_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.HealthPort = getEnv("HEARTH_HEALTH_PORT", c.Server.HealthPort)

	c.Database.URL = getEnv("HEARTH_POSTGRES_URL", c.Database.URL)
	c.Database.MaxOpenConns = getEnvInt("HEARTH_POSTGRES_MAX_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvInt("HEARTH_POSTGRES_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetime = getEnvDuration("HEARTH_POSTGRES_CONN_LIFETIME", c.Database.ConnMaxLifetime)

	c.Auth.TokenSecret = getEnv("HEARTH_TOKEN_SECRET", c.Auth.TokenSecret)
	c.Auth.TokenTTL = getEnvDuration("HEARTH_TOKEN_TTL", c.Auth.TokenTTL)
	c.Auth.CleanupCron = getEnv("HEARTH_TOKEN_CLEANUP_CRON", c.Auth.CleanupCron)
	c.Auth.TokenRetention = getEnvDuration("HEARTH_TOKEN_RETENTION", c.Auth.TokenRetention)

	c.Storage.FilesystemRoot = getEnv("HEARTH_FILESYSTEM_ROOT", c.Storage.FilesystemRoot)
	c.Storage.MaxUploadBytes = getEnvInt64("HEARTH_MAX_UPLOAD_BYTES", c.Storage.MaxUploadBytes)

	c.Observability.LogLevel = getEnv("HEARTH_LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.MetricsEnabled = getEnvBool("HEARTH_METRICS_ENABLED", c.Observability.MetricsEnabled)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("token secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}
	if c.Storage.FilesystemRoot == "" {
		return fmt.Errorf("filesystem root is required")
	}
	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
