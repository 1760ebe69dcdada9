// SPDX-License-Identifier: AGPL-3.0-only
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by FromEnv
const EnvPrefix = "MCP_TASKLIST_"

// DefaultStorageKey is the key the task snapshot is stored under
const DefaultStorageKey = "crud-app-tasks"

// Config holds the application configuration
type Config struct {
	Server        ServerConfig
	Storage       StorageConfig
	Notifications NotificationConfig
	Logging       LoggingConfig
}

// ServerConfig configures the MCP presentation adapter
type ServerConfig struct {
	Name          string
	Version       string
	Address       string
	Port          int
	TransportMode string // stdio or sse
}

// StorageConfig configures the snapshot backend
type StorageConfig struct {
	// Backend is one of json, memory, postgres, mysql
	Backend string
	// Key is the fixed key the snapshot lives under
	Key string
	// Dir holds the json backend file
	Dir string
	// DSN is the connection string for the database backends
	DSN string
	// Watch reloads the collection when the snapshot changes underneath us
	Watch bool
}

// NotificationConfig configures the notification queue
type NotificationConfig struct {
	// TTL is how long a notification lives before it removes itself
	TTL time.Duration
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level    string
	FilePath string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:          "mcp-tasklist",
			Version:       "dev",
			Address:       "localhost",
			Port:          8080,
			TransportMode: "stdio",
		},
		Storage: StorageConfig{
			Backend: "json",
			Key:     DefaultStorageKey,
			Dir:     ".",
		},
		Notifications: NotificationConfig{
			TTL: 3000 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// FromEnv overrides cfg with MCP_TASKLIST_* environment variables
func FromEnv(cfg *Config) {
	if v := getEnv("SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := getEnv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := getEnv("SERVER_TRANSPORT"); v != "" {
		cfg.Server.TransportMode = v
	}
	if v := getEnv("STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := getEnv("STORAGE_KEY"); v != "" {
		cfg.Storage.Key = v
	}
	if v := getEnv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := getEnv("STORAGE_WATCH"); v != "" {
		if watch, err := strconv.ParseBool(v); err == nil {
			cfg.Storage.Watch = watch
		}
	}
	if v := getEnv("NOTIFICATION_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil {
			cfg.Notifications.TTL = ttl
		}
	}
	if v := getEnv("LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := getEnv("LOGGING_FILE"); v != "" {
		cfg.Logging.FilePath = v
	}
}

// LoadDotEnv copies KEY=VALUE pairs from the file at path into the process
// environment. Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	switch c.Server.TransportMode {
	case "stdio", "sse":
	default:
		return fmt.Errorf("invalid transport mode: %s", c.Server.TransportMode)
	}
	if c.Server.TransportMode == "sse" && (c.Server.Port < 1 || c.Server.Port > 65535) {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	switch c.Storage.Backend {
	case "json", "memory":
	case "postgres", "mysql":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("storage backend %s requires a DSN", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("invalid storage backend: %s", c.Storage.Backend)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return fmt.Errorf("storage key must not be empty")
	}

	if c.Notifications.TTL <= 0 {
		return fmt.Errorf("notification TTL must be positive, got %s", c.Notifications.TTL)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	return nil
}

func getEnv(name string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + name))
}
