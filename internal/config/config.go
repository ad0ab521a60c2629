// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"social-insurance/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// ListenAddress is the host:port the HTTP server binds to
	ListenAddress string `json:"listen_address"`

	// StorageDSN is the storage connection string. The scheme selects the
	// backend: postgres://... or sqlite://path.
	StorageDSN string `json:"storage_dsn"`

	// StoragePoolSize is the maximum number of pooled storage connections
	StoragePoolSize int `json:"storage_pool_size"`

	// RequestTimeoutMS bounds the handling of a single request
	RequestTimeoutMS int `json:"request_timeout_ms"`

	// CacheEnabled serves lookups from an in-memory snapshot of the table
	CacheEnabled bool `json:"cache_enabled"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// RequestTimeout returns the request timeout as a duration
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version:          "1.0",
		ListenAddress:    ":8080",
		StorageDSN:       "sqlite://./social-insurance.db",
		StoragePoolSize:  4,
		RequestTimeoutMS: 5000,
		CacheEnabled:     false,
		Logging:          logging.DefaultConfig(),
	}
}

// Load loads configuration from a file, falling back to defaults for a
// missing file, then applies environment overrides.
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	config.applyEnv()
	return config, nil
}

// applyEnv overrides file values with SHAHO_* environment variables
func (c *Config) applyEnv() {
	if v := os.Getenv("SHAHO_ADDR"); v != "" {
		c.ListenAddress = v
	}
	if v := os.Getenv("SHAHO_STORAGE_DSN"); v != "" {
		c.StorageDSN = v
	}
	if v := os.Getenv("SHAHO_STORAGE_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.StoragePoolSize = n
		}
	}
	if v := os.Getenv("SHAHO_REQUEST_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RequestTimeoutMS = n
		}
	}
	if v := os.Getenv("SHAHO_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
