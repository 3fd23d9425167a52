// Package config loads server configuration from a JSON file using a
// load-once package-level accessor.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// ServerConfig holds the ambient settings for the server binary. Only
// ListenAddr and LogLevel are consumed by the core paths built so far;
// DefaultGracePeriod is reserved for a future disconnect-tolerance
// feature and is otherwise unused.
type ServerConfig struct {
	ListenAddr         string `json:"listen_addr"`
	LogLevel           string `json:"log_level"`
	DefaultGracePeriod int    `json:"default_grace_period_seconds"`
}

var (
	cfg      *ServerConfig
	loadOnce sync.Once
	loadErr  error
)

// defaults is returned by Get before Load has been called, and is the
// base that Load decodes the file over, so fields the file omits keep
// their default values.
func defaults() ServerConfig {
	return ServerConfig{
		ListenAddr: ":8080",
		LogLevel:   "info",
	}
}

// Load reads and parses the config file at path. Subsequent calls are
// no-ops; the first call's result (including any error) sticks.
func Load(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("config: read %s: %w", path, err)
			return
		}

		c := defaults()
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("config: parse %s: %w", path, err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// Get returns the loaded configuration, or the package defaults if
// Load has not been called (or failed).
func Get() ServerConfig {
	if cfg == nil {
		return defaults()
	}
	return *cfg
}
