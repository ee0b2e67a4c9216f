// Package config loads the service configuration from defaults, an optional
// YAML file, and environment overrides, in that order of precedence.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration for the service.
type Config struct {
	// Host is the bind address. Defaults to 127.0.0.1.
	Host string `yaml:"host"`

	// Port is the bind port. Defaults to 8080.
	Port int `yaml:"port"`

	// GracePeriodSeconds is how long shutdown waits for in-flight
	// connections to drain. Defaults to 3.
	GracePeriodSeconds int `yaml:"grace_period_seconds"`
}

// Default returns the built-in configuration, matching the service's
// conventional bind address.
func Default() Config {
	return Config{
		Host:               "127.0.0.1",
		Port:               8080,
		GracePeriodSeconds: 3,
	}
}

// Load builds the effective configuration. path names an optional YAML file;
// an empty path skips file loading. SERVER_HOST and SERVER_PORT environment
// variables override whatever the file set.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: bad SERVER_PORT %q: %w", v, err)
		}
		cfg.Port = port
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("config: port %d out of range", cfg.Port)
	}
	return cfg, nil
}

// Addr returns the host:port string to bind.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// GracePeriod returns the shutdown drain window as a duration.
func (c Config) GracePeriod() time.Duration {
	return time.Duration(c.GracePeriodSeconds) * time.Second
}
