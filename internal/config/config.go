// Package config loads the lumen.json configuration used by the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "lumen.json"

	// DefaultAddr is the default devtools listen address.
	DefaultAddr = "localhost:7430"

	// DefaultRingSize is the default devtools event history size.
	DefaultRingSize = 256
)

// Config represents the complete lumen.json configuration.
type Config struct {
	// Name is the project name, used as the default container label.
	Name string `json:"name,omitempty"`

	// Addr is the devtools listen address.
	Addr string `json:"addr,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// Devtools contains inspection server configuration.
	Devtools DevtoolsConfig `json:"devtools,omitempty"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is the slog level name: debug, info, warn or error.
	Level string `json:"level,omitempty"`
}

// DevtoolsConfig contains inspection server configuration.
type DevtoolsConfig struct {
	// Enabled turns the devtools server on.
	Enabled bool `json:"enabled,omitempty"`

	// Ring is the event history size.
	Ring int `json:"ring,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Name: "app",
		Addr: DefaultAddr,
		Log:  LogConfig{Level: "info"},
		Devtools: DevtoolsConfig{
			Enabled: true,
			Ring:    DefaultRingSize,
		},
	}
}

// Load reads a configuration file and fills in defaults for anything it
// omits. A missing file is not an error: Load returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigFileName
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Devtools.Ring <= 0 {
		cfg.Devtools.Ring = DefaultRingSize
	}
	return cfg, nil
}
