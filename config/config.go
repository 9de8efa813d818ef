// Package config loads and validates render-presets configuration.
//
// Settings come from repository defaults, an optional TOML file and the PORT
// and STORE_FILE environment variables, in that order of precedence.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"render-presets/preset"
)

//go:embed sample_config.toml
var sampleConfig string

const (
	defaultAddr      = ":8080"
	defaultStorePath = "/data/scenes.json"
	defaultLogLevel  = "info"
	defaultLogFormat = "auto"
)

// Server contains the HTTP listener configuration.
type Server struct {
	Addr string `toml:"addr"`
}

// Store contains scene persistence configuration. An empty path keeps scenes
// in memory only.
type Store struct {
	Path string `toml:"path"`
}

// Logging contains logger configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // auto, console or json
}

// Config is the full application configuration.
type Config struct {
	Server   Server          `toml:"server"`
	Store    Store           `toml:"store"`
	Logging  Logging         `toml:"logging"`
	Defaults preset.Settings `toml:"defaults"`
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server:   Server{Addr: defaultAddr},
		Store:    Store{Path: defaultStorePath},
		Logging:  Logging{Level: defaultLogLevel, Format: defaultLogFormat},
		Defaults: preset.DefaultSettings(),
	}
}

// Load reads the configuration at path. A missing file yields the defaults;
// an empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path = strings.TrimSpace(path); path != "" {
		file, err := os.Open(path)
		switch {
		case err == nil:
			defer file.Close()
			if err := toml.NewDecoder(file).DisallowUnknownFields().Decode(&cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("open config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		c.Server.Addr = ":" + port
	}
	if file, ok := os.LookupEnv("STORE_FILE"); ok {
		c.Store.Path = strings.TrimSpace(file)
	}
}

func (c *Config) normalize() {
	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Defaults.Normalize()
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if err := c.Defaults.Validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	return nil
}

// Sample returns the commented sample configuration.
func Sample() string {
	return sampleConfig
}

// CreateSample writes the sample configuration to path, refusing to
// overwrite an existing file.
func CreateSample(path string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create sample config: %w", err)
	}
	defer file.Close()
	if _, err := file.WriteString(sampleConfig); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
