// Package config loads the YAML configuration of the pdfzone binaries.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Assets  AssetsConfig  `yaml:"assets"`
	Server  ServerConfig  `yaml:"server"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// ExportConfig holds the default export options. Requests may override
// acroform and flatten.
type ExportConfig struct {
	AcroForm       bool    `yaml:"acroform"`
	Flatten        bool    `yaml:"flatten"`
	Compress       bool    `yaml:"compress"`
	RasterScale    float64 `yaml:"raster_scale"`
	StaticFallback bool    `yaml:"static_fallback"`
}

// AssetsConfig controls remote image and background fetching.
type AssetsConfig struct {
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`   // Default: 10s
	MaxBytes       int64         `yaml:"max_bytes"`       // Default: 10 MiB
	Concurrency    int           `yaml:"concurrency"`     // Default: 4
	UserAgent      string        `yaml:"user_agent"`      // Default: pdfzone
	AllowedSchemes []string      `yaml:"allowed_schemes"` // Default: http, https
	Disabled       bool          `yaml:"disabled"`        // placeholder for every remote reference
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	ListenAddr   string        `yaml:"listen_addr"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// MetricsConfig contains Prometheus metrics settings
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // Default: /metrics
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		Export:  ExportConfig{Compress: true},
		Metrics: MetricsConfig{Enabled: true},
	}
	cfg.setDefaults()
	return cfg
}

// Load reads configuration from a YAML file. Keys missing from the file
// keep their defaults. An empty path yields Default.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setDefaults fills zero values.
func (c *Config) setDefaults() {
	if c.Export.RasterScale == 0 {
		c.Export.RasterScale = 1
	}

	if c.Assets.FetchTimeout == 0 {
		c.Assets.FetchTimeout = 10 * time.Second
	}
	if c.Assets.MaxBytes == 0 {
		c.Assets.MaxBytes = 10 << 20
	}
	if c.Assets.Concurrency == 0 {
		c.Assets.Concurrency = 4
	}
	if c.Assets.UserAgent == "" {
		c.Assets.UserAgent = "pdfzone"
	}
	if len(c.Assets.AllowedSchemes) == 0 {
		c.Assets.AllowedSchemes = []string{"http", "https"}
	}

	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 32 << 20
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Export.RasterScale < 0 || c.Export.RasterScale > 16 {
		return fmt.Errorf("export.raster_scale must be between 0 and 16, got %g", c.Export.RasterScale)
	}
	if c.Assets.FetchTimeout < 0 {
		return fmt.Errorf("assets.fetch_timeout must not be negative")
	}
	if c.Assets.MaxBytes < 0 {
		return fmt.Errorf("assets.max_bytes must not be negative")
	}
	if c.Assets.Concurrency < 1 {
		return fmt.Errorf("assets.concurrency must be at least 1, got %d", c.Assets.Concurrency)
	}
	for _, s := range c.Assets.AllowedSchemes {
		if s != "http" && s != "https" {
			return fmt.Errorf("assets.allowed_schemes: unsupported scheme %q (must be http or https)", s)
		}
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("server.max_body_bytes must not be negative")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
	}
	if c.Metrics.Enabled {
		if u, err := url.Parse(c.Metrics.Path); err != nil || u.Path != c.Metrics.Path {
			return fmt.Errorf("metrics.path %q is not a plain URL path", c.Metrics.Path)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging.format: %s (must be json or text)", c.Logging.Format)
	}
	return nil
}
