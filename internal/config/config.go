// Package config loads the davman configuration from a TOML file, writing a
// commented default on first run.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Server contains the DAV server connection settings.
type Server struct {
	URL                string `toml:"url"`
	Username           string `toml:"username"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

// Trace contains the optional OpenTelemetry export settings.
type Trace struct {
	Endpoint    string `toml:"endpoint"`
	ServiceName string `toml:"service_name"`
}

// Config is the top-level configuration.
type Config struct {
	Server Server `toml:"server"`
	Trace  Trace  `toml:"trace"`
}

const defaultConfigTOML = `# davman configuration

[server]
# Base URL of the CalDAV/WebDAV server, e.g. "https://dav.example.net/".
url = ""
# Username prefilled on the sign-in screen.
username = ""
# Request timeout for DAV operations.
timeout_seconds = 30
# Skip TLS certificate verification (self-signed certificates only).
insecure_skip_verify = false

[trace]
# OTLP/HTTP endpoint for traces, e.g. "localhost:4318". Empty disables tracing.
endpoint = ""
service_name = "davman"
`

// DefaultPath returns the default config file location under the user config
// directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(dir, "davman", "config.toml"), nil
}

// Load reads the config from path, or from DefaultPath when path is empty.
// A missing file at the default location is created with the commented
// defaults first; a missing file at an explicit path is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := writeDefault(path); err != nil {
				return nil, err
			}
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTOML), 0o600); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	if c.Server.TimeoutSeconds == 0 {
		c.Server.TimeoutSeconds = 30
	}
	if c.Trace.ServiceName == "" {
		c.Trace.ServiceName = "davman"
	}
}

func (c *Config) validate() error {
	if c.Server.TimeoutSeconds < 0 {
		return fmt.Errorf("server.timeout_seconds must be positive, got %d", c.Server.TimeoutSeconds)
	}
	if c.Server.URL != "" {
		u, err := url.Parse(c.Server.URL)
		if err != nil {
			return fmt.Errorf("server.url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("server.url %q: scheme must be http or https", c.Server.URL)
		}
	}
	return nil
}

// Timeout returns the configured request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Server.TimeoutSeconds) * time.Second
}
