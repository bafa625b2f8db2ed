// ABOUTME: Configuration loading and parsing for wa-bridge
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultHTTPAddr is where POST /send listens when nothing is configured.
	DefaultHTTPAddr = "localhost:3000"

	// DefaultBackendPort is used when the port file is missing or unreadable.
	DefaultBackendPort = 8001

	// DefaultPortFile is the file the backend writes its listening port to.
	DefaultPortFile = "fastapi_port.txt"

	defaultBackendHost    = "localhost"
	defaultBackendPath    = "/incoming"
	defaultBackendTimeout = 30 * time.Second
	defaultDedupeTTL      = 10 * time.Minute
	defaultDedupeSize     = 10_000
)

// Config represents the complete wa-bridge configuration
type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Backend BackendConfig `yaml:"backend" toml:"backend"`
	Session SessionConfig `yaml:"session" toml:"session"`
	Bridge  BridgeConfig  `yaml:"bridge" toml:"bridge"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// ServerConfig holds the HTTP listen address for the send API
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
}

// BackendConfig describes where inbound messages are forwarded.
// URL wins when set; otherwise the URL is built from Host, the port file and Path.
type BackendConfig struct {
	URL         string `yaml:"url" toml:"url"`
	Host        string `yaml:"host" toml:"host"`
	PortFile    string `yaml:"port_file" toml:"port_file"`
	DefaultPort int    `yaml:"default_port" toml:"default_port"`
	Path        string `yaml:"path" toml:"path"`

	Timeout    time.Duration `yaml:"-" toml:"-"`
	TimeoutRaw string        `yaml:"timeout" toml:"timeout"`
}

// SessionConfig holds the persisted WhatsApp session location
type SessionConfig struct {
	Dir        string `yaml:"dir" toml:"dir"`
	DeviceName string `yaml:"device_name" toml:"device_name"`
}

// BridgeConfig holds message handling options
type BridgeConfig struct {
	// Markdown converts outbound markdown to WhatsApp markup before sending.
	Markdown       bool `yaml:"markdown" toml:"markdown"`
	IgnoreStatus   bool `yaml:"ignore_status" toml:"ignore_status"`
	DedupeCapacity int  `yaml:"dedupe_capacity" toml:"dedupe_capacity"`

	DedupeTTL    time.Duration `yaml:"-" toml:"-"`
	DedupeTTLRaw string        `yaml:"dedupe_ttl" toml:"dedupe_ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns a configuration that runs the bridge without any file:
// local send API on port 3000, backend port from fastapi_port.txt.
func Default() *Config {
	return &Config{
		Server: ServerConfig{HTTPAddr: DefaultHTTPAddr},
		Backend: BackendConfig{
			Host:        defaultBackendHost,
			PortFile:    DefaultPortFile,
			DefaultPort: DefaultBackendPort,
			Path:        defaultBackendPath,
			Timeout:     defaultBackendTimeout,
		},
		Session: SessionConfig{
			Dir:        defaultSessionDir(),
			DeviceName: "wa-bridge",
		},
		Bridge: BridgeConfig{
			IgnoreStatus:   true,
			DedupeCapacity: defaultDedupeSize,
			DedupeTTL:      defaultDedupeTTL,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded and
// unset fields fall back to Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := Default()
	// Durations are re-derived from the raw strings below
	cfg.Backend.Timeout = 0
	cfg.Bridge.DedupeTTL = 0

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load but returns Default() when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Backend.URL != "" {
		u, err := url.Parse(c.Backend.URL)
		if err != nil {
			return fmt.Errorf("backend.url is not a valid URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("backend.url must use http or https scheme")
		}
	} else if c.Backend.Host == "" {
		return fmt.Errorf("backend.host is required when backend.url is not set")
	}

	if c.Backend.DefaultPort <= 0 || c.Backend.DefaultPort > 65535 {
		return fmt.Errorf("backend.default_port %d is out of range", c.Backend.DefaultPort)
	}

	if c.Session.Dir == "" {
		return fmt.Errorf("session.dir is required")
	}

	if c.Bridge.DedupeCapacity <= 0 {
		return fmt.Errorf("bridge.dedupe_capacity must be positive")
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// BackendURL returns the URL inbound messages are POSTed to. The port is read
// from the port file once per call; an unreadable file yields the default port.
func (c *Config) BackendURL() string {
	if c.Backend.URL != "" {
		return c.Backend.URL
	}

	port, _ := ReadPortFile(c.Backend.PortFile, c.Backend.DefaultPort)

	path := c.Backend.Path
	if path == "" {
		path = defaultBackendPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return fmt.Sprintf("http://%s:%d%s", c.Backend.Host, port, path)
}

// ReadPortFile reads a trimmed integer port from path. It returns fallback
// together with the cause when the file is missing or does not hold a valid port.
func ReadPortFile(path string, fallback int) (int, error) {
	if path == "" {
		return fallback, errors.New("no port file configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fallback, fmt.Errorf("reading port file: %w", err)
	}

	port, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fallback, fmt.Errorf("parsing port file %s: %w", path, err)
	}
	if port <= 0 || port > 65535 {
		return fallback, fmt.Errorf("port %d in %s is out of range", port, path)
	}

	return port, nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Backend.TimeoutRaw != "" {
		cfg.Backend.Timeout, err = time.ParseDuration(cfg.Backend.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing backend.timeout %q: %w", cfg.Backend.TimeoutRaw, err)
		}
	} else {
		cfg.Backend.Timeout = defaultBackendTimeout
	}

	if cfg.Bridge.DedupeTTLRaw != "" {
		cfg.Bridge.DedupeTTL, err = time.ParseDuration(cfg.Bridge.DedupeTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing bridge.dedupe_ttl %q: %w", cfg.Bridge.DedupeTTLRaw, err)
		}
	} else {
		cfg.Bridge.DedupeTTL = defaultDedupeTTL
	}

	return nil
}

// defaultSessionDir returns the session store directory.
// Priority: XDG_DATA_HOME/wa-bridge/session > ~/.local/share/wa-bridge/session
func defaultSessionDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join("data", "session") // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "wa-bridge", "session")
}
