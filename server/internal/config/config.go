package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort        = 3000
	DefaultStorePath       = "data.json"
	DefaultSweepInterval   = 60 * time.Second
	DefaultRefreshInterval = 5 * time.Second
	DefaultLogLevel        = "info"
)

// Config is the top-level jobtrack server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Sweeper SweeperConfig `yaml:"sweeper"`
	UI      UIConfig      `yaml:"ui"`
	Log     LogConfig     `yaml:"log"`
	Alerts  AlertsConfig  `yaml:"alerts"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// HTTPPort serves the ingestion API, the listing page and the WebSocket
	// stream (default 3000).
	HTTPPort int `yaml:"http_port"`

	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig controls cross-origin access to the API.
type CORSConfig struct {
	// AllowedOrigins defaults to every origin when empty.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StoreConfig locates the durable state file.
type StoreConfig struct {
	// Path is the JSON file mirroring the tracked jobs (default data.json).
	Path string `yaml:"path"`
}

// SweeperConfig controls the timeout sweep.
type SweeperConfig struct {
	// Interval between sweeps (default 60s, minimum 1s).
	Interval time.Duration `yaml:"interval"`
}

// UIConfig controls the listing page and the WebSocket stream.
type UIConfig struct {
	// RefreshInterval is how often the page re-fetches and the hub
	// broadcasts (default 5s).
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`
}

// SlogLevel returns the parsed log level. Validation guarantees it parses.
func (l LogConfig) SlogLevel() slog.Level {
	lvl, _ := parseLevel(l.Level)
	return lvl
}

// AlertsConfig lists where failed-job notifications are delivered.
type AlertsConfig struct {
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Load reads and parses the config file at path.
// Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config pre-populated with default values.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{HTTPPort: DefaultHTTPPort},
		Store:   StoreConfig{Path: DefaultStorePath},
		Sweeper: SweeperConfig{Interval: DefaultSweepInterval},
		UI:      UIConfig{RefreshInterval: DefaultRefreshInterval},
		Log:     LogConfig{Level: DefaultLogLevel},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Store.Path == "" {
		return fmt.Errorf("store.path must not be empty")
	}
	if cfg.Sweeper.Interval < time.Second {
		return fmt.Errorf("sweeper.interval %v is below the 1s minimum", cfg.Sweeper.Interval)
	}
	if cfg.UI.RefreshInterval <= 0 {
		return fmt.Errorf("ui.refresh_interval must be positive")
	}
	if _, err := parseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	for i, wh := range cfg.Alerts.Webhooks {
		switch wh.Type {
		case "teams", "slack", "http":
		default:
			return fmt.Errorf("alerts.webhooks[%d].type %q unknown: want teams|slack|http", i, wh.Type)
		}
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, err
	}
	return lvl, nil
}
