package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultServerURL        = "http://localhost:3000"
	DefaultExpectedDuration = 1 * time.Hour
	DefaultSendTimeout      = 10 * time.Second
	DefaultRetryInitial     = 1 * time.Second
	DefaultRetryMax         = 60 * time.Second
	DefaultRetryAttempts    = 8
)

// Config is the reporter configuration. Fields map 1:1 to reporter.example.yaml.
type Config struct {
	Reporter ReporterConfig `yaml:"reporter"`
}

// ReporterConfig holds all reporter settings.
type ReporterConfig struct {
	// ServerURL is the base URL of jobtrack-server, e.g. http://tracker:3000.
	ServerURL string `yaml:"server_url"`

	// Station is reported as NomDuPoste. Defaults to the host name.
	Station string `yaml:"station"`

	// ExpectedDuration sets DateFinTheorique relative to the job start. The
	// server fails the job if no completion arrives before then.
	ExpectedDuration time.Duration `yaml:"expected_duration"`

	// SendTimeout bounds a single POST.
	SendTimeout time.Duration `yaml:"send_timeout"`

	Retry RetryConfig `yaml:"retry"`
	TLS   TLSConfig   `yaml:"tls"`
}

// RetryConfig controls the delivery backoff.
type RetryConfig struct {
	// Initial is the first wait after a failed send (default 1s).
	Initial time.Duration `yaml:"initial"`

	// Max caps the wait between attempts (default 60s).
	Max time.Duration `yaml:"max"`

	// Attempts is the total number of sends per event, first one included.
	Attempts int `yaml:"attempts"`
}

// TLSConfig holds client TLS options for https server URLs.
type TLSConfig struct {
	// CAFile adds a private CA to the trusted roots.
	CAFile string `yaml:"ca_file"`

	// CertFile and KeyFile enable a client certificate when both are set.
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	// InsecureSkipVerify disables certificate verification.
	// Only use this for internal CAs in development environments.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
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
		Reporter: ReporterConfig{
			ServerURL:        DefaultServerURL,
			ExpectedDuration: DefaultExpectedDuration,
			SendTimeout:      DefaultSendTimeout,
			Retry: RetryConfig{
				Initial:  DefaultRetryInitial,
				Max:      DefaultRetryMax,
				Attempts: DefaultRetryAttempts,
			},
		},
	}
}

// Validate checks required fields and structural constraints. Load calls it;
// callers that build a Config by hand should too.
func Validate(cfg *Config) error {
	return validate(cfg)
}

func validate(cfg *Config) error {
	r := cfg.Reporter
	u, err := url.Parse(r.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("reporter.server_url %q must be an http(s) URL", r.ServerURL)
	}
	if r.ExpectedDuration <= 0 {
		return fmt.Errorf("reporter.expected_duration must be positive")
	}
	if r.SendTimeout <= 0 {
		return fmt.Errorf("reporter.send_timeout must be positive")
	}
	if r.Retry.Initial <= 0 {
		return fmt.Errorf("reporter.retry.initial must be positive")
	}
	if r.Retry.Max < r.Retry.Initial {
		return fmt.Errorf("reporter.retry.max %v is below retry.initial %v", r.Retry.Max, r.Retry.Initial)
	}
	if r.Retry.Attempts <= 0 {
		return fmt.Errorf("reporter.retry.attempts must be positive")
	}
	if (r.TLS.CertFile == "") != (r.TLS.KeyFile == "") {
		return fmt.Errorf("reporter.tls: cert_file and key_file must be set together")
	}
	return nil
}
