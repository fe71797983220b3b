package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Valid(t *testing.T) {
	yaml := `
reporter:
  server_url: "http://tracker:3000"
  station: PC-042
  expected_duration: 30m
  send_timeout: 5s
  retry:
    initial: 500ms
    max: 10s
    attempts: 3
`
	cfg := loadFromString(t, yaml)
	r := cfg.Reporter

	assert.Equal(t, "http://tracker:3000", r.ServerURL)
	assert.Equal(t, "PC-042", r.Station)
	assert.Equal(t, 30*time.Minute, r.ExpectedDuration)
	assert.Equal(t, 5*time.Second, r.SendTimeout)
	assert.Equal(t, RetryConfig{Initial: 500 * time.Millisecond, Max: 10 * time.Second, Attempts: 3}, r.Retry)
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadFromString(t, "reporter:\n  station: PC-1\n")
	r := cfg.Reporter

	assert.Equal(t, DefaultServerURL, r.ServerURL)
	assert.Equal(t, DefaultExpectedDuration, r.ExpectedDuration)
	assert.Equal(t, DefaultSendTimeout, r.SendTimeout)
	assert.Equal(t, DefaultRetryAttempts, r.Retry.Attempts)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad scheme", "reporter:\n  server_url: ftp://tracker\n"},
		{"no host", "reporter:\n  server_url: http://\n"},
		{"zero duration", "reporter:\n  expected_duration: 0s\n"},
		{"negative timeout", "reporter:\n  send_timeout: -1s\n"},
		{"max below initial", "reporter:\n  retry:\n    initial: 5s\n    max: 1s\n"},
		{"zero attempts", "reporter:\n  retry:\n    attempts: 0\n"},
		{"cert without key", "reporter:\n  tls:\n    cert_file: client.pem\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadStringErr(t, tc.yaml)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := loadStringErr(t, "reporter: [unterminated")
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate_Default(t *testing.T) {
	assert.NoError(t, Validate(Default()))
}

// loadFromString writes yaml to a temp file and calls Load, failing on error.
func loadFromString(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := loadStringErr(t, content)
	require.NoError(t, err)
	return cfg
}

// loadStringErr writes yaml to a temp file and calls Load, returning any error.
func loadStringErr(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return Load(path)
}
