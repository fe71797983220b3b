// Package config loads the reporter configuration file.
//
// Top-level types:
//   - Config{Reporter}: full config tree parsed from YAML
//   - ReporterConfig: server_url, station, expected_duration, send_timeout,
//     retry, tls
//   - RetryConfig: initial, max and attempts for the delivery backoff
//   - TLSConfig: ca_file, cert_file/key_file, insecure_skip_verify
//
// Load(path) reads the YAML file, applies defaults (localhost:3000, 1h
// expected duration, 10s send timeout, 1s..60s backoff over 8 attempts),
// then validates. A reporter run is short-lived so the file is not watched.
package config
