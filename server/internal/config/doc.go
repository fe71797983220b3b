// Package config loads the jobtrack server configuration from a YAML file.
//
// Config fields:
//   - Server.HTTPPort: port for the API, listing page and WebSocket (default 3000)
//   - Server.CORS: allowed origins for the API (default: all)
//   - Store.Path: JSON state file (default data.json)
//   - Sweeper.Interval: timeout sweep period (default 60s)
//   - UI.RefreshInterval: page poll and WebSocket broadcast period (default 5s)
//   - Log.Level: debug | info | warn | error (default info)
//   - Alerts.Webhooks: failed-job notification targets
//
// Load(path) applies defaults before unmarshalling, then validates.
// Watch(ctx, path, fn) reloads the file on change and hands the new Config to fn.
package config
