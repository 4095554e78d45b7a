// Package config loads application configuration from the environment and
// an optional .env file.
//
// Defaults come from struct tags; every key is overridable through an
// environment variable derived from its nested path (sync.interval_seconds
// becomes SYNC_INTERVAL_SECONDS).
package config
