// Package server holds configuration for the operational HTTP server that
// exposes sync status and triggers.
package server
