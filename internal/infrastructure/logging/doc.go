// Package logging provides structured logging for huelink.
//
// It wraps the standard log/slog package so every component logs through
// the same handler with the same default fields.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all entries
//   - Level-based filtering (debug, info, warn, error)
//   - Safe for concurrent use
//
// # Configuration
//
// Logging is configured via the logging section of huelink.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("bridge paired", "bridge_id", b.ID)
//	logger.Error("dispatch failed", "error", err)
//
// # Security
//
// Never log application keys, client keys, or OAuth tokens. Log their
// presence, not their value:
//
//	logger.Info("token refreshed", "expires", set.Expiration)
package logging
