// Package logging provides structured logging for the Aerial HK controller.
//
// This package wraps Go's standard log/slog package so every component logs
// with the same handler, level and default fields.
//
// # Features
//
//   - JSON output for unattended runs (machine-parsable)
//   - Text output for the bench (human-readable, the default)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stderr"   # stdout, stderr
//
// Log to stderr when the keyboard is in raw mode: stdout is the operator's terminal.
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("timeline started", "timeline", "power-on")
package logging
