// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance for the hardware isolation manager,
// which runs as a long-lived BMC daemon and also as a short-lived operator CLI.
//
// # Components
//
// Long-lived parts of the daemon (record manager, guard file watcher, bus
// client) log through a child logger created with Component, so every line
// carries a "component" field.
//
// # Context Awareness
//
// HTTP handlers attach the request's RayID with WithRayID so every log line
// produced while serving a management request can be correlated.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Encoding: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	mgrLog := logger.Component(log, "record-manager")
//	mgrLog.Info("Restored isolated hardware", zap.Int("entries", n))
package logger
