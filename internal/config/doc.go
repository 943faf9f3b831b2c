// Package config handles configuration loading for the log transformer.
//
// # Overview
//
// Configuration is loaded from a YAML file with environment variable
// expansion, merged over built-in defaults. A missing config file is
// not fatal at the CLI level: the daemon falls back to defaults plus
// command-line flags.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	logging:
//	  path: "${LOG_DIR}/gcp-transformer.log"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	aggregation:
//	  window: "20s"
//	  prune_interval: "5s"
//	  poll_delay: "500ms"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Source patterns (glob, ** supported):
//
//	sources:
//	  - "examples/service_*/*.log"
//
// Aggregation timing:
//
//	aggregation:
//	  window: "20s"           # how long duplicates accumulate
//	  prune_interval: "5s"    # eviction sweep tick
//	  poll_delay: "500ms"     # EOF poll and reconciliation tick
//	  shutdown_grace: "5s"    # per-worker wait at shutdown
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//	  console: true
//	  file: false
//	  path: "./app-logs/gcp-transformer.log"
//	  max_size_mb: 10
//	  max_backups: 5
package config
