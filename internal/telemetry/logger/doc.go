// Package logger provides structured logging for the task list server.
//
// It wraps log/slog behind a small Logger interface:
//
//   - logger.go: handler construction, level control and package-level helpers
//   - context.go: context-carried loggers enriched with request and execution IDs
//
// The level is held in a shared slog.LevelVar so it can be changed at runtime,
// for example when the configuration file is reloaded.
package logger
