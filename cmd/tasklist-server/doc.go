// Package main provides the entry point for tasklist-server.
//
// The server hosts one shared, append-only task list and provides:
//
//   - HTTP API for appending, reading and paging tasks
//   - Batch import through a bounded worker pool
//   - Optional Redis-compatible listener (RPUSH, LRANGE, LLEN, LINDEX, JOURNAL)
//   - Per-execution-context append journals backed by Badger
//
// Usage:
//
//	tasklist-server [flags]
//	tasklist-server --config /path/to/config.yaml
//
// Configuration is read from the file and from TASKLIST_* environment
// variables. Editing the file at runtime re-applies the log level.
package main
