// Package handler provides HTTP request handlers for TaskList.
//
// This package contains handlers for all HTTP endpoints:
//
//   - task.go: append, batch append, list and get
//   - admin.go: status summary
//   - health.go: health and readiness checks
//
// All handlers follow a consistent pattern:
//
//   - Parse and validate request
//   - Call the task service or worker pool
//   - Write the response envelope
//   - Map domain error codes to HTTP status codes
package handler
