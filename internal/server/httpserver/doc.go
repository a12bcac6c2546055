// Package httpserver provides the HTTP server for TaskList.
//
// Routes:
//
//   - Task endpoints: /tasks, /tasks/batch, /tasks/{index}
//   - Admin endpoints: /admin/v1/status/summary
//   - Health endpoints: /health, /ready, /metrics
//
// Every route runs behind Recover, RequestID and Metrics; task and admin
// routes add per-IP RateLimit and Audit.
package httpserver
