// Package main provides the entry point for tasklist-cli.
//
// The CLI talks to tasklist-server over HTTP:
//
//   - Task management (add, get, list, import)
//   - Server health and status
//   - CLI configuration
//
// Usage:
//
//	tasklist-cli [global flags] command [flags]
//	tasklist-cli --server http://localhost:5080 task list --limit 50
//	tasklist-cli -o json task import tasks.txt
package main
