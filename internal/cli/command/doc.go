// Package command provides the tasklist-cli command tree.
//
//   - root.go: App, global flags and shared helpers
//   - task.go: task add, get, list and import
//   - system.go: system health and status
//   - config.go: CLI config file and server config validation
//   - version.go: client and server versions
//
// Every command writes to the app's Writer through the formatter selected
// by --output, so tests can run the whole App against an httptest server.
package command
