// Package config provides the task list server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values
//   - verify.go: validation (address formats, ranges, journal directory)
//
// Configuration is loaded via internal/infra/confloader from a YAML file
// and TASKLIST_ environment variables.
package config
