// Package config provides the tasklist-cli configuration file.
//
//   - spec.go: CLIConfig struct (~/.tasklist/cli.yaml)
//   - loader.go: loading and saving
//
// Flags and TASKLIST_ environment variables override the file.
package config
