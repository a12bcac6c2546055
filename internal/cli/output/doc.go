// Package output renders tasklist-cli results.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: tabwriter tables driven by struct tags
//   - json.go, yaml.go: machine-readable output
//   - progress.go: item progress for batch imports
//
// Table columns come from exported struct fields, named by their json tag.
// The table tag tunes a column: "-" hides it, "wide" shows it only with
// --wide, "ms" renders Unix milliseconds as a local time and "list" joins a
// string slice.
package output
