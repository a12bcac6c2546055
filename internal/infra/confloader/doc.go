// Package confloader loads configuration with koanf.
//
// Sources, highest priority first:
//
//  1. Maps loaded with LoadMap (command-line flags, tests)
//  2. Environment variables with the TASKLIST_ prefix
//  3. The YAML configuration file
//  4. Whatever the target struct already holds (defaults)
//
// Environment names map to keys by lowercasing and turning "_" into ".";
// a doubled "__" stands for a literal underscore inside a key, so
// TASKLIST_JOURNAL_IN__MEMORY sets journal.in_memory.
//
// Watcher reports changes to the configuration file through fsnotify so
// the server can reload it without restarting.
package confloader
