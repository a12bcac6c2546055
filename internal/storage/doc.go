// Package storage holds the Badger-backed journals of the task list server.
//
// A Journal belongs to exactly one execution context (an HTTP batch worker
// or a RESP connection) and records every append that context performed.
// Journals are scratch ledgers, opened lazily through a ctxlocal.Cache and
// closed with their context; they are not a persistence layer for the list.
//
// Keys are "j/" followed by the 8-byte big-endian list index, so a prefix
// scan yields entries in index order.
package storage
