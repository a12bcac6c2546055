// Package applist provides a lock-free, copy-on-write append-only list.
//
// The whole list state is a single atomic cell pointing at an immutable
// snapshot. Writers publish a new snapshot with compare-and-swap; readers
// load the cell once and work on what they captured:
//
//   - Add: read-copy-append-CAS loop, retried until it wins
//   - Get: one atomic load, bounds check and access on the same capture
//   - Snapshot: one atomic load, returns a read-only View
//
// Usage:
//
//	l := applist.NewStrings()
//	idx, err := l.Add("write report")
//	v, err := l.Get(idx)
//	for i, s := range l.Snapshot().All() { ... }
//
// Ordering:
//
// Concurrent appends are not ordered by call time. Whichever goroutine's CAS
// succeeds first takes the lower index.
//
// Cost:
//
// Every Add copies the current snapshot, so k concurrent appenders on a list
// of length n do O(n*k) work in the worst case. Retries are unbounded but
// each failed CAS means another writer made progress. WithBackoff adds a
// bounded exponential pause between retries without changing semantics.
package applist
