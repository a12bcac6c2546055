// Package worker runs batches of task appends on a fixed set of goroutines.
//
// Every worker is its own execution context: it gets an execution id at
// start, so all appends it performs land in the same journal, and that
// journal is closed when the pool stops. Indexes in a batch reflect which
// worker won each append, not submission order.
package worker
