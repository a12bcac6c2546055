// Package immutable provides read-only value holders.
//
// A holder copies its input on construction and hands out a fresh copy on
// every read, so neither the original caller nor any reader can change what
// the holder stores:
//
//	labels := immutable.NewSlice([]string{"a", "b"})
//	got := labels.Get() // a copy
//	got[0] = "x"        // does not affect labels
//
// Value[T] is the general form and takes the clone function to use.
// Slice, Map and Bytes cover the common mutable Go types.
package immutable
