// Package cmap provides a sharded concurrent map keyed by string.
//
// Keys are routed to shards with murmur3, and each shard has its own
// RWMutex, so unrelated keys rarely contend:
//
//	m := cmap.New[*Journal]()
//	m.Set("01HX...", j)
//	j, ok := m.Get("01HX...")
//
// Thread Safety:
//
// All operations are thread-safe. Get and Has use RLock; Set, Delete, Pop
// and GetOrCompute use Lock on the key's shard only.
package cmap
