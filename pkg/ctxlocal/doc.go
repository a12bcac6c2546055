// Package ctxlocal provides a per-execution-context resource cache.
//
// Go has no goroutine-local storage, so an execution context is identified
// by an id carried in context.Context. Each worker, connection or job
// attaches its own id once and passes the context down:
//
//	cache := ctxlocal.New(openJournal, (*Journal).Close)
//	cache.Init(params)
//
//	ctx, _ := ctxlocal.WithExecution(ctx)
//	j, err := cache.Get(ctx) // created on first use, reused afterwards
//	defer cache.Close(ctx)   // closes and detaches this context's resource
//
// Get before Init fails with ErrNotInitialized. Concurrent first calls for
// the same execution id create the resource exactly once.
package ctxlocal
