// Package shutdown coordinates graceful shutdown of the server.
//
// Components register named hooks; on SIGINT, SIGTERM or cancellation of
// the context passed to Wait, the hooks run in reverse registration order
// under one shared timeout, so listeners stop before the services they use.
//
//	h := shutdown.NewHandler(15*time.Second, logger)
//	h.OnShutdown("http", srv.Shutdown)
//	return h.Wait(ctx)
package shutdown
