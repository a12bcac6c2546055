// Package metric owns the Prometheus registry of the task list server.
//
// Components register their own collectors through Registry.Registerer;
// this package adds the Go runtime and process collectors plus the
// request counters shared by the HTTP and RESP front ends. Everything is
// exposed at /metrics by Registry.Handler.
package metric
