// Package service provides the domain services of the task list server.
//
// TaskService owns one append-only task list and is the only entry point the
// HTTP and RESP front ends use to mutate or read it. It translates list
// errors into domain errors, emits logs and metrics through list observers,
// and, when a journal cache is attached, records every append made from an
// execution context into that context's journal.
//
// Services are safe for concurrent use. Nothing is global: tests and
// servers construct as many independent services as they need.
package service
