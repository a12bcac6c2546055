// Package domain defines the core domain models for TaskList.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - Task: an entry of the append-only task list
//   - Errors: domain error codes shared by every surface
package domain
