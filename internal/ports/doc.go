// Package ports defines the interfaces that connect the ingest pipeline to
// infrastructure adapters.
//
// # Port Interfaces
//
//   - [Logger]: Structured logging abstraction
//   - [EventSource]: Delivers "file ready" notifications from a watch target
//   - [WorklistWriter]: Persists rendered worklists and dispense lists
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with fsnotify,
// zerolog and the local file system.
package ports
