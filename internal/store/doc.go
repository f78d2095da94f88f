// Package store provides SQLite-backed key-value storage for staffdir.
//
// The store plays the role of the browser's origin-scoped local storage:
// a flat table of string keys and string values, each overwritten whole.
//
//   - kv: key TEXT PRIMARY KEY, value TEXT, updated_at INTEGER (epoch ms)
//
// Writes are UPSERTs, so a key is atomic: readers see either the previous
// value or the new one, never a partial write.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - Single open connection (SQLite single writer)
package store
