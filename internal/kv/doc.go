// Package kv is the external key-value store a cache delegates to.
//
// Store exposes the six primitives the cache layer needs, with Redis
// semantics:
//   - Set / Get: whole-value write and read by key
//   - Incr: atomic counter increment, starting from zero
//   - RPush / LRange: append to and range-read a list
//   - FlushAll: destructive reset of every key
//
// # Backends
//
//   - Memory: process-local maps, for tests and one-shot runs
//   - SQLite: durable single file (WAL mode), state survives restarts
//   - Redis: network store via go-redis
//
// Open selects a backend from a URL: memory://, sqlite://<path>,
// redis://host:port/db or rediss://.
//
// Atomicity of Incr and ordering of RPush are the backend's job. Memory
// serialises with a mutex, SQLite with a single connection and
// transactions, Redis with its own single-threaded command execution.
package kv
