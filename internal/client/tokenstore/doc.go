// Package tokenstore persists the single opaque API token across process
// restarts.
//
// Backends:
//
//   - file: one AEAD-sealed file, written by temp file + fsync + rename
//   - badger: one key in an embedded Badger database
//   - redis: one key in a Redis server
//   - memory: process local, for tests and ephemeral sessions
//
// Every backend holds at most one token. Save replaces it atomically, so a
// concurrent Load observes either the previous token or the new one. Errors
// are reported as *domain.StorageError and are never swallowed.
package tokenstore
