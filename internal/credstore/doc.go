// Package credstore holds the authoritative in-memory credential collection
// and keeps an encrypted mirror of it in a storage backend.
//
// The store is explicitly constructed and passed to collaborators; tests
// instantiate independent stores against isolated temporary paths. Every
// mutation synchronously re-serializes, re-encrypts, and re-persists the
// whole collection, so no explicit teardown or flush is needed.
//
// Persistence failures are deliberately non-fatal: a store never crashes or
// blocks its host process over a lost write. Load-time corruption resets the
// collection to empty, save-time failures are logged and returned while the
// in-memory state stays correct for the rest of the process.
package credstore
