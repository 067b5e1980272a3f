package storage

import (
	"context"
	"errors"
)

// ErrNotFound indicates that no envelope has been stored yet. Callers treat
// it as "start empty", not as a failure.
var ErrNotFound = errors.New("no stored envelope")

// Backend reads and writes the sealed vault envelope.
//
// Backends store exactly one envelope; every Write replaces the previous
// one. A mutable vault requires a writable backend.
type Backend interface {
	// Exists reports whether an envelope has been stored.
	Exists(ctx context.Context) bool

	// Read returns the stored envelope. Returns an error wrapping
	// ErrNotFound if nothing has been stored.
	Read(ctx context.Context) (string, error)

	// Write persists the envelope, replacing any existing one. Returns an
	// error if the backend is read-only or the write fails.
	Write(ctx context.Context, envelope string) error
}
