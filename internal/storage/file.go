package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileBackend stores the envelope in a single well-known file. Writes use
// temp file + rename so a crash mid-write cannot leave a truncated vault.
type FileBackend struct {
	path string
}

// Compile-time check to ensure FileBackend implements Backend
var _ Backend = (*FileBackend)(nil)

// NewFileBackend creates a FileBackend for the given path, creating parent
// directories with 0700 permissions if they don't exist.
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("vault path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating vault directory: %w", err)
	}

	return &FileBackend{path: path}, nil
}

// Exists reports whether the vault file is present.
func (f *FileBackend) Exists(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	_, err := os.Stat(f.path)
	return err == nil
}

// Read returns the stored envelope after trimming whitespace. A missing or
// empty file reads as ErrNotFound. Files with permissions wider than 0600
// are refused.
func (f *FileBackend) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	info, err := os.Stat(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, f.path)
		}
		return "", err
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		return "", fmt.Errorf("insecure permissions on %s: %04o (expected 0600)", f.path, perm)
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", err
	}

	envelope := strings.TrimSpace(string(data))
	if envelope == "" {
		return "", fmt.Errorf("%w: empty vault file %s", ErrNotFound, f.path)
	}
	return envelope, nil
}

// Write atomically replaces the vault file using temp file + rename and
// sets its permissions to 0600 (owner read/write only).
func (f *FileBackend) Write(ctx context.Context, envelope string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	tempFile, err := os.CreateTemp(dir, "*.tmp")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()
	// Cleanup deferred for all exit paths
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	if err := tempFile.Chmod(fs.FileMode(0600)); err != nil {
		return err
	}

	if _, err := tempFile.WriteString(envelope + "\n"); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tempFile.Close(); err != nil {
		return err
	}

	// Atomic rename to final location
	return os.Rename(tempName, f.path)
}
