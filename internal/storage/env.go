package storage

import (
	"context"
	"fmt"
	"os"
)

// EnvBackend provides read-only access to an envelope pre-seeded in an
// environment variable. Suitable for CI and containers where credentials
// are provisioned externally; mutations require a writable backend.
type EnvBackend struct {
	envKey string
}

// Compile-time check to ensure EnvBackend implements Backend
var _ Backend = (*EnvBackend)(nil)

// NewEnvBackend creates an EnvBackend for the given environment variable.
func NewEnvBackend(envKey string) (*EnvBackend, error) {
	if envKey == "" {
		return nil, fmt.Errorf("environment key cannot be empty")
	}

	return &EnvBackend{envKey: envKey}, nil
}

// Exists reports whether the environment variable holds an envelope.
func (e *EnvBackend) Exists(ctx context.Context) bool {
	return ctx.Err() == nil && os.Getenv(e.envKey) != ""
}

// Read returns the envelope from the environment variable. An unset or
// empty variable reads as ErrNotFound.
func (e *EnvBackend) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	envelope := os.Getenv(e.envKey)
	if envelope == "" {
		return "", fmt.Errorf("%w: environment variable %s", ErrNotFound, e.envKey)
	}
	return envelope, nil
}

// Write is not supported for environment variables (they are read-only).
func (e *EnvBackend) Write(ctx context.Context, envelope string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return fmt.Errorf("environment variable storage is read-only")
}
