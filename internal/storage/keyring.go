package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringBackend stores the envelope in OS-native credential storage.
// Uses macOS Keychain, Windows Credential Manager, or Linux Secret Service.
type KeyringBackend struct {
	service string
	user    string
}

// Compile-time check to ensure KeyringBackend implements Backend
var _ Backend = (*KeyringBackend)(nil)

// NewKeyringBackend creates a KeyringBackend addressed by the given service
// and user identifiers.
func NewKeyringBackend(service, user string) (*KeyringBackend, error) {
	if service == "" {
		return nil, fmt.Errorf("service cannot be empty")
	}
	if user == "" {
		return nil, fmt.Errorf("user cannot be empty")
	}

	return &KeyringBackend{
		service: service,
		user:    user,
	}, nil
}

// Exists reports whether the keyring holds a non-empty envelope.
func (k *KeyringBackend) Exists(ctx context.Context) bool {
	envelope, err := k.Read(ctx)
	return err == nil && envelope != ""
}

// Read returns the envelope from the system keyring. A missing or empty
// entry reads as ErrNotFound.
func (k *KeyringBackend) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	envelope, err := keyring.Get(k.service, k.user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%w: keyring %s/%s", ErrNotFound, k.service, k.user)
		}
		return "", err
	}

	if envelope == "" {
		return "", fmt.Errorf("%w: empty keyring entry %s/%s", ErrNotFound, k.service, k.user)
	}
	return envelope, nil
}

// Write persists the envelope to the system keyring, overwriting any
// existing entry.
func (k *KeyringBackend) Write(ctx context.Context, envelope string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return keyring.Set(k.service, k.user, envelope)
}
