// Package app wires the credential vault and its collaborators from
// configuration.
package app

import (
	"context"
	"fmt"

	"github.com/florianilch/credvault/internal/authsource"
	"github.com/florianilch/credvault/internal/credstore"
	"github.com/florianilch/credvault/internal/envelope"
)

// App holds the wired credential vault for one process.
type App struct {
	cfg   *Config
	store *credstore.Store
}

// New validates the configuration and opens the vault: backend from the
// vault config, key derived from the machine identity, store loaded through
// the codec. Opening never fails on a missing or corrupt vault, only on
// invalid configuration or an unusable backend.
func New(ctx context.Context, cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	backend, err := cfg.Vault.NewBackend()
	if err != nil {
		return nil, fmt.Errorf("failed to create storage backend: %w", err)
	}

	codec, err := envelope.NewCodec(envelope.DeriveKey())
	if err != nil {
		return nil, fmt.Errorf("failed to create envelope codec: %w", err)
	}

	store, err := credstore.Open(ctx, backend, codec)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	return &App{
		cfg:   cfg,
		store: store,
	}, nil
}

// Store returns the process's credential store.
func (a *App) Store() *credstore.Store {
	return a.store
}

// AuthProvider builds the authentication source for a configured provider.
func (a *App) AuthProvider(id string) (*authsource.Provider, error) {
	pc, ok := a.cfg.Providers[id]
	if !ok {
		return nil, fmt.Errorf("provider %s is not configured", id)
	}

	var opts []authsource.Option
	if pc.JSONTokenEndpoint {
		opts = append(opts, authsource.WithJSONTokenEndpoint())
	}

	return authsource.New(id, a.store, authsource.Endpoint{
		ClientID:     pc.ClientID,
		ClientSecret: pc.ClientSecret,
		TokenURL:     pc.TokenURL,
		Scopes:       pc.Scopes,
	}, opts...)
}
