package authsource

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/florianilch/credvault/internal/credstore"
)

// Endpoint describes one provider's OAuth client and token endpoint.
type Endpoint struct {
	// ClientID identifies the OAuth client. Public clients (PKCE flows)
	// leave ClientSecret empty.
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

// Option configures a Provider.
type Option func(*options)

type options struct {
	baseTransport http.RoundTripper
	jsonEndpoint  bool
}

// WithTransport sets a custom base transport for token refresh requests.
// If not provided, http.DefaultTransport is used.
func WithTransport(transport http.RoundTripper) Option {
	return func(o *options) {
		o.baseTransport = transport
	}
}

// WithJSONTokenEndpoint converts refresh requests from form encoding to JSON
// for providers whose token endpoints reject standard form-encoded bodies.
func WithJSONTokenEndpoint() Option {
	return func(o *options) {
		o.jsonEndpoint = true
	}
}

// Provider returns valid access tokens for one stored provider, refreshing
// and persisting rotated credentials through the store as needed.
type Provider struct {
	id     string
	store  *credstore.Store
	config *oauth2.Config
	client *http.Client
}

// New creates a Provider for the given provider id backed by store.
func New(id string, store *credstore.Store, endpoint Endpoint, opts ...Option) (*Provider, error) {
	if id == "" {
		return nil, fmt.Errorf("provider id cannot be empty")
	}
	if store == nil {
		return nil, fmt.Errorf("missing credential store")
	}
	if endpoint.TokenURL == "" {
		return nil, fmt.Errorf("missing token URL for provider %s", id)
	}

	o := &options{
		baseTransport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(o)
	}

	transport := o.baseTransport
	if o.jsonEndpoint {
		transport = &jsonRefreshTransport{base: transport}
	}

	return &Provider{
		id:    id,
		store: store,
		config: &oauth2.Config{
			ClientID:     endpoint.ClientID,
			ClientSecret: endpoint.ClientSecret,
			Scopes:       endpoint.Scopes,
			Endpoint: oauth2.Endpoint{
				TokenURL:  endpoint.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		client: &http.Client{
			// Bounds token refresh even when callers pass long-lived contexts
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}, nil
}

// Connected reports whether credentials are stored for the provider.
func (p *Provider) Connected() bool {
	return p.store.Has(p.id)
}

// AccessToken returns a valid access token for the provider. While the
// stored token is fresh it is returned as-is; at or near expiry the token is
// refreshed through the provider's token endpoint and the rotated record is
// persisted before returning.
func (p *Provider) AccessToken(ctx context.Context) (string, error) {
	rec, ok := p.store.Get(p.id)
	if !ok {
		return "", fmt.Errorf("provider %s: no stored credentials", p.id)
	}

	if !p.store.IsExpired(p.id) {
		return rec.AccessToken, nil
	}

	if rec.RefreshToken == "" {
		return "", fmt.Errorf("provider %s: access token expired and no refresh token stored", p.id)
	}

	fresh, err := p.refresh(ctx, rec.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("refreshing token for provider %s: %w", p.id, err)
	}

	refreshed := credstore.Record{
		AccessToken:  fresh.AccessToken,
		RefreshToken: fresh.RefreshToken,
		ExpiresAt:    fresh.Expiry.UnixMilli(),
		TokenType:    fresh.TokenType,
		Scope:        rec.Scope,
	}
	// Endpoints that don't rotate refresh tokens omit them from the response
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = rec.RefreshToken
	}
	if scope, ok := fresh.Extra("scope").(string); ok && scope != "" {
		refreshed.Scope = scope
	}

	if err := p.store.Set(ctx, p.id, refreshed); err != nil {
		// The access token is still usable; only durability for this
		// rotation was lost. The next call retries the write.
		slog.WarnContext(ctx, "failed to persist refreshed credentials", "provider", p.id, "error", err)
	}

	return fresh.AccessToken, nil
}

// refresh exchanges the refresh token at the provider's token endpoint.
func (p *Provider) refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	// The oauth2 package picks up custom HTTP clients from the context
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)

	// A seed token with only a refresh token forces an immediate refresh
	seed := &oauth2.Token{RefreshToken: refreshToken}
	return p.config.TokenSource(ctx, seed).Token()
}
