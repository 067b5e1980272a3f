// Package storage provides persistence backends for the sealed credential
// vault envelope.
//
// Three backends with different deployment tradeoffs:
//   - File: local filesystem storage with atomic writes and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//   - Env: read-only bootstrap from an environment variable (pre-seeded envelopes
//     for CI and containers)
//
// A mutable vault requires a writable backend (file or keyring); the env
// backend serves read-only deployments where credentials are provisioned
// externally.
package storage
