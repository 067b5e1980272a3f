package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/florianilch/credvault/internal/storage"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// StorageType represents the supported vault persistence backends.
type StorageType string

const (
	StorageTypeFile    StorageType = "file"
	StorageTypeKeyring StorageType = "keyring"
	StorageTypeEnv     StorageType = "env"
)

// Default configuration values
const (
	DefaultConfigLogFormat = LogFormatText
	DefaultConfigStorage   = StorageTypeFile

	// keyringService namespaces vault entries in the OS keyring.
	keyringService = "credvault"

	// DefaultVaultFileName is the vault file's name under the user config dir.
	DefaultVaultFileName = "credentials.vault"
)

// VaultConfig describes where the sealed credential vault persists.
type VaultConfig struct {
	Storage StorageType `json:"storage" validate:"required,oneof=file keyring env"`

	// Backend-specific settings (mutually exclusive based on Storage type)
	Path        string `json:"path,omitempty"`         // For file storage: path to the vault file
	KeyringUser string `json:"keyring_user,omitempty"` // For keyring storage: user identifier
	EnvKey      string `json:"env_key,omitempty"`      // For env storage: environment variable name
}

// NewBackend creates a storage backend from the vault configuration.
func (v *VaultConfig) NewBackend() (storage.Backend, error) {
	switch v.Storage {
	case StorageTypeFile:
		return storage.NewFileBackend(v.Path)
	case StorageTypeKeyring:
		return storage.NewKeyringBackend(keyringService, v.KeyringUser)
	case StorageTypeEnv:
		return storage.NewEnvBackend(v.EnvKey)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", v.Storage)
	}
}

// ProviderConfig describes one external provider's OAuth token endpoint,
// used when refreshing that provider's stored credentials.
type ProviderConfig struct {
	ClientID     string   `json:"client_id" validate:"required"`
	ClientSecret string   `json:"client_secret,omitempty"`
	TokenURL     string   `json:"token_url" validate:"required,url"`
	Scopes       []string `json:"scopes,omitempty"`

	// JSONTokenEndpoint marks providers whose token endpoints require
	// JSON-encoded bodies instead of standard form encoding.
	JSONTokenEndpoint bool `json:"json_token_endpoint,omitempty"`
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level  `json:"log_level"`
	LogFormat LogFormat   `json:"log_format" validate:"oneof=text json"`
	Vault     VaultConfig `json:"vault"`

	// Providers maps provider ids to their OAuth endpoints.
	Providers map[string]ProviderConfig `json:"providers" validate:"dive"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Vault.Storage == "" {
		c.Vault.Storage = DefaultConfigStorage
	}

	// Dynamic defaults based on storage type
	switch c.Vault.Storage {
	case StorageTypeFile:
		if c.Vault.Path == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("vault.path required (auto-detect failed: %w)", err)
			}
			c.Vault.Path = filepath.Join(configDir, "credvault", DefaultVaultFileName)
		}
	case StorageTypeKeyring:
		if c.Vault.KeyringUser == "" {
			currentUser, err := user.Current()
			if err != nil {
				return fmt.Errorf("vault.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Vault.KeyringUser = currentUser.Username
		}
	case StorageTypeEnv:
		// env_key must be explicitly configured (no sensible default)
	}

	return nil
}

// Validate validates the configuration using struct tags and cross-field
// rules the tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Vault.Storage {
	case StorageTypeFile:
		if c.Vault.Path == "" {
			return errors.New("vault.path required for file storage")
		}
	case StorageTypeKeyring:
		if c.Vault.KeyringUser == "" {
			return errors.New("vault.keyring_user required for keyring storage")
		}
	case StorageTypeEnv:
		if c.Vault.EnvKey == "" {
			return errors.New("vault.env_key required for env storage")
		}
	}

	return nil
}
