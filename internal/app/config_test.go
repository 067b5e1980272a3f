package app

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	if cfg.LogFormat != LogFormatText {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, LogFormatText)
	}
	if cfg.Vault.Storage != StorageTypeFile {
		t.Errorf("Vault.Storage = %q, want %q", cfg.Vault.Storage, StorageTypeFile)
	}
	if filepath.Base(cfg.Vault.Path) != DefaultVaultFileName {
		t.Errorf("Vault.Path = %q, want it to end in %q", cfg.Vault.Path, DefaultVaultFileName)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestApplyDefaultsKeyringUser(t *testing.T) {
	cfg := &Config{Vault: VaultConfig{Storage: StorageTypeKeyring}}
	if err := cfg.ApplyDefaults(); err != nil {
		t.Fatalf("ApplyDefaults: %v", err)
	}
	if cfg.Vault.KeyringUser == "" {
		t.Error("keyring user not auto-detected")
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		LogFormat: LogFormatJSON,
		Vault:     VaultConfig{Storage: StorageTypeFile, Path: "/tmp/custom.vault"},
	}
	if err := cfg.ApplyDefaults(); err != nil {
		t.Fatalf("ApplyDefaults: %v", err)
	}
	if cfg.LogFormat != LogFormatJSON {
		t.Errorf("LogFormat = %q, explicit value overwritten", cfg.LogFormat)
	}
	if cfg.Vault.Path != "/tmp/custom.vault" {
		t.Errorf("Vault.Path = %q, explicit value overwritten", cfg.Vault.Path)
	}
}

func TestValidateRejectsInvalidConfigs(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantSub string
	}{
		{
			name:    "unknown storage type",
			cfg:     Config{LogFormat: LogFormatText, Vault: VaultConfig{Storage: "s3"}},
			wantSub: "oneof",
		},
		{
			name:    "unknown log format",
			cfg:     Config{LogFormat: "yaml", Vault: VaultConfig{Storage: StorageTypeFile, Path: "/tmp/x"}},
			wantSub: "oneof",
		},
		{
			name:    "env storage without env key",
			cfg:     Config{LogFormat: LogFormatText, Vault: VaultConfig{Storage: StorageTypeEnv}},
			wantSub: "env_key",
		},
		{
			name: "provider without token URL",
			cfg: Config{
				LogFormat: LogFormatText,
				Vault:     VaultConfig{Storage: StorageTypeFile, Path: "/tmp/x"},
				Providers: map[string]ProviderConfig{
					"github": {ClientID: "abc"},
				},
			},
			wantSub: "TokenURL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if err == nil {
				t.Fatal("Validate returned nil for invalid config")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("Validate error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestNewBackendDispatch(t *testing.T) {
	fileCfg := VaultConfig{Storage: StorageTypeFile, Path: filepath.Join(t.TempDir(), "credentials.vault")}
	if _, err := fileCfg.NewBackend(); err != nil {
		t.Errorf("file backend: %v", err)
	}

	envCfg := VaultConfig{Storage: StorageTypeEnv, EnvKey: "CREDVAULT_SEALED"}
	if _, err := envCfg.NewBackend(); err != nil {
		t.Errorf("env backend: %v", err)
	}

	badCfg := VaultConfig{Storage: "s3"}
	if _, err := badCfg.NewBackend(); err == nil {
		t.Error("unknown backend type accepted")
	}
}
