package storage

import (
	"context"
	"errors"
	"testing"
)

func TestEnvBackendRead(t *testing.T) {
	t.Setenv("CREDVAULT_TEST_ENVELOPE", "aa:bb:cc")

	backend, err := NewEnvBackend("CREDVAULT_TEST_ENVELOPE")
	if err != nil {
		t.Fatalf("NewEnvBackend: %v", err)
	}

	got, err := backend.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "aa:bb:cc" {
		t.Errorf("Read = %q, want %q", got, "aa:bb:cc")
	}
}

func TestEnvBackendUnsetIsNotFound(t *testing.T) {
	backend, err := NewEnvBackend("CREDVAULT_TEST_ENVELOPE_UNSET")
	if err != nil {
		t.Fatalf("NewEnvBackend: %v", err)
	}

	if _, err := backend.Read(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read on unset variable = %v, want ErrNotFound", err)
	}
}

func TestEnvBackendWriteIsRejected(t *testing.T) {
	t.Setenv("CREDVAULT_TEST_ENVELOPE", "aa:bb:cc")

	backend, err := NewEnvBackend("CREDVAULT_TEST_ENVELOPE")
	if err != nil {
		t.Fatalf("NewEnvBackend: %v", err)
	}

	if err := backend.Write(context.Background(), "dd:ee:ff"); err == nil {
		t.Error("Write succeeded, want read-only error")
	}
}
