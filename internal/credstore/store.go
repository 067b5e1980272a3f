package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/florianilch/credvault/internal/envelope"
	"github.com/florianilch/credvault/internal/storage"
)

// ExpiryBuffer is the lead time before a token's true expiry at which the
// store already reports it expired, so callers refresh proactively instead
// of racing a token that lapses mid-request.
const ExpiryBuffer = 5 * time.Minute

// Store maps provider ids to their stored credentials and mirrors every
// successful mutation through to an encrypted backend.
//
// A Store assumes it is the only process writing to its backend: two
// processes racing on the same vault lose updates at the file level, last
// completed write wins, and no merge is attempted. Within one process a
// mutex serializes operations so concurrent callers cannot corrupt the
// collection.
type Store struct {
	backend storage.Backend
	codec   *envelope.Codec

	mu      sync.Mutex
	records map[string]Record

	now func() time.Time // replaced in expiry tests
}

// Open loads the vault from the backend. A missing vault starts empty. A
// vault that cannot be decoded, authenticated, or parsed also starts empty
// after logging a warning — affected providers simply appear
// unauthenticated instead of failing construction.
func Open(ctx context.Context, backend storage.Backend, codec *envelope.Codec) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("missing storage backend")
	}
	if codec == nil {
		return nil, fmt.Errorf("missing envelope codec")
	}

	s := &Store{
		backend: backend,
		codec:   codec,
		records: make(map[string]Record),
		now:     time.Now,
	}
	s.load(ctx)
	return s, nil
}

// load populates the collection from the backend, converting every failure
// into "no stored credentials".
func (s *Store) load(ctx context.Context) {
	sealed, err := s.backend.Read(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return // first run
		}
		slog.WarnContext(ctx, "failed to read credential vault, starting empty", "error", err)
		return
	}

	plaintext, err := s.codec.Decrypt(sealed)
	if err != nil {
		slog.WarnContext(ctx, "failed to unseal credential vault, starting empty", "error", err)
		return
	}

	var records map[string]Record
	if err := json.Unmarshal(plaintext, &records); err != nil {
		slog.WarnContext(ctx, "failed to parse credential vault, starting empty", "error", err)
		return
	}
	if records == nil {
		records = make(map[string]Record)
	}
	s.records = records
}

// Set upserts the record for provider and synchronously persists the whole
// collection. The in-memory record is updated even when persisting fails;
// the returned error reports that durability for this write was lost, so
// callers may retry or surface a warning.
func (s *Store) Set(ctx context.Context, provider string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[provider] = rec
	return s.persist(ctx)
}

// Get returns the stored record for provider.
func (s *Store) Get(provider string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[provider]
	return rec, ok
}

// Has reports whether credentials are stored for provider.
func (s *Store) Has(provider string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.records[provider]
	return ok
}

// IsExpired reports whether provider's access token needs refreshing: true
// when no record exists or when now is within ExpiryBuffer of the recorded
// expiry.
func (s *Store) IsExpired(provider string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[provider]
	if !ok {
		return true
	}
	return !s.now().Before(rec.Expiry().Add(-ExpiryBuffer))
}

// Remove deletes provider's record and persists. Removing an absent
// provider is a no-op success and writes nothing.
func (s *Store) Remove(ctx context.Context, provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[provider]; !ok {
		return nil
	}
	delete(s.records, provider)
	return s.persist(ctx)
}

// Providers returns a sorted snapshot of stored provider ids, not a live
// view.
func (s *Store) Providers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	providers := make([]string, 0, len(s.records))
	for provider := range s.records {
		providers = append(providers, provider)
	}
	sort.Strings(providers)
	return providers
}

// persist re-serializes and re-encrypts the collection and writes it
// through to the backend. Callers must hold s.mu.
func (s *Store) persist(ctx context.Context) error {
	plaintext, err := json.Marshal(s.records)
	if err != nil {
		slog.WarnContext(ctx, "failed to serialize credential vault; in-memory state retained", "error", err)
		return fmt.Errorf("serializing credential vault: %w", err)
	}

	sealed, err := s.codec.Encrypt(plaintext)
	if err != nil {
		slog.WarnContext(ctx, "failed to seal credential vault; in-memory state retained", "error", err)
		return fmt.Errorf("sealing credential vault: %w", err)
	}

	if err := s.backend.Write(ctx, sealed); err != nil {
		slog.WarnContext(ctx, "failed to persist credential vault; in-memory state retained", "error", err)
		return fmt.Errorf("persisting credential vault: %w", err)
	}
	return nil
}
