package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"

	"github.com/nhle/tracker-sync/internal/model"
)

// ErrNotFound is returned by Load when no token has been persisted.
var ErrNotFound = errors.New("credential not found")

// Store persists a single bearer token under a fixed key in a keyring.
// It is the durable half of the session: one key, absent means anonymous.
type Store struct {
	ring keyring.Keyring
	key  string
}

// New wraps an already opened keyring.
func New(ring keyring.Keyring, key string) *Store {
	return &Store{ring: ring, key: key}
}

// Open returns a Store backed by the system keyring described by cfg.
func Open(cfg model.SessionConfig) (*Store, error) {
	ring, err := openKeyring(cfg)
	if err != nil {
		return nil, err
	}
	return New(ring, cfg.TokenKey), nil
}

// openKeyring returns a configured keyring instance.
func openKeyring(cfg model.SessionConfig) (keyring.Keyring, error) {
	backends := []keyring.BackendType{
		keyring.KeychainBackend,
		keyring.SecretServiceBackend,
		keyring.WinCredBackend,
		keyring.PassBackend,
		keyring.FileBackend,
	}
	if cfg.Backend == "file" {
		backends = []keyring.BackendType{keyring.FileBackend}
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:              cfg.ServiceName,
		AllowedBackends:          backends,
		FileDir:                  cfg.FileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt(cfg.ServiceName + "-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Load retrieves the persisted token. It returns ErrNotFound when the key
// is absent.
func (s *Store) Load() (string, error) {
	item, err := s.ring.Get(s.key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", s.key, err)
	}
	if len(item.Data) == 0 {
		return "", ErrNotFound
	}
	return string(item.Data), nil
}

// Save stores the token, replacing any previous value.
func (s *Store) Save(token string) error {
	err := s.ring.Set(keyring.Item{
		Key:   s.key,
		Data:  []byte(token),
		Label: "tracker session token",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", s.key, err)
	}
	return nil
}

// Delete removes the token. Deleting an absent token is not an error.
func (s *Store) Delete() error {
	err := s.ring.Remove(s.key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", s.key, err)
	}
	return nil
}
