// Package securestore is the secure-at-rest key/blob store that backs
// per-session policy settings and the legacy global flags. Every value
// is sealed with the device age identity and written atomically.
//
// A store whose identity is missing is unavailable, which models the
// state before the device is first unlocked. Callers must check
// Available (or handle ErrUnavailable) and fall back to safe defaults.
package securestore

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrNotFound is returned by Get when no value is stored under the key.
	ErrNotFound = errors.New("securestore: not found")
	// ErrUnavailable is returned when the device identity cannot be loaded.
	ErrUnavailable = errors.New("securestore: storage unavailable")
	// ErrCorrupt is returned when a stored blob cannot be decrypted.
	ErrCorrupt = errors.New("securestore: corrupt value")
	// ErrEmptyKey is returned when an operation is given an empty key.
	ErrEmptyKey = errors.New("securestore: key cannot be empty")
)

// Options controls how a store is opened.
type Options struct {
	// CreateIdentity generates the device identity if it is missing.
	// Without it, a missing identity leaves the store unavailable.
	CreateIdentity bool
}

// Store is a directory of sealed values, one file per key.
type Store struct {
	dir    string
	sealer *Sealer
}

// Open opens the store rooted at dir, creating the directory with 0700
// permissions. A missing identity does not fail Open; it yields a store
// that reports Available() == false.
func Open(dir string, opts Options) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create secure store dir: %w", err)
	}

	sealer, err := LoadSealer(filepath.Join(dir, identityFile), opts.CreateIdentity)
	if err != nil && !errors.Is(err, ErrUnavailable) {
		return nil, err
	}
	return &Store{dir: dir, sealer: sealer}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Available reports whether the identity is loaded and values can be
// read and written.
func (s *Store) Available() bool {
	return s != nil && s.sealer != nil
}

// Sealer returns the store's sealer, or nil when the store is unavailable.
func (s *Store) Sealer() *Sealer {
	if s == nil {
		return nil
	}
	return s.sealer
}

// Get returns the plaintext stored under key.
func (s *Store) Get(key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", key, err)
	}
	return s.sealer.Open(data)
}

// Set seals data and stores it under key, replacing any existing value.
func (s *Store) Set(key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	sealed, err := s.sealer.Seal(data)
	if err != nil {
		return fmt.Errorf("seal %q: %w", key, err)
	}
	if err := WriteAtomic(path, sealed); err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}

// Delete removes the value stored under key. Deleting a missing key
// returns ErrNotFound so migrations can tell "never set" apart.
func (s *Store) Delete(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (s *Store) path(key string) (string, error) {
	if !s.Available() {
		return "", ErrUnavailable
	}
	if key == "" {
		return "", ErrEmptyKey
	}
	return filepath.Join(s.dir, EncodeKey(key)), nil
}

// EncodeKey maps an arbitrary key to a safe file name.
func EncodeKey(key string) string {
	return "k_" + base64.RawURLEncoding.EncodeToString([]byte(key))
}

// DecodeKey reverses EncodeKey. It reports false for names that were
// not produced by EncodeKey.
func DecodeKey(name string) (string, bool) {
	if len(name) < 2 || name[:2] != "k_" {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(name[2:])
	if err != nil {
		return "", false
	}
	return string(raw), true
}
