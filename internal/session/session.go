// Package session provides paired sessions and their persistence.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no session has the given id.
	ErrNotFound = errors.New("session: not found")
	// ErrInvalidID is returned for ids that are empty or not safe as file names.
	ErrInvalidID = errors.New("session: invalid id")
)

// Session is one paired remote peer.
type Session struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	// Browser is set for sessions paired from a browser extension. U2F
	// zero-touch migration applies only to those.
	Browser    bool      `json:"browser,omitempty"`
	TeamLinked bool      `json:"team_linked,omitempty"`
	PairedAt   time.Time `json:"paired_at"`
}

// New returns a freshly paired session with a random id.
func New(displayName string, browser bool, now time.Time) *Session {
	return &Session{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		Browser:     browser,
		PairedAt:    now.UTC(),
	}
}

// Name returns the display name, falling back to the id.
func (s *Session) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.ID
}

// ValidateID rejects ids that cannot be used as a file name.
func ValidateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Registry stores sessions as JSON, one file per session id.
type Registry struct {
	dir string
}

// NewRegistry creates a registry at the given directory.
// Creates the directory if it doesn't exist.
func NewRegistry(dir string) (*Registry, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &Registry{dir: dir}, nil
}

// Dir returns the session storage directory.
func (r *Registry) Dir() string {
	return r.dir
}

// Save persists s, replacing any session with the same id.
func (r *Registry) Save(s *Session) error {
	if err := ValidateID(s.ID); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := os.WriteFile(r.path(s.ID), data, 0o600); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get loads one session.
func (r *Registry) Get(id string) (*Session, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", id, err)
	}
	s.ID = id
	return &s, nil
}

// Lookup finds a session by id or, failing that, by display name.
func (r *Registry) Lookup(ref string) (*Session, error) {
	if ValidateID(ref) == nil {
		s, err := r.Get(ref)
		if err == nil || !errors.Is(err, ErrNotFound) {
			return s, err
		}
	}
	all, err := r.List()
	if err != nil {
		return nil, err
	}
	for _, s := range all {
		if s.DisplayName == ref {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
}

// List returns every stored session ordered by pairing time.
// Unreadable files are skipped.
func (r *Registry) List() ([]*Session, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session directory: %w", err)
	}

	var sessions []*Session
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		s, err := r.Get(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].PairedAt.Equal(sessions[j].PairedAt) {
			return sessions[i].PairedAt.Before(sessions[j].PairedAt)
		}
		return sessions[i].ID < sessions[j].ID
	})
	return sessions, nil
}

// Remove deletes a session record.
func (r *Registry) Remove(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := os.Remove(r.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

func (r *Registry) path(id string) string {
	return filepath.Join(r.dir, id+".json")
}
