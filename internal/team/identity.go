package team

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrIncompleteTeamConfig is returned when only one of the team database
// and the team id is configured.
var ErrIncompleteTeamConfig = errors.New("team: database and id must both be set")

// Identity links this device to a team in a team data store.
type Identity struct {
	TeamID string
	Store  *Store
}

// FetchTeam reads the identity's team in a read-only transaction.
func (id *Identity) FetchTeam(ctx context.Context) (*Team, error) {
	var t *Team
	err := id.Store.WithReadOnlyTransaction(ctx, func(tx *Tx) error {
		var err error
		t, err = tx.FetchTeam(id.TeamID)
		return err
	})
	return t, err
}

// IdentityProvider supplies the device's team identity. A nil identity
// with a nil error means the device belongs to no team.
type IdentityProvider interface {
	TeamIdentity(ctx context.Context) (*Identity, error)
}

// NoTeam is an IdentityProvider for devices without a team.
type NoTeam struct{}

// TeamIdentity always returns nil.
func (NoTeam) TeamIdentity(context.Context) (*Identity, error) { return nil, nil }

// StaticIdentity always returns the same identity.
type StaticIdentity struct {
	Identity *Identity
}

// TeamIdentity returns the wrapped identity.
func (s StaticIdentity) TeamIdentity(context.Context) (*Identity, error) { return s.Identity, nil }

// ConfigIdentityProvider opens the configured team database on first use.
// An empty path and team id means no team. Once both are set the team's
// policy must be readable: a missing database file is an error wrapping
// os.ErrNotExist, never "no team".
type ConfigIdentityProvider struct {
	DatabasePath string
	TeamID       string

	mu    sync.Mutex
	store *Store
}

// TeamIdentity implements IdentityProvider.
func (p *ConfigIdentityProvider) TeamIdentity(_ context.Context) (*Identity, error) {
	switch {
	case p.DatabasePath == "" && p.TeamID == "":
		return nil, nil
	case p.DatabasePath == "" || p.TeamID == "":
		return nil, ErrIncompleteTeamConfig
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.store == nil {
		if _, err := os.Stat(p.DatabasePath); err != nil {
			return nil, fmt.Errorf("team identity %s: %w", p.TeamID, err)
		}
		store, err := OpenStore(p.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("team identity: %w", err)
		}
		p.store = store
	}
	return &Identity{TeamID: p.TeamID, Store: p.store}, nil
}

// Close closes the database if it was opened.
func (p *ConfigIdentityProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.store == nil {
		return nil
	}
	err := p.store.Close()
	p.store = nil
	return err
}
