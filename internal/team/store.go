// Package team reads organization policy from the local team data store
// and resolves how it constrains local policy settings.
package team

import (
	"context"
	"errors"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// ErrNoTeam is returned when the store has no team with the requested id.
var ErrNoTeam = errors.New("team: no such team")

// Policy is the organization-mandated policy of a team.
type Policy struct {
	// TemporaryApprovalSeconds, when set, fixes the temporary approval
	// duration for every member and disables never-ask.
	TemporaryApprovalSeconds *int64
}

// Team is one organization.
type Team struct {
	ID     string
	Name   string
	Policy Policy
}

const schema = `
CREATE TABLE IF NOT EXISTS teams (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	temporary_approval_seconds INTEGER NULL
);
`

// Store is the team data store, a SQLite database accessed through a
// small connection pool.
type Store struct {
	pool *sqlitex.Pool
	path string
}

// OpenStore opens (creating if needed) the team database at path.
func OpenStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("team store: path is required")
	}
	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		PoolSize: 2,
		PrepareConn: func(conn *sqlite.Conn) error {
			if err := sqlitex.ExecuteTransient(conn, "PRAGMA busy_timeout=5000", nil); err != nil {
				return err
			}
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("team store: opening %s: %w", path, err)
	}
	return &Store{pool: pool, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the pool. Blocks until every borrowed connection is returned.
func (s *Store) Close() error {
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("team store: closing %s: %w", s.path, err)
	}
	return nil
}

// Tx is a transaction against the store. It is valid only inside the
// callback it was passed to.
type Tx struct {
	conn     *sqlite.Conn
	readOnly bool
}

// WithReadOnlyTransaction runs fn in a deferred transaction with writes
// disabled.
func (s *Store) WithReadOnlyTransaction(ctx context.Context, fn func(*Tx) error) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("team store: take: %w", err)
	}
	defer s.pool.Put(conn)

	if err := sqlitex.ExecuteTransient(conn, "PRAGMA query_only=ON", nil); err != nil {
		return fmt.Errorf("team store: read-only: %w", err)
	}
	defer func() {
		if resetErr := sqlitex.ExecuteTransient(conn, "PRAGMA query_only=OFF", nil); resetErr != nil && err == nil {
			err = fmt.Errorf("team store: reset read-only: %w", resetErr)
		}
	}()

	end := sqlitex.Transaction(conn)
	defer end(&err)
	return fn(&Tx{conn: conn, readOnly: true})
}

// WithTransaction runs fn in an immediate (write) transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) WithTransaction(ctx context.Context, fn func(*Tx) error) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("team store: take: %w", err)
	}
	defer s.pool.Put(conn)

	end, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("team store: begin transaction: %w", err)
	}
	defer end(&err)
	return fn(&Tx{conn: conn})
}

// FetchTeam loads the team with the given id.
func (tx *Tx) FetchTeam(id string) (*Team, error) {
	var found *Team
	err := sqlitex.Execute(tx.conn,
		"SELECT id, name, temporary_approval_seconds FROM teams WHERE id = ?",
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = scanTeam(stmt)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("team store: fetch %s: %w", id, err)
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoTeam, id)
	}
	return found, nil
}

// Teams lists every team ordered by id.
func (tx *Tx) Teams() ([]*Team, error) {
	var teams []*Team
	err := sqlitex.Execute(tx.conn,
		"SELECT id, name, temporary_approval_seconds FROM teams ORDER BY id",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				teams = append(teams, scanTeam(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("team store: list: %w", err)
	}
	return teams, nil
}

// PutTeam inserts or replaces a team.
func (tx *Tx) PutTeam(t *Team) error {
	if tx.readOnly {
		return fmt.Errorf("team store: put %s: read-only transaction", t.ID)
	}
	if t.ID == "" {
		return fmt.Errorf("team store: team id is required")
	}
	var seconds any
	if t.Policy.TemporaryApprovalSeconds != nil {
		seconds = *t.Policy.TemporaryApprovalSeconds
	}
	err := sqlitex.Execute(tx.conn,
		`INSERT INTO teams (id, name, temporary_approval_seconds) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name,
		 temporary_approval_seconds = excluded.temporary_approval_seconds`,
		&sqlitex.ExecOptions{Args: []any{t.ID, t.Name, seconds}})
	if err != nil {
		return fmt.Errorf("team store: put %s: %w", t.ID, err)
	}
	return nil
}

// Columns: id(0), name(1), temporary_approval_seconds(2)
func scanTeam(stmt *sqlite.Stmt) *Team {
	t := &Team{ID: stmt.ColumnText(0), Name: stmt.ColumnText(1)}
	if !stmt.ColumnIsNull(2) {
		v := stmt.ColumnInt64(2)
		t.Policy.TemporaryApprovalSeconds = &v
	}
	return t
}
