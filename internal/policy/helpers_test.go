package policy

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/xdg/cosigner/internal/clog"
	"github.com/xdg/cosigner/internal/request"
	"github.com/xdg/cosigner/internal/securestore"
	"github.com/xdg/cosigner/internal/session"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeResolver answers never-ask eligibility without a team store.
type fakeResolver struct {
	available bool
	err       error
}

func (f *fakeResolver) IsNeverAskAvailable(context.Context) (bool, error) {
	return f.available, f.err
}

// failingSetStore is a working store whose writes fail.
type failingSetStore struct {
	*securestore.Store
}

func (failingSetStore) Set(string, []byte) error { return errors.New("disk full") }

type testEnv struct {
	dir      string
	clock    *testClock
	store    *securestore.Store
	resolver *fakeResolver
	sent     []Pending
	mgr      *Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clog.Discard()
	t.Cleanup(clog.Reset)

	env := &testEnv{dir: t.TempDir(), clock: newTestClock(), resolver: &fakeResolver{available: true}}
	store, err := securestore.Open(filepath.Join(env.dir, "secure"), securestore.Options{CreateIdentity: true})
	if err != nil {
		t.Fatalf("securestore.Open: %v", err)
	}
	env.store = store
	env.mgr = env.newManager(store, nil)
	return env
}

// newManager builds a fresh manager over the env's state, as a new
// process would.
func (env *testEnv) newManager(store Storage, legacy LegacySource) *Manager {
	var sealer *securestore.Sealer
	if s, ok := store.(*securestore.Store); ok {
		sealer = s.Sealer()
	} else {
		sealer = env.store.Sealer()
	}
	return NewManager(Options{
		Store:    store,
		Caches:   NewCacheOpener(filepath.Join(env.dir, "caches"), sealer, env.clock.now),
		Resolver: env.resolver,
		Tracker:  NewTracker(func(p Pending) { env.sent = append(env.sent, p) }),
		Legacy:   legacy,
		Now:      env.clock.now,
	})
}

func userHost(t *testing.T, s string) *request.VerifiedUserHost {
	t.Helper()
	uh, err := request.ParseUserHost(s)
	if err != nil {
		t.Fatalf("ParseUserHost(%q): %v", s, err)
	}
	return uh
}

func sshFor(uh *request.VerifiedUserHost) *request.Request {
	return &request.Request{ID: "ssh-" + uh.String(), Body: request.SSHSign{Display: uh.String(), UserHost: uh}}
}

func req(id string, body request.Body) *request.Request {
	return &request.Request{ID: id, Body: body}
}

// allBodies returns one body of every kind.
func allBodies(uh *request.VerifiedUserHost) []request.Body {
	return []request.Body{
		request.SSHSign{Display: "x", UserHost: uh},
		request.GitSign{Git: request.GitCommit},
		request.Hosts{},
		request.Me{},
		request.DecryptLog{},
		request.NoOp{},
		request.Unpair{},
		request.ReadTeam{},
		request.TeamOperation{},
		request.U2FRegister{},
		request.U2FAuthenticate{},
	}
}

func testSession(id string) *session.Session {
	return &session.Session{ID: id, DisplayName: id}
}
