package notify

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/xdg/cosigner/internal/clog"
	"github.com/xdg/cosigner/internal/expcache"
	"github.com/xdg/cosigner/internal/request"
	"github.com/xdg/cosigner/internal/securestore"
	"github.com/xdg/cosigner/internal/session"
)

func TestGroupFor(t *testing.T) {
	s := &session.Session{ID: "s1"}
	tests := []struct {
		name string
		req  *request.Request
		want GroupID
	}{
		{"ssh groups by display", &request.Request{ID: "r1", Body: request.SSHSign{Display: "root@server.com"}}, "s1_root@server.com"},
		{"ssh without display", &request.Request{ID: "r2", Body: request.SSHSign{}}, "s1_r2"},
		{"git groups by id", &request.Request{ID: "r3", Body: request.GitSign{Git: request.GitCommit}}, "s1_r3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GroupFor(s, tt.req); got != tt.want {
				t.Errorf("GroupFor() = %q, want %q", got, tt.want)
			}
		})
	}
	if got := GroupID("s1_x").WithCount(3); got != "s1_x_3" {
		t.Errorf("WithCount(3) = %q", got)
	}
}

func TestCounter_Next(t *testing.T) {
	c := NewCounter()
	g := GroupID("s1_root@host")
	shown := map[string]bool{}
	stillShown := func(id string) bool { return shown[id] }

	d := c.Next(g, stillShown)
	if d.ID != "s1_root@host_1" || d.Replaces != "" || d.Count != 1 {
		t.Errorf("first delivery = %+v", d)
	}
	if d.Body("root@host") != "root@host" {
		t.Errorf("first body = %q", d.Body("root@host"))
	}
	shown[d.ID] = true

	d = c.Next(g, stillShown)
	if d.ID != "s1_root@host_2" || d.Replaces != "s1_root@host_1" || d.Count != 2 {
		t.Errorf("second delivery = %+v", d)
	}
	if got := d.Body("root@host"); got != "root@host (2)" {
		t.Errorf("second body = %q", got)
	}

	// The user cleared the notification: counting restarts.
	delete(shown, "s1_root@host_1")
	d = c.Next(g, stillShown)
	if d.ID != "s1_root@host_1" || d.Replaces != "" || d.Count != 1 {
		t.Errorf("delivery after clear = %+v", d)
	}

	c.Reset(g)
	if c.Count(g) != 0 {
		t.Errorf("Count after Reset = %d", c.Count(g))
	}
}

func TestCounter_ConcurrentNext(t *testing.T) {
	c := NewCounter()
	g := GroupID("s_busy")
	always := func(string) bool { return true }

	const n = 100
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- c.Next(g, always).ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate delivery id %s", id)
		}
		seen[id] = true
	}
	if c.Count(g) != n {
		t.Errorf("Count() = %d, want %d", c.Count(g), n)
	}
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
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

func TestInAppFilter(t *testing.T) {
	clog.Discard()
	t.Cleanup(clog.Reset)
	dir := t.TempDir()
	store, err := securestore.Open(filepath.Join(dir, "secure"), securestore.Options{CreateIdentity: true})
	if err != nil {
		t.Fatal(err)
	}
	clock := &testClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache, err := expcache.Open(filepath.Join(dir, "caches"), InAppCacheName, store.Sealer(), clock.now)
	if err != nil {
		t.Fatal(err)
	}
	f := NewInAppFilter(cache)

	if !f.ShouldPresent("r1") {
		t.Error("first presentation should show")
	}
	if f.ShouldPresent("r1") {
		t.Error("repeat within the window should be suppressed")
	}
	if !f.ShouldPresent("r2") {
		t.Error("a different request should show")
	}

	clock.advance(InAppWindow)
	if !f.ShouldPresent("r1") {
		t.Error("presentation after the window should show")
	}
}

func TestInAppFilter_NilCache(t *testing.T) {
	f := NewInAppFilter(nil)
	if !f.ShouldPresent("r") || !f.ShouldPresent("r") {
		t.Error("filter without a cache must never suppress")
	}
	var none *InAppFilter
	if !none.ShouldPresent("r") {
		t.Error("nil filter must never suppress")
	}
}

func openShownCache(t *testing.T, dir string, clock *testClock) *expcache.Cache {
	t.Helper()
	store, err := securestore.Open(filepath.Join(dir, "secure"), securestore.Options{CreateIdentity: true})
	if err != nil {
		t.Fatal(err)
	}
	cache, err := expcache.Open(filepath.Join(dir, "caches"), ShownCacheName, store.Sealer(), clock.now)
	if err != nil {
		t.Fatal(err)
	}
	return cache
}

func TestPresenter_CountsRepeatsAcrossProcesses(t *testing.T) {
	clog.Discard()
	t.Cleanup(clog.Reset)
	dir := t.TempDir()
	clock := &testClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := &session.Session{ID: "s1"}
	sshReq := func(id string) *request.Request {
		return &request.Request{ID: id, Body: request.SSHSign{Display: "root@server.com"}}
	}

	d := NewPresenter(openShownCache(t, dir, clock)).Next(s, sshReq("r1"))
	if d.Count != 1 || d.Replaces != "" {
		t.Errorf("first delivery = %+v", d)
	}

	// A new presenter stands in for the next cosigner process.
	d = NewPresenter(openShownCache(t, dir, clock)).Next(s, sshReq("r2"))
	if d.Count != 2 || d.Replaces != "s1_root@server.com_1" {
		t.Errorf("second delivery = %+v", d)
	}
	if got := d.Body("SSH login root@server.com"); got != "SSH login root@server.com (2)" {
		t.Errorf("second body = %q", got)
	}

	clock.advance(ShownWindow)
	d = NewPresenter(openShownCache(t, dir, clock)).Next(s, sshReq("r3"))
	if d.Count != 1 || d.Replaces != "" {
		t.Errorf("delivery after the window = %+v, want a fresh count", d)
	}
}

func TestPresenter_NilCache(t *testing.T) {
	p := NewPresenter(nil)
	s := &session.Session{ID: "s1"}
	r := &request.Request{ID: "r1", Body: request.GitSign{Git: request.GitCommit}}
	for i := 0; i < 2; i++ {
		if d := p.Next(s, r); d.Replaces != "" || d.Count != 1 {
			t.Errorf("delivery %d = %+v, want first of group", i, d)
		}
	}
}
