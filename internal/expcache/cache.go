// Package expcache is the persisted, expiring key/value cache that holds
// per-host temporary allows. Each cache is a namespace directory under a
// root; entries are sealed files carrying their own absolute expiry, so
// an entry past its expiry is never returned even if no sweep has run.
package expcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xdg/cosigner/internal/clog"
	"github.com/xdg/cosigner/internal/securestore"
)

var log = clog.For("expcache")

// ErrEmptyName is returned by Open when the namespace is empty.
var ErrEmptyName = errors.New("expcache: name cannot be empty")

// entry is the on-disk form of one cached value.
type entry struct {
	Expires float64 `json:"expires"`
	Value   []byte  `json:"value"`

	// at is Expires as a time, set by read.
	at time.Time
}

func (e entry) expiresAt() time.Time {
	return e.at
}

// Cache is one expiring namespace. It is safe for concurrent use within a
// process; across processes, writes are atomic per entry and the last
// writer wins.
type Cache struct {
	mu     sync.Mutex
	name   string
	dir    string
	sealer *securestore.Sealer
	now    func() time.Time
}

// Open opens (creating if needed) the namespace name under root. A nil
// sealer means secure storage is not available yet and Open fails with
// securestore.ErrUnavailable. A nil now uses time.Now.
func Open(root, name string, sealer *securestore.Sealer, now func() time.Time) (*Cache, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if sealer == nil {
		return nil, securestore.ErrUnavailable
	}
	if now == nil {
		now = time.Now
	}

	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{name: name, dir: dir, sealer: sealer, now: now}, nil
}

// Name returns the cache namespace.
func (c *Cache) Name() string {
	return c.name
}

// Set stores value under key with an absolute expiry of now+ttl,
// replacing any existing entry.
func (c *Cache) Set(key string, value []byte, ttl time.Duration) error {
	expires := c.now().Add(ttl)
	data, err := json.Marshal(entry{
		Expires: float64(expires.UnixNano()) / 1e9,
		Value:   value,
	})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	sealed, err := c.sealer.Seal(data)
	if err != nil {
		return fmt.Errorf("seal cache entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := securestore.WriteAtomic(c.path(key), sealed); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Get returns the value under key if it exists and has not expired.
// An expired entry found on read is removed.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.path(key)
	e, err := c.read(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn("dropping unreadable entry in %s: %v", c.name, err)
			_ = os.Remove(path)
		}
		return nil, false
	}
	if !c.now().Before(e.expiresAt()) {
		_ = os.Remove(path)
		return nil, false
	}
	return e.Value, true
}

// Remove deletes the entry under key. Removing a missing key is a no-op.
func (c *Cache) Remove(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cache entry: %w", err)
	}
	return nil
}

// RemoveExpired deletes every expired or unreadable entry and returns
// how many were removed.
func (c *Cache) RemoveExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	names, err := c.entryNames()
	if err != nil {
		log.Warn("sweep %s: %v", c.name, err)
		return 0
	}

	now := c.now()
	removed := 0
	for _, name := range names {
		path := filepath.Join(c.dir, name)
		e, err := c.read(path)
		if err == nil && now.Before(e.expiresAt()) {
			continue
		}
		if os.Remove(path) == nil {
			removed++
		}
	}
	return removed
}

// RemoveAll deletes every entry in the namespace.
func (c *Cache) RemoveAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	names, err := c.entryNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove cache entry: %w", err)
		}
	}
	return nil
}

// AllObjects returns the values of every live entry in no particular
// order. Expired and unreadable entries are skipped.
func (c *Cache) AllObjects() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	names, err := c.entryNames()
	if err != nil {
		log.Warn("list %s: %v", c.name, err)
		return nil
	}

	now := c.now()
	values := make([][]byte, 0, len(names))
	for _, name := range names {
		e, err := c.read(filepath.Join(c.dir, name))
		if err != nil || !now.Before(e.expiresAt()) {
			continue
		}
		values = append(values, e.Value)
	}
	return values
}

// Destroy removes the namespace directory and everything in it.
func (c *Cache) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("destroy cache %s: %w", c.name, err)
	}
	return nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, securestore.EncodeKey(key))
}

func (c *Cache) read(path string) (entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entry{}, err
	}
	plaintext, err := c.sealer.Open(data)
	if err != nil {
		return entry{}, err
	}
	var e entry
	if err := json.Unmarshal(plaintext, &e); err != nil {
		return entry{}, fmt.Errorf("decode cache entry: %w", err)
	}
	if e.at, err = UnixFloat(e.Expires); err != nil {
		return entry{}, err
	}
	return e, nil
}

// entryNames lists entry files, skipping temp files from in-flight writes.
func (c *Cache) entryNames() ([]string, error) {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache dir: %w", err)
	}
	names := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		if _, ok := securestore.DecodeKey(de.Name()); !ok {
			continue
		}
		names = append(names, de.Name())
	}
	return names, nil
}
