package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRegistry_SaveGetRemove(t *testing.T) {
	reg, err := NewRegistry(filepath.Join(t.TempDir(), "sessions"))
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	s := New("laptop", true, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err := reg.Save(s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(reg.Dir(), s.ID+".json"))
	if err != nil {
		t.Fatalf("session file not created: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("session file permissions = %o, want 0600", info.Mode().Perm())
	}

	got, err := reg.Get(s.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.DisplayName != "laptop" || !got.Browser || !got.PairedAt.Equal(s.PairedAt) {
		t.Errorf("Get returned %+v, want %+v", got, s)
	}

	if err := reg.Remove(s.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := reg.Get(s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Remove error = %v, want ErrNotFound", err)
	}
	if err := reg.Remove(s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove error = %v, want ErrNotFound", err)
	}
}

func TestRegistry_ListOrdered(t *testing.T) {
	reg, err := NewRegistry(t.TempDir())
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	later := New("later", false, base.Add(time.Hour))
	earlier := New("earlier", false, base)
	for _, s := range []*Session{later, earlier} {
		if err := reg.Save(s); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	// Stray files are ignored.
	if err := os.WriteFile(filepath.Join(reg.Dir(), "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(reg.Dir(), "broken.json"), []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}

	list, err := reg.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List returned %d sessions, want 2", len(list))
	}
	if list[0].DisplayName != "earlier" || list[1].DisplayName != "later" {
		t.Errorf("List order = %s, %s", list[0].DisplayName, list[1].DisplayName)
	}
}

func TestRegistry_Lookup(t *testing.T) {
	reg, err := NewRegistry(t.TempDir())
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	s := New("work-mac", false, time.Now())
	if err := reg.Save(s); err != nil {
		t.Fatal(err)
	}

	for _, ref := range []string{s.ID, "work-mac"} {
		got, err := reg.Lookup(ref)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", ref, err)
		}
		if got.ID != s.ID {
			t.Errorf("Lookup(%q) = %s, want %s", ref, got.ID, s.ID)
		}
	}
	if _, err := reg.Lookup("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(nope) error = %v, want ErrNotFound", err)
	}
}

func TestValidateID(t *testing.T) {
	for _, id := range []string{"", ".", "..", "a/b", `a\b`} {
		if err := ValidateID(id); !errors.Is(err, ErrInvalidID) {
			t.Errorf("ValidateID(%q) = %v, want ErrInvalidID", id, err)
		}
	}
	if err := ValidateID("6f1c2a"); err != nil {
		t.Errorf("ValidateID(valid) = %v", err)
	}
}

func TestSession_Name(t *testing.T) {
	s := &Session{ID: "abc"}
	if s.Name() != "abc" {
		t.Errorf("Name() = %q, want id fallback", s.Name())
	}
	s.DisplayName = "phone"
	if s.Name() != "phone" {
		t.Errorf("Name() = %q", s.Name())
	}
}
