package bbolt

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmcleod/confidant/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStoreFromFile(filepath.Join(t.TempDir(), "confidant.db"), nil)
	if err != nil {
		t.Fatalf("could not open db: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBBoltStore(t *testing.T) {
	s := newTestStore(t)

	t.Run("EmptyDatabase", func(t *testing.T) {
		if _, err := s.Get("notes.vault"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		names, err := s.List(".vault")
		if err != nil || len(names) != 0 {
			t.Errorf("List on empty db = %v, %v", names, err)
		}
		if ok, err := s.Exists("notes.vault"); err != nil || ok {
			t.Errorf("Exists on empty db = %v, %v", ok, err)
		}
	})

	t.Run("PutGet", func(t *testing.T) {
		if err := s.Put("notes.vault", []byte("container")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := s.Get("notes.vault")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != "container" {
			t.Errorf("Get returned %q", got)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		if err := s.Put("notes.vault", []byte("spliced")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, _ := s.Get("notes.vault")
		if string(got) != "spliced" {
			t.Errorf("expected overwrite, got %q", got)
		}
	})

	t.Run("RejectBadName", func(t *testing.T) {
		if err := s.Put("a/b", []byte("x")); err == nil {
			t.Error("expected error for path-like name")
		}
	})

	t.Run("List", func(t *testing.T) {
		s.Put("diary.vault", []byte("d"))
		s.Put("diary.key", []byte("k"))
		names, err := s.List(".vault")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(names) != 2 || names[0] != "diary.vault" || names[1] != "notes.vault" {
			t.Errorf("List returned %v", names)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := s.Delete("diary.key"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if ok, _ := s.Exists("diary.key"); ok {
			t.Error("artifact should be gone after Delete")
		}
		if err := s.Delete("diary.key"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
