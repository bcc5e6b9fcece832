package memory

import (
	"errors"
	"testing"

	"github.com/jmcleod/confidant/storage"
)

func TestMemoryStore(t *testing.T) {
	s := NewStore()

	t.Run("PutAndGet", func(t *testing.T) {
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

		// Test isolation (cloning)
		got[0] = 'X'
		got2, _ := s.Get("notes.vault")
		if got2[0] == 'X' {
			t.Error("Memory store should return copies of artifacts")
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		_, err := s.Get("missing.vault")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("RejectBadName", func(t *testing.T) {
		if err := s.Put("../escape", []byte("x")); err == nil {
			t.Error("expected error for path-like name")
		}
	})

	t.Run("ExistsAndList", func(t *testing.T) {
		s.Put("notes.key", []byte("k"))
		s.Put("diary.vault", []byte("d"))

		ok, err := s.Exists("notes.key")
		if err != nil || !ok {
			t.Errorf("Exists(notes.key) = %v, %v", ok, err)
		}

		names, err := s.List(".vault")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(names) != 2 || names[0] != "diary.vault" || names[1] != "notes.vault" {
			t.Errorf("List returned %v", names)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := s.Delete("notes.key"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if ok, _ := s.Exists("notes.key"); ok {
			t.Error("artifact should be gone after Delete")
		}
		if err := s.Delete("notes.key"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound deleting twice, got %v", err)
		}
	})

	t.Run("Snapshot", func(t *testing.T) {
		snap := s.Snapshot()
		snap["notes.vault"][0] = 'Z'
		got, _ := s.Get("notes.vault")
		if got[0] == 'Z' {
			t.Error("Snapshot should be a deep copy")
		}
	})
}
