// Package bbolt provides a storage.Store that keeps every artifact of a
// working directory in one BBolt database file.
package bbolt

import (
	"bytes"
	"fmt"

	"github.com/jmcleod/confidant/storage"
	"go.etcd.io/bbolt"
)

var artifactsBucket = []byte("artifacts")

// Store implements storage.Store backed by a BBolt database. Each Put is
// one transaction, so an artifact is replaced whole or not at all.
type Store struct {
	db *bbolt.DB
}

var _ storage.Store = (*Store)(nil)

// NewStore returns a Store backed by the given BBolt database.
func NewStore(db *bbolt.DB) *Store {
	return &Store{db: db}
}

// NewStoreFromFile opens a BBolt database at the given path and returns a new Store.
func NewStoreFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewStore(db), nil
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Put(name string, data []byte) error {
	if err := storage.ValidateName(name); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(artifactsBucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(name), bytes.Clone(data))
	})
}

func (s *Store) Get(name string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(artifactsBucket)
		if b == nil {
			return fmt.Errorf("%s: %w", name, storage.ErrNotFound)
		}
		data := b.Get([]byte(name))
		if data == nil {
			return fmt.Errorf("%s: %w", name, storage.ErrNotFound)
		}
		// data is only valid for the life of the transaction.
		out = bytes.Clone(data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Delete(name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(artifactsBucket)
		if b == nil || b.Get([]byte(name)) == nil {
			return fmt.Errorf("%s: %w", name, storage.ErrNotFound)
		}
		return b.Delete([]byte(name))
	})
}

func (s *Store) Exists(name string) (bool, error) {
	var ok bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(artifactsBucket); b != nil {
			ok = b.Get([]byte(name)) != nil
		}
		return nil
	})
	return ok, err
}

// List returns names ending in suffix. Keys are iterated in byte order,
// so the result is sorted.
func (s *Store) List(suffix string) ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(artifactsBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			if bytes.HasSuffix(k, []byte(suffix)) {
				names = append(names, string(k))
			}
			return nil
		})
	})
	return names, err
}
