// Package storage provides sealed envelopes and the artifact store that
// persists a vault's files.
package storage

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a named artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

// TempSuffix marks in-flight writes of directory-backed stores.
const TempSuffix = ".tmp"

// Store persists named artifacts (container, key-file, unlock marker,
// recovery file) for the vaults in one working directory.
type Store interface {
	Get(name string) ([]byte, error)
	// Put replaces the artifact as a whole. Implementations must never leave
	// a partially written artifact behind.
	Put(name string, data []byte) error
	Delete(name string) error
	Exists(name string) (bool, error)
	// List returns the names of artifacts ending in suffix, sorted.
	List(suffix string) ([]string, error)
}

// ValidateName rejects artifact names that could escape the store's
// directory or collide with temporary files.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("artifact name %q must not contain path separators", name)
	}
	if strings.HasSuffix(name, TempSuffix) {
		return fmt.Errorf("artifact name %q uses the reserved %s suffix", name, TempSuffix)
	}
	return nil
}
