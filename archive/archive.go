// Package archive compresses a payload directory into a single blob and
// restores it. The vault encrypts the blob; archivers never see keys.
package archive

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
)

// ErrToolFailure wraps every compression and extraction failure.
var ErrToolFailure = errors.New("archive tool failure")

// Archiver turns a directory into bytes and back.
type Archiver interface {
	// Compress archives root/dir. Entry names start with dir so that
	// Decompress into root recreates root/dir.
	Compress(ctx context.Context, root, dir string) ([]byte, error)
	// Decompress extracts data into root.
	Decompress(ctx context.Context, data []byte, root string) error
}

// New returns the archiver registered under name: "builtin" or "exec".
func New(name string) (Archiver, error) {
	switch name {
	case "", "builtin":
		return Zip{}, nil
	case "exec":
		return Exec{}, nil
	default:
		return nil, fmt.Errorf("unknown archiver %q", name)
	}
}

func toolErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrToolFailure, op, err)
}

// localEntry reports whether an archive entry name stays inside the
// extraction root.
func localEntry(name string) bool {
	return name != "" && filepath.IsLocal(filepath.FromSlash(name))
}

func checkDir(dir string) error {
	if !localEntry(dir) || filepath.Clean(dir) == "." {
		return fmt.Errorf("directory %q must be a relative path inside the root", dir)
	}
	return nil
}
