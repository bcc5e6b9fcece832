package archive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Exec shells out to the zip and unzip binaries found on PATH.
type Exec struct {
	// ZipPath and UnzipPath override the binaries. Empty means "zip" and
	// "unzip".
	ZipPath   string
	UnzipPath string
}

var _ Archiver = Exec{}

func (e Exec) zipBin() string {
	if e.ZipPath != "" {
		return e.ZipPath
	}
	return "zip"
}

func (e Exec) unzipBin() string {
	if e.UnzipPath != "" {
		return e.UnzipPath
	}
	return "unzip"
}

func (e Exec) Compress(ctx context.Context, root, dir string) ([]byte, error) {
	if err := checkDir(dir); err != nil {
		return nil, toolErr("compress", err)
	}
	if info, err := os.Stat(filepath.Join(root, dir)); err != nil || !info.IsDir() {
		return nil, toolErr("compress", fmt.Errorf("%s is not a directory", dir))
	}

	tmp, err := os.MkdirTemp("", "confidant-zip-")
	if err != nil {
		return nil, toolErr("compress", err)
	}
	defer os.RemoveAll(tmp)

	out := filepath.Join(tmp, "confidant.zip")
	if err := run(ctx, root, e.zipBin(), "-r9", "-q", out, filepath.ToSlash(filepath.Clean(dir))); err != nil {
		return nil, toolErr("compress", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		return nil, toolErr("compress", err)
	}
	return data, nil
}

func (e Exec) Decompress(ctx context.Context, data []byte, root string) error {
	tmp, err := os.MkdirTemp("", "confidant-unzip-")
	if err != nil {
		return toolErr("decompress", err)
	}
	defer os.RemoveAll(tmp)

	in := filepath.Join(tmp, "confidant.zip")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return toolErr("decompress", err)
	}
	if err := run(ctx, root, e.unzipBin(), "-q", in, "-d", root); err != nil {
		return toolErr("decompress", err)
	}
	return nil
}

func run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
