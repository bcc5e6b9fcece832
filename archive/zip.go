package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
)

// Zip is the in-process archiver. It writes deflate-compressed zip data.
// Symbolic links are followed and stored as the files and directories
// they point to, as zip -r does.
type Zip struct{}

var _ Archiver = Zip{}

func (Zip) Compress(ctx context.Context, root, dir string) ([]byte, error) {
	if err := checkDir(dir); err != nil {
		return nil, toolErr("compress", err)
	}
	base := filepath.Join(root, dir)
	info, err := os.Stat(base)
	if err != nil {
		return nil, toolErr("compress", err)
	}
	if !info.IsDir() {
		return nil, toolErr("compress", fmt.Errorf("%s is not a directory", base))
	}

	var buf bytes.Buffer
	zw := &zipWalker{
		ctx:      ctx,
		w:        zip.NewWriter(&buf),
		visiting: make(map[string]bool),
	}
	if err := zw.addDir(base, filepath.ToSlash(filepath.Clean(dir)), info); err != nil {
		_ = zw.w.Close()
		return nil, toolErr("compress", err)
	}
	if err := zw.w.Close(); err != nil {
		return nil, toolErr("compress", err)
	}
	return buf.Bytes(), nil
}

type zipWalker struct {
	ctx context.Context
	w   *zip.Writer
	// visiting holds the resolved directories on the current path.
	visiting map[string]bool
}

func (z *zipWalker) add(path, name string) error {
	if err := z.ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	switch {
	case info.IsDir():
		return z.addDir(path, name, info)
	case info.Mode().IsRegular():
		return z.addFile(path, name, info)
	default:
		return fmt.Errorf("%s is not a regular file or directory", path)
	}
}

func (z *zipWalker) addDir(path, name string, info fs.FileInfo) error {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if z.visiting[resolved] {
		return fmt.Errorf("symlink loop at %s", path)
	}
	z.visiting[resolved] = true
	defer delete(z.visiting, resolved)

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("create header for %s: %w", path, err)
	}
	header.Name = name + "/"
	header.Method = zip.Store
	if _, err := z.w.CreateHeader(header); err != nil {
		return err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := z.add(filepath.Join(path, e.Name()), name+"/"+e.Name()); err != nil {
			return err
		}
	}
	return nil
}

func (z *zipWalker) addFile(path, name string, info fs.FileInfo) error {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("create header for %s: %w", path, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	entry, err := z.w.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create entry for %s: %w", path, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(entry, f); err != nil {
		return fmt.Errorf("write %s to zip: %w", path, err)
	}
	return nil
}

func (Zip) Decompress(ctx context.Context, data []byte, root string) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return toolErr("decompress", err)
	}

	for _, f := range r.File {
		if !localEntry(f.Name) {
			return toolErr("decompress", fmt.Errorf("potentially malicious zip item path %q", f.Name))
		}
	}

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return toolErr("decompress", err)
		}
		outPath := filepath.Join(root, filepath.FromSlash(f.Name))
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(outPath, 0o700); err != nil {
				return toolErr("decompress", err)
			}
			continue
		}
		if err := extractFile(f, outPath); err != nil {
			return toolErr("decompress", err)
		}
	}
	return nil
}

func extractFile(f *zip.File, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o700); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", outPath, err)
	}
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s in archive: %w", f.Name, err)
	}
	defer src.Close()

	perm := f.Mode().Perm()
	if perm == 0 {
		perm = 0o600
	}
	dst, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(outPath)
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	return dst.Close()
}
