package fsxlocal

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Abraxas-365/hireflow/pkg/errx"
	"github.com/Abraxas-365/hireflow/pkg/fsx"
)

// LocalFileSystem guarda archivos bajo un directorio raíz
type LocalFileSystem struct {
	root string
}

// NewLocalFileSystem crea la raíz si no existe. Una raíz vacía es el directorio actual.
func NewLocalFileSystem(root string) (*LocalFileSystem, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errx.Wrap(err, "failed to resolve storage root", errx.TypeInternal).WithDetail("root", root)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errx.Wrap(err, "failed to create storage root", errx.TypeInternal).WithDetail("root", abs)
	}
	return &LocalFileSystem{root: abs}, nil
}

func (l *LocalFileSystem) resolve(p string) (string, error) {
	cleaned, err := fsx.CleanPath(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(cleaned)), nil
}

func (l *LocalFileSystem) WriteFile(_ context.Context, p string, data []byte) error {
	full, err := l.resolve(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errx.Wrap(err, "failed to create directory", errx.TypeInternal).WithDetail("path", p)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return errx.Wrap(err, "failed to write file", errx.TypeInternal).WithDetail("path", p)
	}
	return nil
}

func (l *LocalFileSystem) ReadFile(_ context.Context, p string) ([]byte, error) {
	full, err := l.resolve(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fsx.ErrFileNotFound().WithDetail("path", p)
		}
		return nil, errx.Wrap(err, "failed to read file", errx.TypeInternal).WithDetail("path", p)
	}
	return data, nil
}

func (l *LocalFileSystem) ReadFileStream(_ context.Context, p string) (io.ReadCloser, error) {
	full, err := l.resolve(p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fsx.ErrFileNotFound().WithDetail("path", p)
		}
		return nil, errx.Wrap(err, "failed to open file", errx.TypeInternal).WithDetail("path", p)
	}
	return f, nil
}

func (l *LocalFileSystem) Exists(_ context.Context, p string) (bool, error) {
	full, err := l.resolve(p)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, errx.Wrap(err, "failed to stat file", errx.TypeInternal).WithDetail("path", p)
	}
	return true, nil
}

func (l *LocalFileSystem) Delete(_ context.Context, p string) error {
	full, err := l.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fsx.ErrFileNotFound().WithDetail("path", p)
		}
		return errx.Wrap(err, "failed to delete file", errx.TypeInternal).WithDetail("path", p)
	}
	return nil
}

func (l *LocalFileSystem) List(ctx context.Context, prefix string) ([]fsx.FileInfo, error) {
	out := []fsx.FileInfo{}
	err := filepath.WalkDir(l.root, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.root, full)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, fsx.FileInfo{Path: rel, Size: info.Size(), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, errx.Wrap(err, "failed to list files", errx.TypeInternal).WithDetail("prefix", prefix)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Path < out[b].Path })
	return out, nil
}
