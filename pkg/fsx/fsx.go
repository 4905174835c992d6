package fsx

import (
	"context"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/Abraxas-365/hireflow/pkg/errx"
)

// FileInfo describes a stored file. Path is slash separated and relative to
// the file system root.
type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}

type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	ReadFileStream(ctx context.Context, path string) (io.ReadCloser, error)
	Exists(ctx context.Context, path string) (bool, error)
}

type FileWriter interface {
	WriteFile(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
}

type FileLister interface {
	// List returns every file whose path starts with prefix.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}

// FileSystem es el almacenamiento de archivos, local o en S3
type FileSystem interface {
	FileReader
	FileWriter
	FileLister
}

// CleanPath normaliza una ruta relativa y rechaza las que salen de la raíz
func CleanPath(p string) (string, error) {
	p = strings.TrimPrefix(strings.ReplaceAll(p, "\\", "/"), "/")
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == "" {
		return "", ErrInvalidPath().WithDetail("path", p)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidPath().WithDetail("path", p)
	}
	return cleaned, nil
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("FSX")

var (
	CodeFileNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "File not found")
	CodeInvalidPath  = ErrRegistry.Register("INVALID_PATH", errx.TypeValidation, http.StatusBadRequest, "Invalid file path")
)

func ErrFileNotFound() *errx.Error { return ErrRegistry.New(CodeFileNotFound) }
func ErrInvalidPath() *errx.Error  { return ErrRegistry.New(CodeInvalidPath) }
