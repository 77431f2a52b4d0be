// Package upload stores raw uploaded files under generated ids so a
// queued indexing job can reference its input by id rather than by
// caller-controlled path.
package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Aman-CERP/semdex/internal/errors"
)

// DefaultMaxBytes caps one upload at 100MB.
const DefaultMaxBytes = 100 * 1024 * 1024

// knownExtensions are probed when resolving an upload id without a
// recorded extension.
var knownExtensions = []string{".csv", ".tsv", ".json", ".jsonl", ".ndjson"}

// Registry saves and resolves uploaded files in a single directory.
// Files are named "<upload-id><source-extension>".
type Registry struct {
	dir      string
	maxBytes int64
}

// NewRegistry creates the upload directory if needed.
func NewRegistry(dir string, maxBytes int64) (*Registry, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Registry{dir: dir, maxBytes: maxBytes}, nil
}

// Save streams r to disk under a fresh upload id, keeping the original
// filename's extension. Rejects content over the size cap.
func (g *Registry) Save(r io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	id := uuid.NewString()
	path := filepath.Join(g.dir, id+ext)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}

	// Read one byte past the cap so oversize input is detectable.
	n, err := io.Copy(f, io.LimitReader(r, g.maxBytes+1))
	closeErr := f.Close()
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if closeErr != nil {
		_ = os.Remove(path)
		return "", closeErr
	}
	if n > g.maxBytes {
		_ = os.Remove(path)
		return "", errors.New(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("upload exceeds %d bytes", g.maxBytes), nil)
	}
	return id, nil
}

// Path resolves an upload id to its file, probing known extensions.
// Returns a file-not-found error when no stored file matches.
func (g *Registry) Path(id string) (string, error) {
	// Exact filename (extensionless upload).
	bare := filepath.Join(g.dir, id)
	if fileExists(bare) {
		return bare, nil
	}
	for _, ext := range knownExtensions {
		path := bare + ext
		if fileExists(path) {
			return path, nil
		}
	}
	return "", errors.New(errors.ErrCodeFileNotFound,
		fmt.Sprintf("no upload found for id %s", id), nil)
}

// Remove deletes an upload's file. Removing an unknown id is a no-op.
func (g *Registry) Remove(id string) error {
	path, err := g.Path(id)
	if err != nil {
		return nil
	}
	return os.Remove(path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
