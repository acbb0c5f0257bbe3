// Package blob stores attachment payloads on the local filesystem.
//
// Blob paths are slash-separated and relative to a root directory. Writes
// use O_EXCL so an existing file is never replaced, which keeps storage
// paths immutable once recorded.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.BlobStore = (*Store)(nil)

// Store is a filesystem-backed blob store.
type Store struct {
	root string
}

// NewStore creates a blob store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("blob root: %w", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating blob root: %w", err)
	}
	return &Store{root: dir}, nil
}

// Root returns the root directory.
func (s *Store) Root() string {
	return s.root
}

// WriteNew writes data at path without replacing anything already there.
func (s *Store) WriteNew(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o700); err != nil {
		return fmt.Errorf("creating blob directory: %w", err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return domain.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("creating blob: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(full) //nolint:errcheck
		return fmt.Errorf("writing blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full) //nolint:errcheck
		return fmt.Errorf("closing blob: %w", err)
	}
	return nil
}

// Exists reports whether a blob is stored at path.
func (s *Store) Exists(_ context.Context, path string) (bool, error) {
	full, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking blob: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

// Open returns a reader for the blob at path.
func (s *Store) Open(_ context.Context, path string) (io.ReadCloser, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("opening blob: %w", err)
	}
	return f, nil
}

// LocalPath resolves path under the root.
func (s *Store) LocalPath(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}

// RemovePrefix deletes the blob or directory at prefix.
func (s *Store) RemovePrefix(_ context.Context, prefix string) error {
	full, err := s.resolve(prefix)
	if err != nil {
		return err
	}
	if full == filepath.Clean(s.root) {
		return fmt.Errorf("refusing to remove blob root: %w", domain.ErrInvalidInput)
	}
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("removing blobs: %w", err)
	}
	return nil
}

// resolve maps a blob path into the root, rejecting escapes.
func (s *Store) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if path == "" || filepath.IsAbs(clean) || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("blob path %q: %w", path, domain.ErrInvalidInput)
	}
	return filepath.Join(s.root, clean), nil
}
