package driven

import (
	"context"
	"io"
)

// BlobStore is a path-addressable byte store for attachment payloads.
// Paths are slash-separated and relative to the configured root.
type BlobStore interface {
	// WriteNew writes data at path. It returns domain.ErrAlreadyExists
	// if anything already lives there; existing content is never replaced.
	WriteNew(ctx context.Context, path string, data []byte) error

	// Exists reports whether a blob is stored at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Open returns a reader for the blob at path.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// LocalPath resolves path to a filesystem location for extractor plugins.
	LocalPath(path string) string

	// RemovePrefix deletes every blob under prefix.
	RemovePrefix(ctx context.Context, prefix string) error
}
