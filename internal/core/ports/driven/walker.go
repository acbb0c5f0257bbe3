package driven

import (
	"context"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
)

// ArchiveWalker produces the messages of one archive in a deterministic order.
// It is consumed once; re-walking means opening a new walker.
type ArchiveWalker interface {
	// SourceType returns the container format being walked.
	SourceType() domain.SourceType

	// Next returns the next message. It returns io.EOF when the archive is
	// exhausted. A message that cannot be parsed is reported as an error
	// wrapping domain.ErrMessageParse; the following call moves on to the
	// next message.
	Next(ctx context.Context) (*domain.RawMessage, error)

	// Close releases the archive file.
	Close() error
}

// WalkerFactory opens walkers by archive extension.
type WalkerFactory interface {
	// Open returns a walker for path. It returns domain.ErrUnsupportedType
	// for unknown extensions and an error wrapping domain.ErrArchiveUnreadable
	// when the file cannot be opened as the expected format.
	Open(ctx context.Context, path string) (ArchiveWalker, error)

	// SupportedExtensions lists the accepted file extensions.
	SupportedExtensions() []string
}
