// Package archive selects the walker for an archive file by extension.
package archive

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-mail/internal/adapters/driven/archive/mbox"
	"github.com/custodia-labs/sercha-mail/internal/adapters/driven/archive/pst"
	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.WalkerFactory = (*Factory)(nil)

// Factory opens binary-store and text-store walkers.
type Factory struct{}

// NewFactory creates a walker factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Open returns the walker for path. Unknown extensions are rejected
// with domain.ErrUnsupportedType before the file is touched.
func (f *Factory) Open(ctx context.Context, path string) (driven.ArchiveWalker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sourceType, err := domain.SourceTypeForPath(path)
	if err != nil {
		return nil, err
	}

	switch sourceType {
	case domain.SourceTypeBinaryStore:
		w, err := pst.Open(path)
		if err != nil {
			return nil, err
		}
		return w, nil
	case domain.SourceTypeTextStore:
		w, err := mbox.Open(path)
		if err != nil {
			return nil, err
		}
		return w, nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, sourceType)
	}
}

// SupportedExtensions lists the recognised archive extensions.
func (f *Factory) SupportedExtensions() []string {
	return []string{".pst", ".mbox"}
}
