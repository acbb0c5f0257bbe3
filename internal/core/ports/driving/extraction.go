package driving

import (
	"context"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
)

// ExtractionService fills in attachment text after ingestion.
// Extraction failures never surface as errors; they leave the
// attachment pending for the next batch.
type ExtractionService interface {
	// ExtractPending attempts every attachment with text_extracted = false.
	ExtractPending(ctx context.Context) (*domain.ExtractionSummary, error)

	// ExtractOne attempts a single attachment. The error is only set for
	// lookups that fail (e.g. domain.ErrNotFound) or cancellation.
	ExtractOne(ctx context.Context, attachmentID string) (bool, error)
}
