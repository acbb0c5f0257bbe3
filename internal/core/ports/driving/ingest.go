package driving

import (
	"context"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
)

// IngestionService turns archive files into stored records.
type IngestionService interface {
	// Ingest walks one archive and returns the run summary.
	// Per-message failures are reported as counts. Only an unreadable
	// archive, an unsupported extension or cancellation return an error.
	Ingest(ctx context.Context, path string) (*domain.IngestSummary, error)

	// Status returns live progress for a mailbox being ingested, or the
	// stored counts once the run has finished.
	Status(ctx context.Context, mailboxID string) (*IngestStatus, error)

	// Active returns the IDs of mailboxes currently being walked.
	Active() []string
}

// IngestStatus represents the progress of an ingestion run.
type IngestStatus struct {
	MailboxID          string
	SourceName         string
	State              domain.RunState
	Total              int
	Processed          int
	Failed             int
	Skipped            int
	AttachmentsWritten int
}
