package driving

import (
	"context"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
)

// InboxService ingests archives dropped into the upload folder.
type InboxService interface {
	// Dir returns the watched upload folder.
	Dir() string

	// Pending lists archives in the upload folder awaiting ingestion.
	Pending() ([]string, error)

	// IngestFile ingests one archive and files it away as processed or failed.
	IngestFile(ctx context.Context, path string) (*domain.IngestSummary, error)

	// Scan ingests every pending archive and returns how many succeeded.
	Scan(ctx context.Context) (int, error)
}
