package mcp

import (
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Ingest walks archives into the record store.
	Ingest driving.IngestionService

	// Extraction fills in attachment text.
	Extraction driving.ExtractionService

	// Mailbox exposes stored records. Optional; resources are empty without it.
	Mailbox driving.MailboxService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ingest == nil {
		return ErrMissingIngestService
	}
	if p.Extraction == nil {
		return ErrMissingExtractionService
	}
	return nil
}
