// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants ingest mail archives, trigger attachment text
// extraction and read the stored mailboxes.
package mcp

import "errors"

var (
	// ErrMissingIngestService is returned when the ingestion service is not provided.
	ErrMissingIngestService = errors.New("mcp: ingestion service is required")

	// ErrMissingExtractionService is returned when the extraction service is not provided.
	ErrMissingExtractionService = errors.New("mcp: extraction service is required")
)
