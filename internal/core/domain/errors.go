package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	// Stores return it when a uniqueness constraint (contact email,
	// organization domain, storage path) rejects a write.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an archive extension or attachment
	// content type that no walker or extractor handles.
	ErrUnsupportedType = errors.New("unsupported type")

	// Ingestion Errors.

	// ErrArchiveUnreadable indicates the archive could not be opened at all.
	// It is the only error that aborts an ingestion run.
	ErrArchiveUnreadable = errors.New("archive unreadable")

	// ErrMessageParse indicates a single message could not be parsed.
	ErrMessageParse = errors.New("message parse failure")

	// ErrAttachmentWrite indicates an attachment could not be stored.
	// The owning message is rolled back.
	ErrAttachmentWrite = errors.New("attachment write failure")

	// ErrDuplicateMessage indicates the message was already ingested.
	ErrDuplicateMessage = errors.New("duplicate message")

	// ErrIngestInProgress indicates the archive is already being ingested.
	ErrIngestInProgress = errors.New("ingest in progress")

	// Extraction Errors.

	// ErrExtraction indicates an extractor failed to produce text.
	ErrExtraction = errors.New("extraction failure")

	// ErrEmptyText indicates an extractor succeeded but found no text.
	ErrEmptyText = errors.New("no text extracted")
)
