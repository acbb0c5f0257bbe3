package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// SourceType identifies the archive container format.
type SourceType string

const (
	// SourceTypeBinaryStore is the hierarchical binary mailbox format (.pst).
	SourceTypeBinaryStore SourceType = "pst"

	// SourceTypeTextStore is the flat text mailbox format (.mbox).
	SourceTypeTextStore SourceType = "mbox"
)

// SourceTypeForPath maps an archive file extension to its source type.
// The match is case-insensitive. Returns ErrUnsupportedType for any
// other extension.
func SourceTypeForPath(path string) (SourceType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pst":
		return SourceTypeBinaryStore, nil
	case ".mbox":
		return SourceTypeTextStore, nil
	default:
		return "", ErrUnsupportedType
	}
}

// IsValid returns true if the source type is recognised.
func (t SourceType) IsValid() bool {
	return t == SourceTypeBinaryStore || t == SourceTypeTextStore
}

// String returns the string representation.
func (t SourceType) String() string {
	return string(t)
}

// RunState tracks a mailbox through an ingestion run.
type RunState string

const (
	// RunStateCreated is set when the mailbox row is first inserted.
	RunStateCreated RunState = "created"

	// RunStateWalking is set while messages are being normalised.
	RunStateWalking RunState = "walking"

	// RunStateCommitted is terminal: final counts have been written.
	RunStateCommitted RunState = "committed"

	// RunStateFailed is terminal: the archive could not be read.
	RunStateFailed RunState = "failed"
)

// IsTerminal reports whether no further transitions are allowed.
func (s RunState) IsTerminal() bool {
	return s == RunStateCommitted || s == RunStateFailed
}

// Mailbox is one archive ingestion batch.
type Mailbox struct {
	// ID is the unique identifier.
	ID string

	// SourceName is the archive file name.
	SourceName string

	// SourceType is the archive container format.
	SourceType SourceType

	// State is the ingestion run state.
	State RunState

	// LastProcessedAt is when the run started or last committed.
	LastProcessedAt time.Time

	// TotalMessageCount counts every message the walker yielded,
	// including failed and skipped ones.
	TotalMessageCount int

	// ProcessedMessageCount counts messages stored successfully.
	// Always <= TotalMessageCount.
	ProcessedMessageCount int

	// FailedMessageCount counts messages that could not be stored.
	FailedMessageCount int

	// SkippedMessageCount counts duplicates of already ingested messages.
	SkippedMessageCount int

	// CreatedAt is when the mailbox was created.
	CreatedAt time.Time
}
