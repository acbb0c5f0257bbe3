package domain

import "time"

// EventType names an ingestion lifecycle event.
type EventType string

const (
	// EventMailboxCommitted is emitted after a mailbox reaches RunStateCommitted.
	EventMailboxCommitted EventType = "mailbox.committed"

	// EventMailboxFailed is emitted when an archive cannot be read.
	EventMailboxFailed EventType = "mailbox.failed"

	// EventAttachmentExtracted is emitted after text extraction succeeds.
	EventAttachmentExtracted EventType = "attachment.extracted"
)

// Event is published to downstream consumers.
type Event struct {
	// ID is unique per event and used for publish dedup.
	ID string `json:"id"`

	Type         EventType `json:"type"`
	MailboxID    string    `json:"mailbox_id,omitempty"`
	AttachmentID string    `json:"attachment_id,omitempty"`

	// Summary is set for mailbox events.
	Summary *IngestSummary `json:"summary,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}
