package domain

import "time"

// Attachment is a stored attachment payload owned by exactly one Message.
type Attachment struct {
	// ID is the unique identifier.
	ID string

	// MessageID is the owning message.
	MessageID string

	// Filename is the name as it appeared in the message.
	Filename string

	// StoragePath is the blob path relative to the attachment root.
	// Unique and immutable once written.
	StoragePath string

	// ContentType is the declared or inferred MIME type.
	ContentType string

	// Size is the payload length in bytes.
	Size int64

	// TextExtracted is false until extraction succeeds.
	TextExtracted bool

	// TextContent is nil until extraction succeeds.
	TextContent *string

	// CreatedAt is when the attachment was stored.
	CreatedAt time.Time
}
