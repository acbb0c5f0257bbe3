package domain

import "time"

// Importance is the message priority.
type Importance string

// ImportanceNormal is assigned to every ingested message.
// Archive formats expose no reliable importance signal.
const ImportanceNormal Importance = "normal"

// Message is a normalised email owned by exactly one Mailbox.
type Message struct {
	// ID is the unique identifier.
	ID string

	// MailboxID is the owning mailbox.
	MailboxID string

	// Subject is the message subject.
	Subject string

	// SenderContactID always resolves to an existing Contact.
	SenderContactID string

	// OrganizationID is copied from the sender at creation time.
	OrganizationID *string

	// ReceivedAt is the delivery or Date header time.
	ReceivedAt time.Time

	// BodyText is the plain-text body.
	BodyText string

	// Importance is always ImportanceNormal for archive ingestion.
	Importance Importance

	// Processed marks messages handled by downstream analysis.
	Processed bool

	// InternetMessageID is the Message-ID header, when present.
	InternetMessageID string

	// Fingerprint is the dedup key for re-ingestion.
	Fingerprint string

	// CreatedAt is when the message was stored.
	CreatedAt time.Time
}
