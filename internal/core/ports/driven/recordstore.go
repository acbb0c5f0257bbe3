package driven

import (
	"context"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
)

// IdentityStore persists organizations and contacts.
// Implementations must enforce unique Organization.Domain and Contact.Email,
// returning domain.ErrAlreadyExists on conflict.
type IdentityStore interface {
	// GetOrganizationByDomain returns domain.ErrNotFound if absent.
	GetOrganizationByDomain(ctx context.Context, d string) (*domain.Organization, error)

	// CreateOrganization inserts a new organization.
	CreateOrganization(ctx context.Context, org *domain.Organization) error

	// ListOrganizations returns all organizations ordered by domain.
	ListOrganizations(ctx context.Context) ([]domain.Organization, error)

	// GetContact retrieves a contact by ID.
	GetContact(ctx context.Context, id string) (*domain.Contact, error)

	// GetContactByEmail returns domain.ErrNotFound if absent.
	// The email is matched case-insensitively.
	GetContactByEmail(ctx context.Context, email string) (*domain.Contact, error)

	// CreateContact inserts a new contact.
	CreateContact(ctx context.Context, contact *domain.Contact) error

	// ListContacts returns all contacts ordered by email.
	ListContacts(ctx context.Context) ([]domain.Contact, error)
}

// MailboxStore persists ingestion batches.
type MailboxStore interface {
	// CreateMailbox inserts a new mailbox.
	CreateMailbox(ctx context.Context, mb *domain.Mailbox) error

	// UpdateMailbox writes state, counts and last_processed_at in one update.
	UpdateMailbox(ctx context.Context, mb *domain.Mailbox) error

	// GetMailbox retrieves a mailbox by ID.
	GetMailbox(ctx context.Context, id string) (*domain.Mailbox, error)

	// ListMailboxes returns all mailboxes, newest first.
	ListMailboxes(ctx context.Context) ([]domain.Mailbox, error)

	// DeleteMailbox removes a mailbox and everything it owns.
	DeleteMailbox(ctx context.Context, id string) error
}

// MessageStore persists messages.
type MessageStore interface {
	// BeginMessage opens the atomic unit covering one message and its attachments.
	BeginMessage(ctx context.Context) (MessageTx, error)

	// GetMessage retrieves a message by ID.
	GetMessage(ctx context.Context, id string) (*domain.Message, error)

	// ListMessages returns the messages of a mailbox in ingestion order.
	ListMessages(ctx context.Context, mailboxID string) ([]domain.Message, error)

	// HasFingerprint reports whether a message with this dedup key exists.
	HasFingerprint(ctx context.Context, fingerprint string) (bool, error)
}

// MessageTx is a scoped per-message transaction.
// Nothing written through it is visible until Commit. Rollback after
// Commit is a no-op so callers can always defer it.
type MessageTx interface {
	// CreateMessage inserts the message row.
	CreateMessage(ctx context.Context, msg *domain.Message) error

	// CreateAttachment inserts an attachment row for a message created in this tx.
	CreateAttachment(ctx context.Context, att *domain.Attachment) error

	// Commit makes the message and its attachments visible.
	Commit() error

	// Rollback discards everything written in this tx.
	Rollback() error
}

// AttachmentStore reads attachment metadata and records extraction results.
type AttachmentStore interface {
	// GetAttachment retrieves an attachment by ID.
	GetAttachment(ctx context.Context, id string) (*domain.Attachment, error)

	// ListAttachments returns the attachments of a message.
	ListAttachments(ctx context.Context, messageID string) ([]domain.Attachment, error)

	// ListPending returns all attachments with text_extracted = false.
	ListPending(ctx context.Context) ([]domain.Attachment, error)

	// MarkExtracted sets text_content and text_extracted = true in one update.
	MarkExtracted(ctx context.Context, id, text string) error
}
