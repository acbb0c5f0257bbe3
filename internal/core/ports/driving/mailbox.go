package driving

import (
	"context"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
)

// MailboxService exposes read access to ingested records.
type MailboxService interface {
	// List returns all mailboxes, newest first.
	List(ctx context.Context) ([]domain.Mailbox, error)

	// Get retrieves a mailbox by ID.
	Get(ctx context.Context, id string) (*domain.Mailbox, error)

	// Delete removes a mailbox, its records and its attachment files.
	Delete(ctx context.Context, id string) error

	// Messages returns the messages of a mailbox.
	Messages(ctx context.Context, mailboxID string) ([]domain.Message, error)

	// Message retrieves a single message.
	Message(ctx context.Context, id string) (*domain.Message, error)

	// Attachments returns the attachments of a message.
	Attachments(ctx context.Context, messageID string) ([]domain.Attachment, error)

	// Attachment retrieves a single attachment.
	Attachment(ctx context.Context, id string) (*domain.Attachment, error)

	// Organizations returns every organization.
	Organizations(ctx context.Context) ([]domain.Organization, error)

	// Contacts returns every contact.
	Contacts(ctx context.Context) ([]domain.Contact, error)
}
