package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driving"
)

// Ensure MailboxService implements the interface.
var _ driving.MailboxService = (*MailboxService)(nil)

// MailboxService provides read access to ingested records.
type MailboxService struct {
	mailboxes   driven.MailboxStore
	messages    driven.MessageStore
	attachments driven.AttachmentStore
	identities  driven.IdentityStore
	blobs       driven.BlobStore
}

// NewMailboxService creates a new mailbox service.
func NewMailboxService(
	mailboxes driven.MailboxStore,
	messages driven.MessageStore,
	attachments driven.AttachmentStore,
	identities driven.IdentityStore,
	blobs driven.BlobStore,
) *MailboxService {
	return &MailboxService{
		mailboxes:   mailboxes,
		messages:    messages,
		attachments: attachments,
		identities:  identities,
		blobs:       blobs,
	}
}

// List returns all mailboxes.
func (s *MailboxService) List(ctx context.Context) ([]domain.Mailbox, error) {
	return s.mailboxes.ListMailboxes(ctx)
}

// Get retrieves a mailbox by ID.
func (s *MailboxService) Get(ctx context.Context, id string) (*domain.Mailbox, error) {
	return s.mailboxes.GetMailbox(ctx, id)
}

// Delete removes a mailbox with its messages, attachments and files.
// Contacts and organizations are kept.
func (s *MailboxService) Delete(ctx context.Context, id string) error {
	if _, err := s.mailboxes.GetMailbox(ctx, id); err != nil {
		return err
	}

	msgs, err := s.messages.ListMessages(ctx, id)
	if err != nil {
		return fmt.Errorf("list messages: %w", err)
	}

	if err := s.mailboxes.DeleteMailbox(ctx, id); err != nil {
		return fmt.Errorf("delete mailbox: %w", err)
	}

	for i := range msgs {
		if err := s.blobs.RemovePrefix(ctx, msgs[i].ID); err != nil {
			return fmt.Errorf("remove attachments of %s: %w", msgs[i].ID, err)
		}
	}
	return nil
}

// Messages returns the messages of a mailbox.
func (s *MailboxService) Messages(ctx context.Context, mailboxID string) ([]domain.Message, error) {
	return s.messages.ListMessages(ctx, mailboxID)
}

// Message retrieves a message by ID.
func (s *MailboxService) Message(ctx context.Context, id string) (*domain.Message, error) {
	return s.messages.GetMessage(ctx, id)
}

// Attachments returns the attachments of a message.
func (s *MailboxService) Attachments(ctx context.Context, messageID string) ([]domain.Attachment, error) {
	return s.attachments.ListAttachments(ctx, messageID)
}

// Attachment retrieves an attachment by ID.
func (s *MailboxService) Attachment(ctx context.Context, id string) (*domain.Attachment, error) {
	return s.attachments.GetAttachment(ctx, id)
}

// Organizations returns every organization.
func (s *MailboxService) Organizations(ctx context.Context) ([]domain.Organization, error) {
	return s.identities.ListOrganizations(ctx)
}

// Contacts returns every contact.
func (s *MailboxService) Contacts(ctx context.Context) ([]domain.Contact, error) {
	return s.identities.ListContacts(ctx)
}
