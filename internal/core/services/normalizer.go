package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-mail/internal/logger"
)

// NormalizeResult is a message stored with all of its attachments.
type NormalizeResult struct {
	Message     *domain.Message
	Attachments []domain.Attachment
}

// MessageNormalizer converts walker records into stored messages.
type MessageNormalizer struct {
	identity  *IdentityResolver
	messages  driven.MessageStore
	persister *AttachmentPersister
	dedup     bool

	// inflight holds fingerprints between the dedup check and commit.
	mu       sync.Mutex
	inflight map[string]chan struct{}
}

// NewMessageNormalizer creates a normalizer. With dedup enabled, messages
// whose fingerprint is already stored are rejected with
// domain.ErrDuplicateMessage.
func NewMessageNormalizer(
	identity *IdentityResolver,
	messages driven.MessageStore,
	persister *AttachmentPersister,
	dedup bool,
) *MessageNormalizer {
	return &MessageNormalizer{
		identity:  identity,
		messages:  messages,
		persister: persister,
		dedup:     dedup,
		inflight:  make(map[string]chan struct{}),
	}
}

// Normalize stores raw as a message of mb. The message and its attachments
// form one transaction: on any failure nothing is committed and the files
// already written for the message are removed.
func (n *MessageNormalizer) Normalize(
	ctx context.Context,
	raw *domain.RawMessage,
	mb *domain.Mailbox,
) (*NormalizeResult, error) {
	if raw == nil || mb == nil {
		return nil, domain.ErrInvalidInput
	}

	fingerprint := raw.Fingerprint()
	if n.dedup {
		if err := n.claim(ctx, fingerprint); err != nil {
			return nil, err
		}
		defer n.release(fingerprint)

		seen, err := n.messages.HasFingerprint(ctx, fingerprint)
		if err != nil {
			return nil, fmt.Errorf("check fingerprint: %w", err)
		}
		if seen {
			return nil, domain.ErrDuplicateMessage
		}
	}

	sender, err := n.identity.ResolveSender(ctx, raw.From)
	if err != nil {
		return nil, fmt.Errorf("resolve sender: %w", err)
	}

	msg := &domain.Message{
		ID:                uuid.New().String(),
		MailboxID:         mb.ID,
		Subject:           raw.Subject,
		SenderContactID:   sender.ID,
		OrganizationID:    copyID(sender.OrganizationID),
		ReceivedAt:        raw.ReceivedAt,
		BodyText:          raw.Body,
		Importance:        domain.ImportanceNormal,
		InternetMessageID: raw.InternetMessageID,
		Fingerprint:       fingerprint,
		CreatedAt:         time.Now().UTC(),
	}

	tx, err := n.messages.BeginMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin message: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := tx.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	result := &NormalizeResult{
		Message:     msg,
		Attachments: make([]domain.Attachment, 0, len(raw.Attachments)),
	}
	for i := range raw.Attachments {
		att, err := n.persister.Persist(ctx, tx, msg.ID, &raw.Attachments[i])
		if err != nil {
			n.discard(ctx, msg.ID)
			return nil, fmt.Errorf("attachment %d: %w", i, err)
		}
		result.Attachments = append(result.Attachments, *att)
	}

	if err := tx.Commit(); err != nil {
		n.discard(ctx, msg.ID)
		return nil, fmt.Errorf("commit message: %w", err)
	}
	return result, nil
}

// claim waits until no other run in this process is storing a message
// with the same fingerprint.
func (n *MessageNormalizer) claim(ctx context.Context, fingerprint string) error {
	for {
		n.mu.Lock()
		busy, ok := n.inflight[fingerprint]
		if !ok {
			n.inflight[fingerprint] = make(chan struct{})
			n.mu.Unlock()
			return nil
		}
		n.mu.Unlock()

		select {
		case <-busy:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (n *MessageNormalizer) release(fingerprint string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if ch, ok := n.inflight[fingerprint]; ok {
		close(ch)
		delete(n.inflight, fingerprint)
	}
}

func (n *MessageNormalizer) discard(ctx context.Context, messageID string) {
	// Cleanup must run even when ctx was the cause of the failure.
	if err := n.persister.Discard(context.WithoutCancel(ctx), messageID); err != nil {
		logger.Warn("%v", err)
	}
}

func copyID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
