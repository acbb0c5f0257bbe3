package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
)

// messageStore implements driven.MessageStore.
type messageStore struct {
	store *Store
}

var (
	_ driven.MessageStore = (*messageStore)(nil)
	_ driven.MessageTx    = (*messageTx)(nil)
)

const messageColumns = `id, mailbox_id, subject, sender_contact_id, organization_id,
	received_at, body_text, importance, processed, internet_message_id,
	fingerprint, created_at`

type messageRow struct {
	ID                string         `db:"id"`
	MailboxID         string         `db:"mailbox_id"`
	Subject           string         `db:"subject"`
	SenderContactID   string         `db:"sender_contact_id"`
	OrganizationID    sql.NullString `db:"organization_id"`
	ReceivedAt        sql.NullString `db:"received_at"`
	BodyText          string         `db:"body_text"`
	Importance        string         `db:"importance"`
	Processed         bool           `db:"processed"`
	InternetMessageID string         `db:"internet_message_id"`
	Fingerprint       string         `db:"fingerprint"`
	CreatedAt         string         `db:"created_at"`
}

func (r messageRow) toDomain() domain.Message {
	return domain.Message{
		ID:                r.ID,
		MailboxID:         r.MailboxID,
		Subject:           r.Subject,
		SenderContactID:   r.SenderContactID,
		OrganizationID:    stringPtr(r.OrganizationID),
		ReceivedAt:        parseNullableTime(r.ReceivedAt),
		BodyText:          r.BodyText,
		Importance:        domain.Importance(r.Importance),
		Processed:         r.Processed,
		InternetMessageID: r.InternetMessageID,
		Fingerprint:       r.Fingerprint,
		CreatedAt:         parseTime(r.CreatedAt),
	}
}

// BeginMessage opens a database transaction scoped to one message.
func (s *messageStore) BeginMessage(ctx context.Context) (driven.MessageTx, error) {
	tx, err := s.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning message transaction: %w", err)
	}
	return &messageTx{tx: tx}, nil
}

// GetMessage retrieves a message by ID.
func (s *messageStore) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	var row messageRow
	err := s.store.db.GetContext(ctx, &row, `SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting message: %w", err)
	}
	msg := row.toDomain()
	return &msg, nil
}

// ListMessages returns the messages of a mailbox in ingestion order.
func (s *messageStore) ListMessages(ctx context.Context, mailboxID string) ([]domain.Message, error) {
	var rows []messageRow
	if err := s.store.db.SelectContext(ctx, &rows,
		`SELECT `+messageColumns+` FROM messages WHERE mailbox_id = ? ORDER BY seq`, mailboxID); err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	messages := make([]domain.Message, 0, len(rows))
	for _, r := range rows {
		messages = append(messages, r.toDomain())
	}
	return messages, nil
}

// HasFingerprint reports whether a message carries the fingerprint.
func (s *messageStore) HasFingerprint(ctx context.Context, fingerprint string) (bool, error) {
	if fingerprint == "" {
		return false, nil
	}
	var exists bool
	if err := s.store.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM messages WHERE fingerprint = ?)`, fingerprint); err != nil {
		return false, fmt.Errorf("checking fingerprint: %w", err)
	}
	return exists, nil
}

// messageTx implements driven.MessageTx on a database transaction.
type messageTx struct {
	tx *sqlx.Tx
}

func (t *messageTx) CreateMessage(ctx context.Context, msg *domain.Message) error {
	if msg == nil {
		return domain.ErrInvalidInput
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO messages (`+messageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.MailboxID, msg.Subject, msg.SenderContactID,
		nullStringPtr(msg.OrganizationID), formatNullableTime(msg.ReceivedAt),
		msg.BodyText, string(msg.Importance), boolToInt(msg.Processed),
		msg.InternetMessageID, msg.Fingerprint, formatTime(msg.CreatedAt))
	return mapWriteError(err, "creating message")
}

func (t *messageTx) CreateAttachment(ctx context.Context, att *domain.Attachment) error {
	if att == nil {
		return domain.ErrInvalidInput
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO attachments (`+attachmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, att.ID, att.MessageID, att.Filename, att.StoragePath, att.ContentType, att.Size,
		boolToInt(att.TextExtracted), nullStringPtr(att.TextContent), formatTime(att.CreatedAt))
	return mapWriteError(err, "creating attachment")
}

func (t *messageTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("committing message: %w", err)
	}
	return nil
}

func (t *messageTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rolling back message: %w", err)
	}
	return nil
}
