package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
)

// mailboxStore implements driven.MailboxStore.
type mailboxStore struct {
	store *Store
}

var _ driven.MailboxStore = (*mailboxStore)(nil)

const mailboxColumns = `id, source_name, source_type, state, last_processed_at,
	total_message_count, processed_message_count, failed_message_count,
	skipped_message_count, created_at`

type mailboxRow struct {
	ID                    string         `db:"id"`
	SourceName            string         `db:"source_name"`
	SourceType            string         `db:"source_type"`
	State                 string         `db:"state"`
	LastProcessedAt       sql.NullString `db:"last_processed_at"`
	TotalMessageCount     int            `db:"total_message_count"`
	ProcessedMessageCount int            `db:"processed_message_count"`
	FailedMessageCount    int            `db:"failed_message_count"`
	SkippedMessageCount   int            `db:"skipped_message_count"`
	CreatedAt             string         `db:"created_at"`
}

func (r mailboxRow) toDomain() domain.Mailbox {
	return domain.Mailbox{
		ID:                    r.ID,
		SourceName:            r.SourceName,
		SourceType:            domain.SourceType(r.SourceType),
		State:                 domain.RunState(r.State),
		LastProcessedAt:       parseNullableTime(r.LastProcessedAt),
		TotalMessageCount:     r.TotalMessageCount,
		ProcessedMessageCount: r.ProcessedMessageCount,
		FailedMessageCount:    r.FailedMessageCount,
		SkippedMessageCount:   r.SkippedMessageCount,
		CreatedAt:             parseTime(r.CreatedAt),
	}
}

// CreateMailbox inserts a new mailbox.
func (s *mailboxStore) CreateMailbox(ctx context.Context, mb *domain.Mailbox) error {
	if mb == nil {
		return domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO mailboxes (`+mailboxColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, mb.ID, mb.SourceName, string(mb.SourceType), string(mb.State),
		formatNullableTime(mb.LastProcessedAt),
		mb.TotalMessageCount, mb.ProcessedMessageCount, mb.FailedMessageCount,
		mb.SkippedMessageCount, formatTime(mb.CreatedAt))
	return mapWriteError(err, "creating mailbox")
}

// UpdateMailbox writes state, counts and last_processed_at in one statement.
func (s *mailboxStore) UpdateMailbox(ctx context.Context, mb *domain.Mailbox) error {
	if mb == nil {
		return domain.ErrInvalidInput
	}
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE mailboxes SET
			state = ?,
			last_processed_at = ?,
			total_message_count = ?,
			processed_message_count = ?,
			failed_message_count = ?,
			skipped_message_count = ?
		WHERE id = ?
	`, string(mb.State), formatNullableTime(mb.LastProcessedAt),
		mb.TotalMessageCount, mb.ProcessedMessageCount, mb.FailedMessageCount,
		mb.SkippedMessageCount, mb.ID)
	if err != nil {
		return fmt.Errorf("updating mailbox: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetMailbox retrieves a mailbox by ID.
func (s *mailboxStore) GetMailbox(ctx context.Context, id string) (*domain.Mailbox, error) {
	var row mailboxRow
	err := s.store.db.GetContext(ctx, &row, `SELECT `+mailboxColumns+` FROM mailboxes WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting mailbox: %w", err)
	}
	mb := row.toDomain()
	return &mb, nil
}

// ListMailboxes returns all mailboxes, newest first.
func (s *mailboxStore) ListMailboxes(ctx context.Context) ([]domain.Mailbox, error) {
	var rows []mailboxRow
	if err := s.store.db.SelectContext(ctx, &rows,
		`SELECT `+mailboxColumns+` FROM mailboxes ORDER BY created_at DESC, rowid DESC`); err != nil {
		return nil, fmt.Errorf("listing mailboxes: %w", err)
	}

	mailboxes := make([]domain.Mailbox, 0, len(rows))
	for _, r := range rows {
		mailboxes = append(mailboxes, r.toDomain())
	}
	return mailboxes, nil
}

// DeleteMailbox removes a mailbox. Messages and attachments cascade.
func (s *mailboxStore) DeleteMailbox(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM mailboxes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting mailbox: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
