package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
)

// attachmentStore implements driven.AttachmentStore.
type attachmentStore struct {
	store *Store
}

var _ driven.AttachmentStore = (*attachmentStore)(nil)

const attachmentColumns = `id, message_id, filename, storage_path, content_type, size,
	text_extracted, text_content, created_at`

type attachmentRow struct {
	ID            string         `db:"id"`
	MessageID     string         `db:"message_id"`
	Filename      string         `db:"filename"`
	StoragePath   string         `db:"storage_path"`
	ContentType   string         `db:"content_type"`
	Size          int64          `db:"size"`
	TextExtracted bool           `db:"text_extracted"`
	TextContent   sql.NullString `db:"text_content"`
	CreatedAt     string         `db:"created_at"`
}

func (r attachmentRow) toDomain() domain.Attachment {
	return domain.Attachment{
		ID:            r.ID,
		MessageID:     r.MessageID,
		Filename:      r.Filename,
		StoragePath:   r.StoragePath,
		ContentType:   r.ContentType,
		Size:          r.Size,
		TextExtracted: r.TextExtracted,
		TextContent:   stringPtr(r.TextContent),
		CreatedAt:     parseTime(r.CreatedAt),
	}
}

// GetAttachment retrieves an attachment by ID.
func (s *attachmentStore) GetAttachment(ctx context.Context, id string) (*domain.Attachment, error) {
	var row attachmentRow
	err := s.store.db.GetContext(ctx, &row, `SELECT `+attachmentColumns+` FROM attachments WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting attachment: %w", err)
	}
	att := row.toDomain()
	return &att, nil
}

// ListAttachments returns the attachments of a message.
func (s *attachmentStore) ListAttachments(ctx context.Context, messageID string) ([]domain.Attachment, error) {
	return s.list(ctx, `SELECT `+attachmentColumns+` FROM attachments WHERE message_id = ? ORDER BY seq`, messageID)
}

// ListPending returns attachments still awaiting extraction.
func (s *attachmentStore) ListPending(ctx context.Context) ([]domain.Attachment, error) {
	return s.list(ctx, `SELECT `+attachmentColumns+` FROM attachments WHERE text_extracted = 0 ORDER BY seq`)
}

func (s *attachmentStore) list(ctx context.Context, query string, args ...any) ([]domain.Attachment, error) {
	var rows []attachmentRow
	if err := s.store.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing attachments: %w", err)
	}

	attachments := make([]domain.Attachment, 0, len(rows))
	for _, r := range rows {
		attachments = append(attachments, r.toDomain())
	}
	return attachments, nil
}

// MarkExtracted records extracted text for an attachment.
// Text and flag are written together so readers never see one without the other.
func (s *attachmentStore) MarkExtracted(ctx context.Context, id, text string) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE attachments SET text_content = ?, text_extracted = 1 WHERE id = ?
	`, text, id)
	if err != nil {
		return fmt.Errorf("marking attachment extracted: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
