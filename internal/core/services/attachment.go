package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-mail/internal/logger"
)

const (
	defaultContentType = "application/octet-stream"

	// maxNameAttempts bounds the suffix search for clashing filenames.
	maxNameAttempts = 1000
)

// AttachmentPersister writes attachment payloads under a per-message
// directory and records their metadata. It never extracts text.
type AttachmentPersister struct {
	blobs   driven.BlobStore
	maxSize int64
}

// NewAttachmentPersister creates a persister. A maxSize of zero disables
// the size limit.
func NewAttachmentPersister(blobs driven.BlobStore, maxSize int64) *AttachmentPersister {
	return &AttachmentPersister{
		blobs:   blobs,
		maxSize: maxSize,
	}
}

// Persist stores raw as an attachment of messageID inside tx.
// The file is written before the record is created. Two attachments of
// the same message with the same filename get distinct paths.
func (p *AttachmentPersister) Persist(
	ctx context.Context,
	tx driven.MessageTx,
	messageID string,
	raw *domain.RawAttachment,
) (*domain.Attachment, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil attachment", domain.ErrInvalidInput)
	}
	size := int64(len(raw.Content))
	if p.maxSize > 0 && size > p.maxSize {
		return nil, fmt.Errorf("%w: %q is %d bytes, limit is %d",
			domain.ErrAttachmentWrite, raw.Filename, size, p.maxSize)
	}

	storagePath, err := p.writeUnique(ctx, messageID, SanitiseFilename(raw.Filename), raw.Content)
	if err != nil {
		return nil, err
	}

	contentType := strings.TrimSpace(raw.ContentType)
	if contentType == "" {
		contentType = defaultContentType
	}

	att := &domain.Attachment{
		ID:          uuid.New().String(),
		MessageID:   messageID,
		Filename:    raw.Filename,
		StoragePath: storagePath,
		ContentType: contentType,
		Size:        size,
		CreatedAt:   time.Now().UTC(),
	}
	if err := tx.CreateAttachment(ctx, att); err != nil {
		return nil, fmt.Errorf("%w: record %s: %w", domain.ErrAttachmentWrite, storagePath, err)
	}
	return att, nil
}

// Discard removes every file written for messageID.
func (p *AttachmentPersister) Discard(ctx context.Context, messageID string) error {
	if err := p.blobs.RemovePrefix(ctx, messageID); err != nil {
		return fmt.Errorf("discard attachments of %s: %w", messageID, err)
	}
	return nil
}

// writeUnique tries name, then "name (1).ext", "name (2).ext", ...
func (p *AttachmentPersister) writeUnique(ctx context.Context, messageID, name string, data []byte) (string, error) {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; i < maxNameAttempts; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		storagePath := path.Join(messageID, candidate)

		err := p.blobs.WriteNew(ctx, storagePath, data)
		if err == nil {
			if i > 0 {
				logger.Debug("Attachment name %q taken in %s, stored as %q", name, messageID, candidate)
			}
			return storagePath, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return "", fmt.Errorf("%w: write %s: %w", domain.ErrAttachmentWrite, storagePath, err)
		}
	}
	return "", fmt.Errorf("%w: no free name for %q in %s", domain.ErrAttachmentWrite, name, messageID)
}

// SanitiseFilename makes an attachment name safe to use as a single path
// element. Empty results fall back to "attachment".
func SanitiseFilename(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':':
			return '_'
		case r < 0x20 || r == 0x7f:
			return -1
		default:
			return r
		}
	}, name)
	name = strings.Trim(name, ". ")
	if name == "" {
		return "attachment"
	}
	return name
}
