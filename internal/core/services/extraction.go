package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-mail/internal/logger"
)

// Ensure ExtractionService implements the interface.
var _ driving.ExtractionService = (*ExtractionService)(nil)

// ExtractionService fills in attachment text, independently of ingestion.
type ExtractionService struct {
	attachments driven.AttachmentStore
	blobs       driven.BlobStore
	registry    driven.ExtractorRegistry
	publisher   driven.EventPublisher
	limiter     *rate.Limiter
}

// NewExtractionService creates an extraction service. The publisher is
// optional. A non-positive RatePerSecond leaves extractor calls unthrottled.
func NewExtractionService(
	attachments driven.AttachmentStore,
	blobs driven.BlobStore,
	registry driven.ExtractorRegistry,
	publisher driven.EventPublisher,
	cfg domain.ExtractionSettings,
) *ExtractionService {
	s := &ExtractionService{
		attachments: attachments,
		blobs:       blobs,
		registry:    registry,
		publisher:   publisher,
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return s
}

// ExtractPending attempts every attachment that has no text yet.
// Failures are counted and left pending for the next call.
func (s *ExtractionService) ExtractPending(ctx context.Context) (*domain.ExtractionSummary, error) {
	pending, err := s.attachments.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending attachments: %w", err)
	}

	summary := &domain.ExtractionSummary{Total: len(pending)}
	logger.Section("Extract")
	logger.Info("%d attachments pending", len(pending))

	for i := range pending {
		ok, err := s.extract(ctx, &pending[i])
		if err != nil {
			// Only cancellation gets here; attempts so far stand.
			summary.Failed += summary.Total - summary.Success - summary.Failed
			return summary, err
		}
		if ok {
			summary.Success++
		} else {
			summary.Failed++
		}
	}

	logger.Info("Extraction complete: %d success, %d failed", summary.Success, summary.Failed)
	return summary, nil
}

// ExtractOne attempts a single attachment. Attachments that already have
// text are reported as successful without running the extractor again.
func (s *ExtractionService) ExtractOne(ctx context.Context, attachmentID string) (bool, error) {
	att, err := s.attachments.GetAttachment(ctx, attachmentID)
	if err != nil {
		return false, fmt.Errorf("get attachment: %w", err)
	}
	if att.TextExtracted {
		return true, nil
	}
	return s.extract(ctx, att)
}

// extract reports whether text was stored. The error is only set when
// ctx is done.
func (s *ExtractionService) extract(ctx context.Context, att *domain.Attachment) (bool, error) {
	extractor, err := s.registry.Select(att.ContentType, att.Filename)
	if err != nil {
		logger.Debug("attachment %s (%s): %v", att.ID, att.ContentType, err)
		return false, nil
	}

	exists, err := s.blobs.Exists(ctx, att.StoragePath)
	if err != nil || !exists {
		logger.Warn("attachment %s: file %s missing", att.ID, att.StoragePath)
		return false, nil
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return false, err
		}
	}

	text, err := extractor.Extract(ctx, s.blobs.LocalPath(att.StoragePath), att.ContentType)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		logger.Warn("attachment %s: %s: %v", att.ID, extractor.Name(), err)
		return false, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		logger.Warn("attachment %s: %v", att.ID, domain.ErrEmptyText)
		return false, nil
	}

	if err := s.attachments.MarkExtracted(ctx, att.ID, text); err != nil {
		logger.Warn("attachment %s: mark extracted: %v", att.ID, err)
		return false, nil
	}

	logger.Debug("attachment %s: extracted %d chars with %s", att.ID, len(text), extractor.Name())
	publishEvent(ctx, s.publisher, domain.Event{
		Type:         domain.EventAttachmentExtracted,
		AttachmentID: att.ID,
	})
	return true, nil
}
