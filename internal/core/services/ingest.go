package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-mail/internal/logger"
)

// Ensure IngestionOrchestrator implements the interface.
var _ driving.IngestionService = (*IngestionOrchestrator)(nil)

// IngestionOrchestrator drives walker, normalizer and persister over one
// archive per call. Runs for different archives may proceed concurrently.
type IngestionOrchestrator struct {
	walkers        driven.WalkerFactory
	mailboxes      driven.MailboxStore
	normalizer     *MessageNormalizer
	publisher      driven.EventPublisher
	maxArchiveSize int64

	mu          sync.RWMutex
	active      map[string]*driving.IngestStatus
	activePaths map[string]string
}

// NewIngestionOrchestrator creates an orchestrator. The publisher is
// optional. A maxArchiveSize of zero disables the size check.
func NewIngestionOrchestrator(
	walkers driven.WalkerFactory,
	mailboxes driven.MailboxStore,
	normalizer *MessageNormalizer,
	publisher driven.EventPublisher,
	maxArchiveSize int64,
) *IngestionOrchestrator {
	return &IngestionOrchestrator{
		walkers:        walkers,
		mailboxes:      mailboxes,
		normalizer:     normalizer,
		publisher:      publisher,
		maxArchiveSize: maxArchiveSize,
		active:         make(map[string]*driving.IngestStatus),
		activePaths:    make(map[string]string),
	}
}

// Ingest walks the archive at path.
//
//nolint:gocyclo // Run state machine with per-message outcome accounting
func (o *IngestionOrchestrator) Ingest(ctx context.Context, path string) (*domain.IngestSummary, error) {
	sourceType, err := domain.SourceTypeForPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, filepath.Ext(path))
	}
	if err := o.checkArchive(path); err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	// Created
	now := time.Now().UTC()
	mb := &domain.Mailbox{
		ID:              uuid.New().String(),
		SourceName:      filepath.Base(path),
		SourceType:      sourceType,
		State:           domain.RunStateCreated,
		LastProcessedAt: now,
		CreatedAt:       now,
	}
	if err := o.claim(absPath, mb); err != nil {
		return nil, err
	}
	defer o.release(absPath, mb.ID)

	if err := o.mailboxes.CreateMailbox(ctx, mb); err != nil {
		return nil, fmt.Errorf("create mailbox: %w", err)
	}

	logger.Section("Ingest " + mb.SourceName)
	logger.Info("Mailbox %s (%s)", mb.ID, sourceType)

	walker, err := o.walkers.Open(ctx, path)
	if err != nil {
		o.fail(ctx, mb)
		if !errors.Is(err, domain.ErrArchiveUnreadable) {
			err = fmt.Errorf("%w: %w", domain.ErrArchiveUnreadable, err)
		}
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer walker.Close()

	// Walking
	mb.State = domain.RunStateWalking
	if err := o.mailboxes.UpdateMailbox(ctx, mb); err != nil {
		o.fail(ctx, mb)
		return nil, fmt.Errorf("update mailbox: %w", err)
	}
	o.setState(mb.ID, domain.RunStateWalking)

	summary := &domain.IngestSummary{MailboxID: mb.ID}
	runErr := o.walk(ctx, walker, mb, summary)

	// Committed, including after cancellation: records stored so far stand.
	mb.State = domain.RunStateCommitted
	mb.LastProcessedAt = time.Now().UTC()
	mb.TotalMessageCount = summary.Total
	mb.ProcessedMessageCount = summary.Processed
	mb.FailedMessageCount = summary.Failed
	mb.SkippedMessageCount = summary.Skipped
	if err := o.mailboxes.UpdateMailbox(context.WithoutCancel(ctx), mb); err != nil {
		return summary, fmt.Errorf("commit mailbox: %w", err)
	}
	o.setState(mb.ID, domain.RunStateCommitted)

	logger.Info("Ingest complete: %d total, %d processed, %d failed, %d skipped, %d attachments",
		summary.Total, summary.Processed, summary.Failed, summary.Skipped, summary.AttachmentsWritten)

	if runErr != nil {
		return summary, runErr
	}

	publishEvent(ctx, o.publisher, domain.Event{
		Type:      domain.EventMailboxCommitted,
		MailboxID: mb.ID,
		Summary:   summary,
	})
	return summary, nil
}

// walk consumes the walker until it is exhausted or ctx is cancelled.
// Only cancellation is returned as an error.
func (o *IngestionOrchestrator) walk(
	ctx context.Context,
	walker driven.ArchiveWalker,
	mb *domain.Mailbox,
	summary *domain.IngestSummary,
) error {
	for {
		if err := ctx.Err(); err != nil {
			logger.Warn("Ingest of %s interrupted after %d messages", mb.SourceName, summary.Total)
			return err
		}

		raw, err := walker.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}

		summary.Total++
		index := summary.Total - 1

		if err != nil {
			summary.Failed++
			logger.Warn("message %d: %v", index, err)
			o.updateStatus(mb.ID, summary)
			if !errors.Is(err, domain.ErrMessageParse) {
				// The stream itself is broken; nothing further can be read.
				return nil
			}
			continue
		}

		result, err := o.normalizer.Normalize(ctx, raw, mb)
		switch {
		case err == nil:
			summary.Processed++
			summary.AttachmentsWritten += len(result.Attachments)
		case errors.Is(err, domain.ErrDuplicateMessage):
			summary.Skipped++
			logger.Debug("message %d: already ingested, skipping", index)
		default:
			summary.Failed++
			logger.Warn("message %d (%q): %v", index, raw.Subject, err)
		}
		o.updateStatus(mb.ID, summary)
	}
}

// Status returns live progress, or stored counts for finished runs.
func (o *IngestionOrchestrator) Status(ctx context.Context, mailboxID string) (*driving.IngestStatus, error) {
	o.mu.RLock()
	if status, ok := o.active[mailboxID]; ok {
		// Return a copy to avoid race conditions
		cp := *status
		o.mu.RUnlock()
		return &cp, nil
	}
	o.mu.RUnlock()

	mb, err := o.mailboxes.GetMailbox(ctx, mailboxID)
	if err != nil {
		return nil, fmt.Errorf("get mailbox: %w", err)
	}
	return &driving.IngestStatus{
		MailboxID:  mb.ID,
		SourceName: mb.SourceName,
		State:      mb.State,
		Total:      mb.TotalMessageCount,
		Processed:  mb.ProcessedMessageCount,
		Failed:     mb.FailedMessageCount,
		Skipped:    mb.SkippedMessageCount,
	}, nil
}

// Active returns the IDs of mailboxes currently being ingested.
func (o *IngestionOrchestrator) Active() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	ids := make([]string, 0, len(o.active))
	for id := range o.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// checkArchive rejects missing, directory and oversized archives
// before any mailbox is created.
func (o *IngestionOrchestrator) checkArchive(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrArchiveUnreadable, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", domain.ErrArchiveUnreadable, path)
	}
	if o.maxArchiveSize > 0 && info.Size() > o.maxArchiveSize {
		return fmt.Errorf("%w: archive is %d bytes, limit is %d",
			domain.ErrInvalidInput, info.Size(), o.maxArchiveSize)
	}
	return nil
}

// fail discards the mailbox of a run that could not start walking.
func (o *IngestionOrchestrator) fail(ctx context.Context, mb *domain.Mailbox) {
	mb.State = domain.RunStateFailed
	o.setState(mb.ID, domain.RunStateFailed)

	if err := o.mailboxes.DeleteMailbox(context.WithoutCancel(ctx), mb.ID); err != nil {
		logger.Warn("delete failed mailbox %s: %v", mb.ID, err)
	}
	publishEvent(ctx, o.publisher, domain.Event{
		Type:      domain.EventMailboxFailed,
		MailboxID: mb.ID,
	})
}

func (o *IngestionOrchestrator) claim(absPath string, mb *domain.Mailbox) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if id, busy := o.activePaths[absPath]; busy {
		return fmt.Errorf("%w: %s (mailbox %s)", domain.ErrIngestInProgress, absPath, id)
	}
	o.activePaths[absPath] = mb.ID
	o.active[mb.ID] = &driving.IngestStatus{
		MailboxID:  mb.ID,
		SourceName: mb.SourceName,
		State:      domain.RunStateCreated,
	}
	return nil
}

func (o *IngestionOrchestrator) release(absPath, mailboxID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.activePaths, absPath)
	delete(o.active, mailboxID)
}

func (o *IngestionOrchestrator) setState(mailboxID string, state domain.RunState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if status, ok := o.active[mailboxID]; ok {
		status.State = state
	}
}

func (o *IngestionOrchestrator) updateStatus(mailboxID string, summary *domain.IngestSummary) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if status, ok := o.active[mailboxID]; ok {
		status.Total = summary.Total
		status.Processed = summary.Processed
		status.Failed = summary.Failed
		status.Skipped = summary.Skipped
		status.AttachmentsWritten = summary.AttachmentsWritten
	}
}
