// Package watcher ingests archives as they land in the upload folder.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-mail/internal/logger"
)

// DefaultSettle is how long an archive must stay unchanged before it is
// ingested. Copies of large archives emit many write events.
const DefaultSettle = 2 * time.Second

// Watcher hands new archives in the upload folder to the inbox.
type Watcher struct {
	inbox  driving.InboxService
	settle time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
	wg     sync.WaitGroup
}

// New creates a watcher over the inbox's upload folder.
func New(inbox driving.InboxService, settle time.Duration) *Watcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{
		inbox:  inbox,
		settle: settle,
		timers: make(map[string]*time.Timer),
	}
}

// Run watches until ctx is cancelled, then waits for running ingests.
// The upload folder is created if missing.
func (w *Watcher) Run(ctx context.Context) error {
	dir := w.inbox.Dir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating upload folder: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	logger.Info("Watching %s for archives", dir)

	defer w.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				logger.Warn("watch overflow, rescanning %s", dir)
				w.rescan(ctx)
				continue
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// handleEvent schedules an ingest for created or written archives.
// Reports whether the event was accepted.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	if !isCandidate(event.Name) {
		return false
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return false
	}
	w.schedule(ctx, event.Name)
	return true
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	if t, ok := w.timers[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.timers[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.timers, path)
		if w.closed {
			w.mu.Unlock()
			return
		}
		w.wg.Add(1)
		w.mu.Unlock()

		defer w.wg.Done()
		w.ingest(ctx, path)
	})
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	summary, err := w.inbox.IngestFile(ctx, path)
	if err != nil {
		logger.Warn("%s: %v", filepath.Base(path), err)
		return
	}
	logger.Info("%s: mailbox %s, %d/%d messages stored",
		filepath.Base(path), summary.MailboxID, summary.Processed, summary.Total)
}

// rescan schedules every archive currently in the folder.
func (w *Watcher) rescan(ctx context.Context) {
	paths, err := w.inbox.Pending()
	if err != nil {
		logger.Warn("rescan: %v", err)
		return
	}
	for _, p := range paths {
		w.schedule(ctx, p)
	}
}

// Pending returns the number of archives waiting to settle.
func (w *Watcher) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.timers)
}

func (w *Watcher) shutdown() {
	w.mu.Lock()
	w.closed = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func isCandidate(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	_, err := domain.SourceTypeForPath(name)
	return err == nil
}
