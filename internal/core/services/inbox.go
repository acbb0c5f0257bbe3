package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-mail/internal/logger"
)

// Ensure InboxService implements the interface.
var _ driving.InboxService = (*InboxService)(nil)

// Subfolders of the upload folder that archives are moved into.
const (
	ProcessedDirName = "processed"
	FailedDirName    = "failed"
)

// InboxService ingests archives dropped into an upload folder.
type InboxService struct {
	ingest driving.IngestionService
	dir    string
}

// NewInboxService creates an inbox over dir.
func NewInboxService(ingest driving.IngestionService, dir string) *InboxService {
	return &InboxService{
		ingest: ingest,
		dir:    dir,
	}
}

// Dir returns the upload folder.
func (s *InboxService) Dir() string {
	return s.dir
}

// Pending lists supported archives directly inside the upload folder,
// sorted by name.
func (s *InboxService) Pending() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading upload folder: %w", err)
	}

	var paths []string //nolint:prealloc // most entries are filtered out
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, err := domain.SourceTypeForPath(entry.Name()); err != nil {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// IngestFile ingests path, then moves it to processed/ on success or to
// failed/ when the archive is unreadable or rejected. Archives already
// being ingested and interrupted runs are left in place.
func (s *InboxService) IngestFile(ctx context.Context, path string) (*domain.IngestSummary, error) {
	summary, err := s.ingest.Ingest(ctx, path)
	switch {
	case err == nil:
		s.file(path, ProcessedDirName)
	case errors.Is(err, domain.ErrArchiveUnreadable),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnsupportedType):
		s.file(path, FailedDirName)
	}
	return summary, err
}

// Scan ingests every pending archive. Errors from individual archives are
// joined; archives already in progress elsewhere are not errors.
func (s *InboxService) Scan(ctx context.Context) (int, error) {
	paths, err := s.Pending()
	if err != nil {
		return 0, err
	}

	var (
		ingested int
		errs     []error
	)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return ingested, err
		}
		if _, err := s.IngestFile(ctx, path); err != nil {
			if errors.Is(err, domain.ErrIngestInProgress) {
				continue
			}
			errs = append(errs, fmt.Errorf("ingest %s: %w", filepath.Base(path), err))
			continue
		}
		ingested++
	}
	return ingested, errors.Join(errs...)
}

// file moves path into a subfolder of the upload folder, keeping earlier
// archives with the same name.
func (s *InboxService) file(path, sub string) {
	destDir := filepath.Join(s.dir, sub)
	if err := os.MkdirAll(destDir, 0700); err != nil {
		logger.Warn("creating %s: %v", destDir, err)
		return
	}

	dest := filepath.Join(destDir, filepath.Base(path))
	if _, err := os.Stat(dest); err == nil {
		dest = filepath.Join(destDir, time.Now().UTC().Format("20060102T150405")+"-"+filepath.Base(path))
	}
	if err := os.Rename(path, dest); err != nil {
		logger.Warn("moving %s to %s: %v", path, sub, err)
		return
	}
	logger.Debug("Moved %s to %s", filepath.Base(path), dest)
}
