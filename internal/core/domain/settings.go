package domain

import (
	"path/filepath"
	"time"
)

// Size limits from the deployment defaults.
const (
	DefaultMaxArchiveSize    int64 = 1 << 30
	DefaultMaxAttachmentSize int64 = 10 << 20
)

// StorageSettings holds on-disk locations.
type StorageSettings struct {
	// DataDir holds the record database.
	DataDir string

	// AttachmentRoot is the root of the attachment blob store.
	AttachmentRoot string
}

// IngestSettings holds archive ingestion limits.
type IngestSettings struct {
	// UploadDir is scanned and watched for new archives.
	UploadDir string

	// MaxArchiveSize rejects larger archives before ingestion. Zero disables the check.
	MaxArchiveSize int64

	// MaxAttachmentSize fails messages carrying larger attachments. Zero disables the check.
	MaxAttachmentSize int64

	// Dedup skips messages whose fingerprint is already stored.
	Dedup bool
}

// ExtractionSettings holds text extraction scheduling.
type ExtractionSettings struct {
	// RatePerSecond caps extractor invocations. Zero means unlimited.
	RatePerSecond float64

	// Burst is the limiter bucket size.
	Burst int

	// Interval is how often pending extraction runs in watch mode.
	Interval time.Duration

	// PlainText also extracts text/* attachments. Off by default: only
	// PDF and DOCX are extraction targets unless enabled.
	PlainText bool
}

// EventSettings holds event publishing configuration.
type EventSettings struct {
	// NATSURL is the server URL. Empty disables publishing.
	NATSURL string

	// Subject is the subject prefix for published events.
	Subject string
}

// IsConfigured returns true if publishing is enabled.
func (e EventSettings) IsConfigured() bool {
	return e.NATSURL != ""
}

// AppSettings holds all application settings.
type AppSettings struct {
	Storage    StorageSettings
	Ingest     IngestSettings
	Extraction ExtractionSettings
	Events     EventSettings
}

// DefaultAppSettings returns settings rooted at baseDir
// (normally ~/.sercha-mail).
func DefaultAppSettings(baseDir string) AppSettings {
	return AppSettings{
		Storage: StorageSettings{
			DataDir:        filepath.Join(baseDir, "data"),
			AttachmentRoot: filepath.Join(baseDir, "attachments"),
		},
		Ingest: IngestSettings{
			UploadDir:         filepath.Join(baseDir, "uploads"),
			MaxArchiveSize:    DefaultMaxArchiveSize,
			MaxAttachmentSize: DefaultMaxAttachmentSize,
			Dedup:             true,
		},
		Extraction: ExtractionSettings{
			RatePerSecond: 4,
			Burst:         4,
			Interval:      15 * time.Minute,
		},
		Events: EventSettings{
			Subject: "mail.ingest",
		},
	}
}
