package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyDataDir           = "storage.data_dir"
	keyAttachmentRoot    = "storage.attachment_root"
	keyUploadDir         = "ingest.upload_dir"
	keyMaxArchiveSize    = "ingest.max_archive_size"
	keyMaxAttachmentSize = "ingest.max_attachment_size"
	keyDedup             = "ingest.dedup"
	keyExtractRate       = "extraction.rate_per_second"
	keyExtractBurst      = "extraction.burst"
	keyExtractInterval   = "extraction.interval"
	keyExtractPlainText  = "extraction.plain_text"
	keyNATSURL           = "events.nats_url"
	keyEventSubject      = "events.subject"
)

// settingKeys is the display order for Keys.
var settingKeys = []string{
	keyDataDir, keyAttachmentRoot,
	keyUploadDir, keyMaxArchiveSize, keyMaxAttachmentSize, keyDedup,
	keyExtractRate, keyExtractBurst, keyExtractInterval, keyExtractPlainText,
	keyNATSURL, keyEventSubject,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	baseDir     string
}

// NewSettingsService creates a settings service. Default paths are
// rooted at baseDir.
func NewSettingsService(configStore driven.ConfigStore, baseDir string) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		baseDir:     baseDir,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := s.GetDefaults()

	settings := &domain.AppSettings{
		Storage: domain.StorageSettings{
			DataDir:        s.getString(keyDataDir, defaults.Storage.DataDir),
			AttachmentRoot: s.getString(keyAttachmentRoot, defaults.Storage.AttachmentRoot),
		},
		Ingest: domain.IngestSettings{
			UploadDir:         s.getString(keyUploadDir, defaults.Ingest.UploadDir),
			MaxArchiveSize:    s.getInt64(keyMaxArchiveSize, defaults.Ingest.MaxArchiveSize),
			MaxAttachmentSize: s.getInt64(keyMaxAttachmentSize, defaults.Ingest.MaxAttachmentSize),
			Dedup:             s.getBool(keyDedup, defaults.Ingest.Dedup),
		},
		Extraction: domain.ExtractionSettings{
			RatePerSecond: s.getFloat(keyExtractRate, defaults.Extraction.RatePerSecond),
			Burst:         s.getInt(keyExtractBurst, defaults.Extraction.Burst),
			Interval:      s.getDuration(keyExtractInterval, defaults.Extraction.Interval),
			PlainText:     s.getBool(keyExtractPlainText, defaults.Extraction.PlainText),
		},
		Events: domain.EventSettings{
			NATSURL: s.configStore.GetString(keyNATSURL), // No default - empty disables events
			Subject: s.getString(keyEventSubject, defaults.Events.Subject),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := map[string]any{
		keyDataDir:           settings.Storage.DataDir,
		keyAttachmentRoot:    settings.Storage.AttachmentRoot,
		keyUploadDir:         settings.Ingest.UploadDir,
		keyMaxArchiveSize:    settings.Ingest.MaxArchiveSize,
		keyMaxAttachmentSize: settings.Ingest.MaxAttachmentSize,
		keyDedup:             settings.Ingest.Dedup,
		keyExtractRate:       settings.Extraction.RatePerSecond,
		keyExtractBurst:      int64(settings.Extraction.Burst),
		keyExtractInterval:   settings.Extraction.Interval.String(),
		keyExtractPlainText:  settings.Extraction.PlainText,
		keyNATSURL:           settings.Events.NATSURL,
		keyEventSubject:      settings.Events.Subject,
	}
	for _, key := range settingKeys {
		if err := s.configStore.Set(key, values[key]); err != nil {
			return fmt.Errorf("saving %s: %w", key, err)
		}
	}
	return nil
}

// Set parses value according to the key's type and stores it.
func (s *SettingsService) Set(key, value string) error {
	value = strings.TrimSpace(value)

	var parsed any
	switch key {
	case keyDataDir, keyAttachmentRoot, keyUploadDir, keyNATSURL, keyEventSubject:
		parsed = value
	case keyMaxArchiveSize, keyMaxAttachmentSize:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative byte count", domain.ErrInvalidInput, key)
		}
		parsed = n
	case keyExtractBurst:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 1 {
			return fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case keyDedup, keyExtractPlainText:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		parsed = b
	case keyExtractRate:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case keyExtractInterval:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %s must be a positive duration like 15m", domain.ErrInvalidInput, key)
		}
		parsed = d.String()
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	return s.configStore.Set(key, parsed)
}

// Keys returns the settable keys in display order.
func (s *SettingsService) Keys() []string {
	out := make([]string, len(settingKeys))
	copy(out, settingKeys)
	return out
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings(s.baseDir)
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt64(key string, defaultVal int64) int64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt64(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(s.configStore.GetString(key))
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
