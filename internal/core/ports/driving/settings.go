package driving

import "github.com/custodia-labs/sercha-mail/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns settings with defaults filled in for missing keys.
	Get() (*domain.AppSettings, error)

	// Save persists every setting.
	Save(settings *domain.AppSettings) error

	// Set validates and stores a single dot-notation key.
	Set(key, value string) error

	// Keys returns the settable keys in display order.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
