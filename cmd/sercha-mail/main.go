// Command sercha-mail ingests PST and MBOX mail archives.
package main

import (
	"os"
	"path/filepath"

	"github.com/custodia-labs/sercha-mail/internal/adapters/driven/archive"
	"github.com/custodia-labs/sercha-mail/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-mail/internal/adapters/driven/events"
	"github.com/custodia-labs/sercha-mail/internal/adapters/driven/storage/blob"
	"github.com/custodia-labs/sercha-mail/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-mail/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-mail/internal/core/services"
	"github.com/custodia-labs/sercha-mail/internal/extractors"
	"github.com/custodia-labs/sercha-mail/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	home, err := os.UserHomeDir()
	if err != nil {
		logger.Error("getting home directory: %v", err)
		return err
	}
	baseDir := filepath.Join(home, ".sercha-mail")

	configStore, err := file.NewConfigStore(baseDir)
	if err != nil {
		logger.Error("loading config: %v", err)
		return err
	}
	settingsService := services.NewSettingsService(configStore, baseDir)

	settings, err := settingsService.Get()
	if err != nil {
		logger.Error("reading settings: %v", err)
		return err
	}

	store, err := sqlite.NewStore(settings.Storage.DataDir)
	if err != nil {
		logger.Error("opening store: %v", err)
		return err
	}
	defer store.Close()

	blobs, err := blob.NewStore(settings.Storage.AttachmentRoot)
	if err != nil {
		logger.Error("opening attachment store: %v", err)
		return err
	}

	publisher := newPublisher(settings.Events)
	defer publisher.Close()

	identity := services.NewIdentityResolver(store.IdentityStore())
	persister := services.NewAttachmentPersister(blobs, settings.Ingest.MaxAttachmentSize)
	normalizer := services.NewMessageNormalizer(identity, store.MessageStore(), persister, settings.Ingest.Dedup)
	ingest := services.NewIngestionOrchestrator(
		archive.NewFactory(),
		store.MailboxStore(),
		normalizer,
		publisher,
		settings.Ingest.MaxArchiveSize,
	)
	extraction := services.NewExtractionService(
		store.AttachmentStore(),
		blobs,
		extractors.NewDefaultRegistry(settings.Extraction.PlainText),
		publisher,
		settings.Extraction,
	)
	inbox := services.NewInboxService(ingest, settings.Ingest.UploadDir)
	mailboxes := services.NewMailboxService(
		store.MailboxStore(),
		store.MessageStore(),
		store.AttachmentStore(),
		store.IdentityStore(),
		blobs,
	)

	schedulerConfig := domain.DefaultSchedulerConfig()
	schedulerConfig.TaskConfigs[domain.TaskIDAttachmentExtraction] = domain.TaskConfig{
		Enabled:  true,
		Interval: settings.Extraction.Interval,
	}
	scheduler := services.NewScheduler(schedulerConfig, store.SchedulerStore(), extraction, inbox)

	cli.SetVersion(version)
	cli.SetServices(&cli.Services{
		Ingest:     ingest,
		Extraction: extraction,
		Mailbox:    mailboxes,
		Settings:   settingsService,
		Inbox:      inbox,
		Scheduler:  scheduler,
	})

	return cli.Execute()
}

// newPublisher connects to NATS when configured. Connection failures fall
// back to discarding events.
func newPublisher(cfg domain.EventSettings) driven.EventPublisher {
	if !cfg.IsConfigured() {
		return events.Noop{}
	}
	pub, err := events.NewNATSPublisher(cfg.NATSURL, cfg.Subject)
	if err != nil {
		logger.Warn("event publishing disabled: %v", err)
		return events.Noop{}
	}
	return pub
}
