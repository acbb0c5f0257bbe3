// Package cli provides the sercha-mail command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-mail/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-mail/internal/logger"
)

var version = "dev"

// Services set by the composition root before Execute.
var (
	ingestService     driving.IngestionService
	extractionService driving.ExtractionService
	mailboxService    driving.MailboxService
	settingsService   driving.SettingsService
	inboxService      driving.InboxService
	scheduler         driving.Scheduler
)

// verbose enables debug logging for every command.
var verbose bool

var rootCmd = &cobra.Command{
	Use:   "sercha-mail",
	Short: "Ingest PST and MBOX mail archives",
	Long: `sercha-mail ingests PST and MBOX mail archives into a local store.

Each archive becomes a mailbox of normalised messages. Senders are resolved
to contacts and organisations, attachments are written to disk and their
text is extracted in the background.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Services groups the driving ports the CLI dispatches to.
type Services struct {
	Ingest     driving.IngestionService
	Extraction driving.ExtractionService
	Mailbox    driving.MailboxService
	Settings   driving.SettingsService
	Inbox      driving.InboxService
	Scheduler  driving.Scheduler
}

// SetServices injects the application services.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	ingestService = s.Ingest
	extractionService = s.Extraction
	mailboxService = s.Mailbox
	settingsService = s.Settings
	inboxService = s.Inbox
	scheduler = s.Scheduler
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
