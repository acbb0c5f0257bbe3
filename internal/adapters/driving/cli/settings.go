package cli

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change storage locations, ingest limits, extraction
scheduling and event publishing.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting",
	Long: `Change a single setting. Run 'sercha-mail settings keys' to list
the available keys.

Examples:
  sercha-mail settings set ingest.max_attachment_size 20971520
  sercha-mail settings set extraction.interval 30m
  sercha-mail settings set events.nats_url nats://localhost:4222`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Data dir:        %s\n", settings.Storage.DataDir)
	cmd.Printf("  Attachment root: %s\n", settings.Storage.AttachmentRoot)
	cmd.Println()

	cmd.Println("[Ingest]")
	cmd.Printf("  Upload dir:          %s\n", settings.Ingest.UploadDir)
	cmd.Printf("  Max archive size:    %s\n", sizeLimit(settings.Ingest.MaxArchiveSize))
	cmd.Printf("  Max attachment size: %s\n", sizeLimit(settings.Ingest.MaxAttachmentSize))
	cmd.Printf("  Skip duplicates:     %t\n", settings.Ingest.Dedup)
	cmd.Println()

	cmd.Println("[Extraction]")
	if settings.Extraction.RatePerSecond > 0 {
		cmd.Printf("  Rate:     %g/s (burst %d)\n", settings.Extraction.RatePerSecond, settings.Extraction.Burst)
	} else {
		cmd.Println("  Rate:     unlimited")
	}
	cmd.Printf("  Interval: %s\n", settings.Extraction.Interval)
	cmd.Printf("  Plain text: %t\n", settings.Extraction.PlainText)
	cmd.Println()

	cmd.Println("[Events]")
	if settings.Events.IsConfigured() {
		cmd.Printf("  NATS URL: %s\n", maskURL(settings.Events.NATSURL))
		cmd.Printf("  Subject:  %s\n", settings.Events.Subject)
	} else {
		cmd.Println("  Publishing disabled")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}

	cmd.Printf("Set %s\n", args[0])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

// sizeLimit formats a byte limit, where zero means no limit.
func sizeLimit(n int64) string {
	if n <= 0 {
		return "unlimited"
	}
	return humanize.IBytes(uint64(n))
}

// maskURL hides the password of a URL with credentials.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}
