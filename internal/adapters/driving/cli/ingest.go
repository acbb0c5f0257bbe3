package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driving"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <archive>...",
	Short: "Ingest PST or MBOX archives",
	Long: `Ingests one or more mail archives. Each archive becomes a new mailbox.

Messages that fail to parse are counted and skipped; the rest of the
archive is still ingested. An archive that cannot be opened at all
leaves no mailbox behind.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

// extractAfterIngest runs pending text extraction once all archives are in.
var extractAfterIngest bool

func init() {
	ingestCmd.Flags().BoolVarP(&extractAfterIngest, "extract", "e", false, "Extract attachment text after ingesting")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	styles := newOutputStyles(cmd.OutOrStdout())

	var failures int
	for _, path := range args {
		cmd.Printf("Ingesting %s...\n", path)

		summary, err := ingestWithProgress(ctx, cmd, path, styles.enabled)
		if err != nil {
			failures++
			cmd.Printf("  %s %v\n", styles.Failure("failed:"), err)
			if errors.Is(err, context.Canceled) {
				break
			}
			continue
		}
		printIngestSummary(cmd, styles, summary)
	}

	if extractAfterIngest && extractionService != nil && failures < len(args) {
		summary, err := extractionService.ExtractPending(ctx)
		if err != nil {
			return fmt.Errorf("extraction failed: %w", err)
		}
		cmd.Printf("Extracted text from %d of %d attachments.\n", summary.Success, summary.Total)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d archives failed", failures, len(args))
	}
	return nil
}

// ingestWithProgress runs an ingest while redrawing live counts on a
// terminal.
func ingestWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	path string,
	interactive bool,
) (*domain.IngestSummary, error) {
	if !interactive {
		return ingestService.Ingest(ctx, path)
	}

	type result struct {
		summary *domain.IngestSummary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		s, err := ingestService.Ingest(ctx, path)
		done <- result{s, err}
	}()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	name := filepath.Base(path)
	for {
		select {
		case r := <-done:
			cmd.Print("\r\033[K")
			return r.summary, r.err
		case <-ticker.C:
			if status := activeStatus(ctx, name); status != nil {
				cmd.Printf("\r\033[K  %d messages (%d failed, %d skipped)",
					status.Total, status.Failed, status.Skipped)
			}
		}
	}
}

// activeStatus finds the in-flight run for an archive by file name.
func activeStatus(ctx context.Context, sourceName string) *driving.IngestStatus {
	for _, id := range ingestService.Active() {
		status, err := ingestService.Status(ctx, id)
		if err == nil && status.SourceName == sourceName {
			return status
		}
	}
	return nil
}

func printIngestSummary(cmd *cobra.Command, styles *outputStyles, s *domain.IngestSummary) {
	outcome := styles.Success("done")
	if s.Failed > 0 {
		outcome = styles.Warning("done with failures")
	}
	cmd.Printf("  Mailbox %s %s\n", s.MailboxID, outcome)
	cmd.Printf("    Messages:    %s total, %s stored, %d failed, %d duplicates\n",
		humanize.Comma(int64(s.Total)), humanize.Comma(int64(s.Processed)), s.Failed, s.Skipped)
	cmd.Printf("    Attachments: %s written\n", humanize.Comma(int64(s.AttachmentsWritten)))
}
