package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-mail/internal/extractors/pdf"
)

var extractCmd = &cobra.Command{
	Use:   "extract [attachment-id]",
	Short: "Extract text from stored attachments",
	Long: `Extracts text from attachments that have none yet.
If an attachment ID is given, only that attachment is processed.
Attachments that fail stay pending and are retried on the next run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if extractionService == nil {
		return errors.New("extraction service not configured")
	}

	ctx := cmd.Context()
	styles := newOutputStyles(cmd.OutOrStdout())

	// PDFs stay pending until the tool is installed.
	if err := checkPDFTool(); err != nil {
		cmd.PrintErrf("%s %v\n%s\n\n", styles.Warning("warning:"), err, pdf.InstallInstructions())
	}

	if len(args) == 1 {
		ok, err := extractionService.ExtractOne(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to extract attachment: %w", err)
		}
		if !ok {
			cmd.Printf("%s no text extracted from %s\n", styles.Warning("warning:"), args[0])
			return nil
		}
		cmd.Printf("Extracted text from %s\n", args[0])
		return nil
	}

	summary, err := extractionService.ExtractPending(ctx)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if summary.Total == 0 {
		cmd.Println("No attachments pending extraction.")
		return nil
	}

	cmd.Printf("Processed %d attachments: %s, %s\n",
		summary.Total,
		styles.Success(fmt.Sprintf("%d extracted", summary.Success)),
		failedCount(styles, summary.Failed))
	return nil
}

// checkPDFTool is swapped in tests.
var checkPDFTool = pdf.CheckAvailable

func failedCount(styles *outputStyles, n int) string {
	text := fmt.Sprintf("%d failed", n)
	if n == 0 {
		return styles.Muted(text)
	}
	return styles.Failure(text)
}
