package cli

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var attachmentCmd = &cobra.Command{
	Use:   "attachment",
	Short: "Inspect stored attachments",
}

var attachmentListCmd = &cobra.Command{
	Use:   "list [message-id]",
	Short: "List attachments of a message",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttachmentList,
}

var attachmentShowCmd = &cobra.Command{
	Use:   "show [attachment-id]",
	Short: "Show attachment details and extracted text",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttachmentShow,
}

func init() {
	attachmentCmd.AddCommand(attachmentListCmd)
	attachmentCmd.AddCommand(attachmentShowCmd)
	rootCmd.AddCommand(attachmentCmd)
}

func runAttachmentList(cmd *cobra.Command, args []string) error {
	if mailboxService == nil {
		return errors.New("mailbox service not configured")
	}

	atts, err := mailboxService.Attachments(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list attachments: %w", err)
	}

	if len(atts) == 0 {
		cmd.Printf("No attachments found for message: %s\n", args[0])
		return nil
	}

	styles := newOutputStyles(cmd.OutOrStdout())
	for i := range atts {
		state := styles.Muted("pending")
		if atts[i].TextExtracted {
			state = styles.Success("extracted")
		}
		cmd.Printf("  %s  %-30s %8s  %s\n",
			atts[i].ID, atts[i].Filename, humanize.Bytes(uint64(atts[i].Size)), state) //nolint:gosec // sizes are non-negative
	}
	return nil
}

func runAttachmentShow(cmd *cobra.Command, args []string) error {
	if mailboxService == nil {
		return errors.New("mailbox service not configured")
	}

	att, err := mailboxService.Attachment(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get attachment: %w", err)
	}

	cmd.Printf("Attachment: %s\n\n", att.ID)
	cmd.Printf("  Filename: %s\n", att.Filename)
	cmd.Printf("  Type:     %s\n", att.ContentType)
	cmd.Printf("  Size:     %s\n", humanize.Bytes(uint64(att.Size))) //nolint:gosec // sizes are non-negative
	cmd.Printf("  Path:     %s\n", att.StoragePath)
	cmd.Printf("  Message:  %s\n", att.MessageID)

	if !att.TextExtracted || att.TextContent == nil {
		cmd.Println("\n  Text not extracted yet.")
		return nil
	}
	cmd.Println()
	cmd.Println(*att.TextContent)
	return nil
}
