package cli

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var mailboxCmd = &cobra.Command{
	Use:   "mailbox",
	Short: "Manage ingested mailboxes",
	Long:  `List, inspect, or delete mailboxes created by archive ingestion.`,
}

var mailboxListCmd = &cobra.Command{
	Use:   "list",
	Short: "List mailboxes",
	Args:  cobra.NoArgs,
	RunE:  runMailboxList,
}

var mailboxShowCmd = &cobra.Command{
	Use:   "show [mailbox-id]",
	Short: "Show mailbox run counts",
	Args:  cobra.ExactArgs(1),
	RunE:  runMailboxShow,
}

var mailboxMessagesCmd = &cobra.Command{
	Use:   "messages [mailbox-id]",
	Short: "List messages in a mailbox",
	Args:  cobra.ExactArgs(1),
	RunE:  runMailboxMessages,
}

var mailboxDeleteCmd = &cobra.Command{
	Use:   "delete [mailbox-id]",
	Short: "Delete a mailbox",
	Long: `Deletes a mailbox with its messages, attachments and attachment files.
Contacts and organisations are shared across mailboxes and are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: runMailboxDelete,
}

var messageCmd = &cobra.Command{
	Use:   "message",
	Short: "Inspect stored messages",
}

var messageShowCmd = &cobra.Command{
	Use:   "show [message-id]",
	Short: "Print a message with its body",
	Args:  cobra.ExactArgs(1),
	RunE:  runMessageShow,
}

func init() {
	mailboxCmd.AddCommand(mailboxListCmd)
	mailboxCmd.AddCommand(mailboxShowCmd)
	mailboxCmd.AddCommand(mailboxMessagesCmd)
	mailboxCmd.AddCommand(mailboxDeleteCmd)
	rootCmd.AddCommand(mailboxCmd)

	messageCmd.AddCommand(messageShowCmd)
	rootCmd.AddCommand(messageCmd)
}

func runMailboxList(cmd *cobra.Command, _ []string) error {
	if mailboxService == nil {
		return errors.New("mailbox service not configured")
	}

	mailboxes, err := mailboxService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list mailboxes: %w", err)
	}

	if len(mailboxes) == 0 {
		cmd.Println("No mailboxes found. Run 'sercha-mail ingest <archive>' to add one.")
		return nil
	}

	styles := newOutputStyles(cmd.OutOrStdout())
	cmd.Println(styles.Title("Mailboxes"))
	cmd.Println()
	for i := range mailboxes {
		mb := &mailboxes[i]
		cmd.Printf("  %s\n", mb.ID)
		cmd.Printf("    Source:   %s (%s)\n", mb.SourceName, mb.SourceType)
		cmd.Printf("    State:    %s\n", mb.State)
		cmd.Printf("    Messages: %d/%d stored\n", mb.ProcessedMessageCount, mb.TotalMessageCount)
		cmd.Printf("    %s\n", styles.Muted("ingested "+humanize.Time(mb.LastProcessedAt)))
		cmd.Println()
	}

	cmd.Printf("Total: %d mailboxes\n", len(mailboxes))
	return nil
}

func runMailboxShow(cmd *cobra.Command, args []string) error {
	if mailboxService == nil {
		return errors.New("mailbox service not configured")
	}

	mb, err := mailboxService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get mailbox: %w", err)
	}

	cmd.Printf("Mailbox: %s\n\n", mb.ID)
	cmd.Printf("  Source:     %s\n", mb.SourceName)
	cmd.Printf("  Format:     %s\n", mb.SourceType)
	cmd.Printf("  State:      %s\n", mb.State)
	cmd.Printf("  Total:      %d\n", mb.TotalMessageCount)
	cmd.Printf("  Processed:  %d\n", mb.ProcessedMessageCount)
	cmd.Printf("  Failed:     %d\n", mb.FailedMessageCount)
	cmd.Printf("  Duplicates: %d\n", mb.SkippedMessageCount)
	cmd.Printf("  Created:    %s\n", mb.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Last run:   %s\n", mb.LastProcessedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runMailboxMessages(cmd *cobra.Command, args []string) error {
	if mailboxService == nil {
		return errors.New("mailbox service not configured")
	}

	msgs, err := mailboxService.Messages(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list messages: %w", err)
	}

	if len(msgs) == 0 {
		cmd.Printf("No messages found for mailbox: %s\n", args[0])
		return nil
	}

	for i := range msgs {
		subject := msgs[i].Subject
		if subject == "" {
			subject = "(no subject)"
		}
		cmd.Printf("  %s  %s  %s\n", msgs[i].ID, msgs[i].ReceivedAt.Format("2006-01-02"), subject)
	}
	cmd.Printf("\nTotal: %d messages\n", len(msgs))
	return nil
}

func runMailboxDelete(cmd *cobra.Command, args []string) error {
	if mailboxService == nil {
		return errors.New("mailbox service not configured")
	}

	if err := mailboxService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete mailbox: %w", err)
	}

	cmd.Printf("Mailbox %s deleted.\n", args[0])
	return nil
}

func runMessageShow(cmd *cobra.Command, args []string) error {
	if mailboxService == nil {
		return errors.New("mailbox service not configured")
	}

	msg, err := mailboxService.Message(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get message: %w", err)
	}

	cmd.Printf("Message: %s\n\n", msg.ID)
	cmd.Printf("  Subject:    %s\n", msg.Subject)
	cmd.Printf("  Sender:     %s\n", msg.SenderContactID)
	if msg.OrganizationID != nil {
		cmd.Printf("  Org:        %s\n", *msg.OrganizationID)
	}
	cmd.Printf("  Received:   %s\n", msg.ReceivedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Importance: %s\n", msg.Importance)
	if msg.InternetMessageID != "" {
		cmd.Printf("  Message-ID: %s\n", msg.InternetMessageID)
	}
	cmd.Println()
	cmd.Println(msg.BodyText)
	return nil
}
