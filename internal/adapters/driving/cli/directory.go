package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var contactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Inspect resolved sender contacts",
}

var contactListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contacts",
	Args:  cobra.NoArgs,
	RunE:  runContactList,
}

var organizationCmd = &cobra.Command{
	Use:     "organization",
	Aliases: []string{"org"},
	Short:   "Inspect sender organisations",
}

var organizationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List organisations",
	Args:  cobra.NoArgs,
	RunE:  runOrganizationList,
}

func init() {
	contactCmd.AddCommand(contactListCmd)
	rootCmd.AddCommand(contactCmd)

	organizationCmd.AddCommand(organizationListCmd)
	rootCmd.AddCommand(organizationCmd)
}

func runContactList(cmd *cobra.Command, _ []string) error {
	if mailboxService == nil {
		return errors.New("mailbox service not configured")
	}

	contacts, err := mailboxService.Contacts(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list contacts: %w", err)
	}

	if len(contacts) == 0 {
		cmd.Println("No contacts found.")
		return nil
	}

	for i := range contacts {
		if contacts[i].Name != "" {
			cmd.Printf("  %s <%s>\n", contacts[i].Name, contacts[i].Email)
		} else {
			cmd.Printf("  %s\n", contacts[i].Email)
		}
	}
	cmd.Printf("\nTotal: %d contacts\n", len(contacts))
	return nil
}

func runOrganizationList(cmd *cobra.Command, _ []string) error {
	if mailboxService == nil {
		return errors.New("mailbox service not configured")
	}

	orgs, err := mailboxService.Organizations(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list organisations: %w", err)
	}

	if len(orgs) == 0 {
		cmd.Println("No organisations found.")
		return nil
	}

	for i := range orgs {
		cmd.Printf("  %-20s %s\n", orgs[i].Name, orgs[i].Domain)
	}
	cmd.Printf("\nTotal: %d organisations\n", len(orgs))
	return nil
}
