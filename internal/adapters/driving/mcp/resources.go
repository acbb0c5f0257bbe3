package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	uriScheme = "sercha-mail://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "mailboxes",
		Name:        "mailboxes",
		Description: "Ingested mailboxes with their message counts",
		MIMEType:    "application/json",
	}, s.handleMailboxesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "mailboxes/{mailboxId}/messages",
		Name:        "mailbox-messages",
		Description: "Messages stored for a mailbox",
		MIMEType:    "application/json",
	}, s.handleMessagesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "attachments/{attachmentId}",
		Name:        "attachment-text",
		Description: "Extracted text of an attachment",
		MIMEType:    "text/plain",
	}, s.handleAttachmentResource)
}

func (s *Server) handleMailboxesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Mailbox == nil {
		return jsonResult(req.Params.URI, "[]"), nil
	}

	mailboxes, err := s.ports.Mailbox.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing mailboxes: %w", err)
	}

	type mailboxInfo struct {
		ID         string    `json:"id"`
		SourceName string    `json:"source_name"`
		SourceType string    `json:"source_type"`
		State      string    `json:"state"`
		Total      int       `json:"total"`
		Processed  int       `json:"processed"`
		Failed     int       `json:"failed"`
		Skipped    int       `json:"skipped"`
		LastRun    time.Time `json:"last_processed_at"`
	}

	infos := make([]mailboxInfo, len(mailboxes))
	for i := range mailboxes {
		mb := &mailboxes[i]
		infos[i] = mailboxInfo{
			ID:         mb.ID,
			SourceName: mb.SourceName,
			SourceType: mb.SourceType.String(),
			State:      string(mb.State),
			Total:      mb.TotalMessageCount,
			Processed:  mb.ProcessedMessageCount,
			Failed:     mb.FailedMessageCount,
			Skipped:    mb.SkippedMessageCount,
			LastRun:    mb.LastProcessedAt,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling mailboxes: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

func (s *Server) handleMessagesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Mailbox == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	mailboxID := extractMailboxID(req.Params.URI)
	if mailboxID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	msgs, err := s.ports.Mailbox.Messages(ctx, mailboxID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	type messageInfo struct {
		ID         string    `json:"id"`
		Subject    string    `json:"subject"`
		SenderID   string    `json:"sender_contact_id"`
		ReceivedAt time.Time `json:"received_at"`
	}

	infos := make([]messageInfo, len(msgs))
	for i := range msgs {
		infos[i] = messageInfo{
			ID:         msgs[i].ID,
			Subject:    msgs[i].Subject,
			SenderID:   msgs[i].SenderContactID,
			ReceivedAt: msgs[i].ReceivedAt,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling messages: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

func (s *Server) handleAttachmentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Mailbox == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	attachmentID := extractAttachmentID(req.Params.URI)
	if attachmentID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	att, err := s.ports.Mailbox.Attachment(ctx, attachmentID)
	if err != nil {
		return nil, fmt.Errorf("getting attachment: %w", err)
	}
	// Pending attachments have no text to serve yet.
	if !att.TextExtracted || att.TextContent == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     *att.TextContent,
		}},
	}, nil
}

func jsonResult(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}

// extractMailboxID extracts the ID from sercha-mail://mailboxes/{mailboxId}/messages.
func extractMailboxID(uri string) string {
	const prefix = uriScheme + "mailboxes/"
	const suffix = "/messages"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}

// extractAttachmentID extracts the ID from sercha-mail://attachments/{attachmentId}.
func extractAttachmentID(uri string) string {
	const prefix = uriScheme + "attachments/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
