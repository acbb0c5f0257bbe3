package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// IngestInput is the input schema for the ingest_archive tool.
type IngestInput struct {
	Path string `json:"path" jsonschema:"absolute path of a .pst or .mbox archive"`
}

// IngestOutput is the output schema for the ingest_archive tool.
type IngestOutput struct {
	MailboxID          string `json:"mailbox_id"`
	Total              int    `json:"total"`
	Processed          int    `json:"processed"`
	Failed             int    `json:"failed"`
	Skipped            int    `json:"skipped"`
	AttachmentsWritten int    `json:"attachments_written"`
}

// ExtractPendingInput is the input schema for the extract_pending tool.
type ExtractPendingInput struct{}

// ExtractPendingOutput is the output schema for the extract_pending tool.
type ExtractPendingOutput struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Total   int `json:"total"`
}

// ExtractAttachmentInput is the input schema for the extract_attachment tool.
type ExtractAttachmentInput struct {
	AttachmentID string `json:"attachment_id" jsonschema:"ID of the attachment to extract text from"`
}

// ExtractAttachmentOutput is the output schema for the extract_attachment tool.
type ExtractAttachmentOutput struct {
	AttachmentID string `json:"attachment_id"`
	Extracted    bool   `json:"extracted"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_archive",
		Description: "Ingest a PST or MBOX mail archive into a new mailbox",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "extract_pending",
		Description: "Extract text from every attachment that has none yet",
	}, s.handleExtractPending)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "extract_attachment",
		Description: "Extract text from a single attachment",
	}, s.handleExtractAttachment)
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	path := strings.TrimSpace(input.Path)
	if path == "" {
		return nil, IngestOutput{}, errors.New("path is required")
	}

	summary, err := s.ports.Ingest.Ingest(ctx, path)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		MailboxID:          summary.MailboxID,
		Total:              summary.Total,
		Processed:          summary.Processed,
		Failed:             summary.Failed,
		Skipped:            summary.Skipped,
		AttachmentsWritten: summary.AttachmentsWritten,
	}, nil
}

func (s *Server) handleExtractPending(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ExtractPendingInput,
) (*mcp.CallToolResult, ExtractPendingOutput, error) {
	summary, err := s.ports.Extraction.ExtractPending(ctx)
	if err != nil {
		return nil, ExtractPendingOutput{}, err
	}
	return nil, ExtractPendingOutput{
		Success: summary.Success,
		Failed:  summary.Failed,
		Total:   summary.Total,
	}, nil
}

func (s *Server) handleExtractAttachment(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExtractAttachmentInput,
) (*mcp.CallToolResult, ExtractAttachmentOutput, error) {
	if input.AttachmentID == "" {
		return nil, ExtractAttachmentOutput{}, errors.New("attachment_id is required")
	}

	ok, err := s.ports.Extraction.ExtractOne(ctx, input.AttachmentID)
	if err != nil {
		return nil, ExtractAttachmentOutput{}, err
	}
	return nil, ExtractAttachmentOutput{
		AttachmentID: input.AttachmentID,
		Extracted:    ok,
	}, nil
}
