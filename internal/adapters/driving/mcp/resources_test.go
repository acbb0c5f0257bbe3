package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
)

func TestExtractMailboxID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid messages URI", "sercha-mail://mailboxes/mb-123/messages", "mb-123"},
		{"invalid prefix", "file://mailboxes/mb-123/messages", ""},
		{"missing messages suffix", "sercha-mail://mailboxes/mb-123", ""},
		{"empty URI", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractMailboxID(tt.uri))
		})
	}
}

func TestExtractAttachmentID(t *testing.T) {
	assert.Equal(t, "att-9", extractAttachmentID("sercha-mail://attachments/att-9"))
	assert.Equal(t, "", extractAttachmentID("sercha://attachments/att-9"))
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleMailboxesResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil mailbox service returns empty list", func(t *testing.T) {
		server, err := NewServer(requiredPorts())
		require.NoError(t, err)

		result, err := server.handleMailboxesResource(ctx, makeReadResourceRequest("sercha-mail://mailboxes"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns mailboxes", func(t *testing.T) {
		ports := requiredPorts()
		ports.Mailbox = &mockMailboxService{mailboxes: []domain.Mailbox{{
			ID:                    "mb-1",
			SourceName:            "export.pst",
			SourceType:            domain.SourceTypeBinaryStore,
			State:                 domain.RunStateCommitted,
			TotalMessageCount:     10,
			ProcessedMessageCount: 9,
		}}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		result, err := server.handleMailboxesResource(ctx, makeReadResourceRequest("sercha-mail://mailboxes"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, "mb-1")
		assert.Contains(t, result.Contents[0].Text, "export.pst")
		assert.Contains(t, result.Contents[0].Text, `"processed": 9`)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		ports := requiredPorts()
		ports.Mailbox = &mockMailboxService{err: errors.New("database error")}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, err = server.handleMailboxesResource(ctx, makeReadResourceRequest("sercha-mail://mailboxes"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing mailboxes")
	})
}

func TestServer_handleMessagesResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns messages", func(t *testing.T) {
		ports := requiredPorts()
		ports.Mailbox = &mockMailboxService{messages: []domain.Message{{ID: "msg-1", Subject: "Quarterly numbers"}}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		result, err := server.handleMessagesResource(ctx, makeReadResourceRequest("sercha-mail://mailboxes/mb-1/messages"))
		require.NoError(t, err)
		assert.Contains(t, result.Contents[0].Text, "Quarterly numbers")
	})

	t.Run("bad URI is not found", func(t *testing.T) {
		ports := requiredPorts()
		ports.Mailbox = &mockMailboxService{}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, err = server.handleMessagesResource(ctx, makeReadResourceRequest("sercha-mail://mailboxes/mb-1"))
		assert.Error(t, err)
	})

	t.Run("nil mailbox service is not found", func(t *testing.T) {
		server, err := NewServer(requiredPorts())
		require.NoError(t, err)

		_, err = server.handleMessagesResource(ctx, makeReadResourceRequest("sercha-mail://mailboxes/mb-1/messages"))
		assert.Error(t, err)
	})
}

func TestServer_handleAttachmentResource(t *testing.T) {
	ctx := context.Background()
	text := "Revenue grew 12%"

	t.Run("returns extracted text", func(t *testing.T) {
		ports := requiredPorts()
		ports.Mailbox = &mockMailboxService{attachment: &domain.Attachment{
			ID: "att-1", TextExtracted: true, TextContent: &text,
		}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		result, err := server.handleAttachmentResource(ctx, makeReadResourceRequest("sercha-mail://attachments/att-1"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
		assert.Equal(t, text, result.Contents[0].Text)
	})

	t.Run("pending attachment is not found", func(t *testing.T) {
		ports := requiredPorts()
		ports.Mailbox = &mockMailboxService{attachment: &domain.Attachment{ID: "att-2"}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, err = server.handleAttachmentResource(ctx, makeReadResourceRequest("sercha-mail://attachments/att-2"))
		assert.Error(t, err)
	})

	t.Run("lookup error is wrapped", func(t *testing.T) {
		ports := requiredPorts()
		ports.Mailbox = &mockMailboxService{err: domain.ErrNotFound}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, err = server.handleAttachmentResource(ctx, makeReadResourceRequest("sercha-mail://attachments/att-3"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
