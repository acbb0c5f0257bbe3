package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driving"
)

// mockIngestService is a mock implementation of driving.IngestionService.
type mockIngestService struct {
	summary *domain.IngestSummary
	err     error
	path    string
}

func (m *mockIngestService) Ingest(_ context.Context, path string) (*domain.IngestSummary, error) {
	m.path = path
	return m.summary, m.err
}

func (m *mockIngestService) Status(_ context.Context, _ string) (*driving.IngestStatus, error) {
	return nil, domain.ErrNotFound
}

func (m *mockIngestService) Active() []string { return nil }

// mockExtractionService is a mock implementation of driving.ExtractionService.
type mockExtractionService struct {
	summary *domain.ExtractionSummary
	ok      bool
	err     error
}

func (m *mockExtractionService) ExtractPending(_ context.Context) (*domain.ExtractionSummary, error) {
	return m.summary, m.err
}

func (m *mockExtractionService) ExtractOne(_ context.Context, _ string) (bool, error) {
	return m.ok, m.err
}

// mockMailboxService is a mock implementation of driving.MailboxService.
type mockMailboxService struct {
	mailboxes  []domain.Mailbox
	messages   []domain.Message
	attachment *domain.Attachment
	err        error
}

func (m *mockMailboxService) List(_ context.Context) ([]domain.Mailbox, error) {
	return m.mailboxes, m.err
}

func (m *mockMailboxService) Get(_ context.Context, _ string) (*domain.Mailbox, error) {
	if len(m.mailboxes) == 0 {
		return nil, domain.ErrNotFound
	}
	return &m.mailboxes[0], m.err
}

func (m *mockMailboxService) Delete(_ context.Context, _ string) error { return m.err }

func (m *mockMailboxService) Messages(_ context.Context, _ string) ([]domain.Message, error) {
	return m.messages, m.err
}

func (m *mockMailboxService) Message(_ context.Context, _ string) (*domain.Message, error) {
	if len(m.messages) == 0 {
		return nil, domain.ErrNotFound
	}
	return &m.messages[0], m.err
}

func (m *mockMailboxService) Attachments(_ context.Context, _ string) ([]domain.Attachment, error) {
	if m.attachment == nil {
		return nil, m.err
	}
	return []domain.Attachment{*m.attachment}, m.err
}

func (m *mockMailboxService) Attachment(_ context.Context, _ string) (*domain.Attachment, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.attachment == nil {
		return nil, domain.ErrNotFound
	}
	return m.attachment, nil
}

func (m *mockMailboxService) Organizations(_ context.Context) ([]domain.Organization, error) {
	return nil, m.err
}

func (m *mockMailboxService) Contacts(_ context.Context) ([]domain.Contact, error) {
	return nil, m.err
}

var (
	_ driving.IngestionService  = (*mockIngestService)(nil)
	_ driving.ExtractionService = (*mockExtractionService)(nil)
	_ driving.MailboxService    = (*mockMailboxService)(nil)
)

func requiredPorts() *Ports {
	return &Ports{
		Ingest:     &mockIngestService{},
		Extraction: &mockExtractionService{},
	}
}
