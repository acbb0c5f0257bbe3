package cli

import (
	"bytes"
	"context"
	"sync"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driving"
)

type mockIngestService struct {
	mu        sync.Mutex
	summaries map[string]*domain.IngestSummary
	errs      map[string]error
	paths     []string
}

func (m *mockIngestService) Ingest(_ context.Context, path string) (*domain.IngestSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, path)
	if err := m.errs[path]; err != nil {
		return nil, err
	}
	if s, ok := m.summaries[path]; ok {
		return s, nil
	}
	return &domain.IngestSummary{MailboxID: "mb-default"}, nil
}

func (m *mockIngestService) Status(_ context.Context, _ string) (*driving.IngestStatus, error) {
	return nil, domain.ErrNotFound
}

func (m *mockIngestService) Active() []string { return nil }

type mockExtractionService struct {
	summary  *domain.ExtractionSummary
	ok       bool
	err      error
	pendings int
	lastID   string
}

func (m *mockExtractionService) ExtractPending(_ context.Context) (*domain.ExtractionSummary, error) {
	m.pendings++
	if m.err != nil {
		return nil, m.err
	}
	if m.summary == nil {
		return &domain.ExtractionSummary{}, nil
	}
	return m.summary, nil
}

func (m *mockExtractionService) ExtractOne(_ context.Context, id string) (bool, error) {
	m.lastID = id
	return m.ok, m.err
}

type mockMailboxService struct {
	mailboxes     []domain.Mailbox
	messages      []domain.Message
	attachments   []domain.Attachment
	contacts      []domain.Contact
	organizations []domain.Organization
	err           error
	deleted       string
}

func (m *mockMailboxService) List(_ context.Context) ([]domain.Mailbox, error) {
	return m.mailboxes, m.err
}

func (m *mockMailboxService) Get(_ context.Context, id string) (*domain.Mailbox, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.mailboxes {
		if m.mailboxes[i].ID == id {
			return &m.mailboxes[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockMailboxService) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = id
	return nil
}

func (m *mockMailboxService) Messages(_ context.Context, _ string) ([]domain.Message, error) {
	return m.messages, m.err
}

func (m *mockMailboxService) Message(_ context.Context, id string) (*domain.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.messages {
		if m.messages[i].ID == id {
			return &m.messages[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockMailboxService) Attachments(_ context.Context, _ string) ([]domain.Attachment, error) {
	return m.attachments, m.err
}

func (m *mockMailboxService) Attachment(_ context.Context, id string) (*domain.Attachment, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.attachments {
		if m.attachments[i].ID == id {
			return &m.attachments[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockMailboxService) Organizations(_ context.Context) ([]domain.Organization, error) {
	return m.organizations, m.err
}

func (m *mockMailboxService) Contacts(_ context.Context) ([]domain.Contact, error) {
	return m.contacts, m.err
}

type mockSettingsService struct {
	settings domain.AppSettings
	setErr   error
	set      map[string]string
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.set == nil {
		m.set = make(map[string]string)
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"storage.data_dir", "ingest.dedup"}
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings("/home/test/.sercha-mail")
}

var (
	_ driving.IngestionService  = (*mockIngestService)(nil)
	_ driving.ExtractionService = (*mockExtractionService)(nil)
	_ driving.MailboxService    = (*mockMailboxService)(nil)
	_ driving.SettingsService   = (*mockSettingsService)(nil)
)

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	ingest     *mockIngestService
	extraction *mockExtractionService
	mailbox    *mockMailboxService
	settings   *mockSettingsService
}

// setupTestServices installs fresh mocks and returns a cleanup func
// restoring the previous services and flags.
func setupTestServices() (*testServices, func()) {
	oldIngest := ingestService
	oldExtraction := extractionService
	oldMailbox := mailboxService
	oldSettings := settingsService
	oldInbox := inboxService
	oldScheduler := scheduler

	ts := &testServices{
		ingest:     &mockIngestService{},
		extraction: &mockExtractionService{},
		mailbox:    &mockMailboxService{},
		settings:   &mockSettingsService{settings: domain.DefaultAppSettings("/home/test/.sercha-mail")},
	}
	SetServices(&Services{
		Ingest:     ts.ingest,
		Extraction: ts.extraction,
		Mailbox:    ts.mailbox,
		Settings:   ts.settings,
	})

	return ts, func() {
		ingestService = oldIngest
		extractionService = oldExtraction
		mailboxService = oldMailbox
		settingsService = oldSettings
		inboxService = oldInbox
		scheduler = oldScheduler
		extractAfterIngest = false
	}
}

// runCommand executes rootCmd with args and returns combined output.
func runCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
