package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
)

// Ensure RecordStore implements the interfaces.
var (
	_ driven.IdentityStore   = (*RecordStore)(nil)
	_ driven.MailboxStore    = (*RecordStore)(nil)
	_ driven.MessageStore    = (*RecordStore)(nil)
	_ driven.AttachmentStore = (*RecordStore)(nil)
	_ driven.MessageTx       = (*messageTx)(nil)
)

// RecordStore is an in-memory implementation of the record store ports for testing.
// Messages written through a MessageTx are buffered until Commit.
type RecordStore struct {
	mu sync.RWMutex

	orgs         map[string]*domain.Organization
	orgsByDomain map[string]string

	contacts        map[string]*domain.Contact
	contactsByEmail map[string]string

	mailboxes   map[string]*domain.Mailbox
	mailboxSeq  map[string]int
	nextMailbox int

	messages     map[string]*domain.Message
	messageOrder []string
	fingerprints map[string]string
	attachments  map[string]*domain.Attachment
	attachOrder  []string
	storagePaths map[string]string
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		orgs:            make(map[string]*domain.Organization),
		orgsByDomain:    make(map[string]string),
		contacts:        make(map[string]*domain.Contact),
		contactsByEmail: make(map[string]string),
		mailboxes:       make(map[string]*domain.Mailbox),
		mailboxSeq:      make(map[string]int),
		messages:        make(map[string]*domain.Message),
		fingerprints:    make(map[string]string),
		attachments:     make(map[string]*domain.Attachment),
		storagePaths:    make(map[string]string),
	}
}

// GetOrganizationByDomain looks up an organization by its domain.
func (s *RecordStore) GetOrganizationByDomain(_ context.Context, d string) (*domain.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.orgsByDomain[d]
	if !ok {
		return nil, domain.ErrNotFound
	}
	org := *s.orgs[id]
	return &org, nil
}

// CreateOrganization inserts a new organization.
func (s *RecordStore) CreateOrganization(_ context.Context, org *domain.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orgsByDomain[org.Domain]; ok {
		return domain.ErrAlreadyExists
	}
	if _, ok := s.orgs[org.ID]; ok {
		return domain.ErrAlreadyExists
	}
	stored := *org
	s.orgs[org.ID] = &stored
	s.orgsByDomain[org.Domain] = org.ID
	return nil
}

// ListOrganizations returns all organizations ordered by domain.
func (s *RecordStore) ListOrganizations(_ context.Context) ([]domain.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Organization, 0, len(s.orgs))
	for _, org := range s.orgs {
		result = append(result, *org)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Domain < result[j].Domain })
	return result, nil
}

// GetContact retrieves a contact by ID.
func (s *RecordStore) GetContact(_ context.Context, id string) (*domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contacts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	contact := *c
	return &contact, nil
}

// GetContactByEmail looks up a contact by normalised email.
func (s *RecordStore) GetContactByEmail(_ context.Context, email string) (*domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.contactsByEmail[domain.NormaliseEmail(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	contact := *s.contacts[id]
	return &contact, nil
}

// CreateContact inserts a new contact.
func (s *RecordStore) CreateContact(_ context.Context, contact *domain.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.NormaliseEmail(contact.Email)
	if _, ok := s.contactsByEmail[key]; ok {
		return domain.ErrAlreadyExists
	}
	if _, ok := s.contacts[contact.ID]; ok {
		return domain.ErrAlreadyExists
	}
	stored := *contact
	s.contacts[contact.ID] = &stored
	s.contactsByEmail[key] = contact.ID
	return nil
}

// ListContacts returns all contacts ordered by email.
func (s *RecordStore) ListContacts(_ context.Context) ([]domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}

// CreateMailbox inserts a new mailbox.
func (s *RecordStore) CreateMailbox(_ context.Context, mb *domain.Mailbox) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mailboxes[mb.ID]; ok {
		return domain.ErrAlreadyExists
	}
	stored := *mb
	s.mailboxes[mb.ID] = &stored
	s.nextMailbox++
	s.mailboxSeq[mb.ID] = s.nextMailbox
	return nil
}

// UpdateMailbox replaces the stored mailbox.
func (s *RecordStore) UpdateMailbox(_ context.Context, mb *domain.Mailbox) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mailboxes[mb.ID]; !ok {
		return domain.ErrNotFound
	}
	stored := *mb
	s.mailboxes[mb.ID] = &stored
	return nil
}

// GetMailbox retrieves a mailbox by ID.
func (s *RecordStore) GetMailbox(_ context.Context, id string) (*domain.Mailbox, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mb, ok := s.mailboxes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	result := *mb
	return &result, nil
}

// ListMailboxes returns all mailboxes, newest first.
func (s *RecordStore) ListMailboxes(_ context.Context) ([]domain.Mailbox, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Mailbox, 0, len(s.mailboxes))
	for _, mb := range s.mailboxes {
		result = append(result, *mb)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return s.mailboxSeq[result[i].ID] > s.mailboxSeq[result[j].ID]
	})
	return result, nil
}

// DeleteMailbox removes a mailbox with its messages and attachments.
func (s *RecordStore) DeleteMailbox(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mailboxes[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.mailboxes, id)
	delete(s.mailboxSeq, id)

	removed := make(map[string]bool)
	kept := s.messageOrder[:0]
	for _, msgID := range s.messageOrder {
		msg := s.messages[msgID]
		if msg.MailboxID != id {
			kept = append(kept, msgID)
			continue
		}
		removed[msgID] = true
		delete(s.fingerprints, msg.Fingerprint)
		delete(s.messages, msgID)
	}
	s.messageOrder = kept

	keptAtt := s.attachOrder[:0]
	for _, attID := range s.attachOrder {
		att := s.attachments[attID]
		if !removed[att.MessageID] {
			keptAtt = append(keptAtt, attID)
			continue
		}
		delete(s.storagePaths, att.StoragePath)
		delete(s.attachments, attID)
	}
	s.attachOrder = keptAtt
	return nil
}

// BeginMessage opens a buffered message transaction.
func (s *RecordStore) BeginMessage(_ context.Context) (driven.MessageTx, error) {
	return &messageTx{store: s}, nil
}

// GetMessage retrieves a message by ID.
func (s *RecordStore) GetMessage(_ context.Context, id string) (*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	result := *msg
	return &result, nil
}

// ListMessages returns the messages of a mailbox in ingestion order.
func (s *RecordStore) ListMessages(_ context.Context, mailboxID string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Message
	for _, id := range s.messageOrder {
		if msg := s.messages[id]; msg.MailboxID == mailboxID {
			result = append(result, *msg)
		}
	}
	return result, nil
}

// HasFingerprint reports whether a committed message carries the fingerprint.
func (s *RecordStore) HasFingerprint(_ context.Context, fingerprint string) (bool, error) {
	if fingerprint == "" {
		return false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.fingerprints[fingerprint]
	return ok, nil
}

// GetAttachment retrieves an attachment by ID.
func (s *RecordStore) GetAttachment(_ context.Context, id string) (*domain.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	att, ok := s.attachments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyAttachment(att), nil
}

// ListAttachments returns the attachments of a message.
func (s *RecordStore) ListAttachments(_ context.Context, messageID string) ([]domain.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Attachment
	for _, id := range s.attachOrder {
		if att := s.attachments[id]; att.MessageID == messageID {
			result = append(result, *copyAttachment(att))
		}
	}
	return result, nil
}

// ListPending returns attachments still awaiting extraction.
func (s *RecordStore) ListPending(_ context.Context) ([]domain.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Attachment
	for _, id := range s.attachOrder {
		if att := s.attachments[id]; !att.TextExtracted {
			result = append(result, *copyAttachment(att))
		}
	}
	return result, nil
}

// MarkExtracted records extracted text for an attachment.
func (s *RecordStore) MarkExtracted(_ context.Context, id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	att, ok := s.attachments[id]
	if !ok {
		return domain.ErrNotFound
	}
	att.TextContent = &text
	att.TextExtracted = true
	return nil
}

// AttachmentCount returns the number of committed attachments.
func (s *RecordStore) AttachmentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attachments)
}

// MessageCount returns the number of committed messages.
func (s *RecordStore) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

func copyAttachment(att *domain.Attachment) *domain.Attachment {
	result := *att
	if att.TextContent != nil {
		text := *att.TextContent
		result.TextContent = &text
	}
	return &result
}

// messageTx buffers writes until Commit.
type messageTx struct {
	store       *RecordStore
	messages    []domain.Message
	attachments []domain.Attachment
	done        bool
}

func (tx *messageTx) CreateMessage(_ context.Context, msg *domain.Message) error {
	if tx.done {
		return domain.ErrInvalidInput
	}
	tx.messages = append(tx.messages, *msg)
	return nil
}

func (tx *messageTx) CreateAttachment(_ context.Context, att *domain.Attachment) error {
	if tx.done {
		return domain.ErrInvalidInput
	}
	owned := false
	for i := range tx.messages {
		if tx.messages[i].ID == att.MessageID {
			owned = true
			break
		}
	}
	if !owned {
		return domain.ErrNotFound
	}
	for i := range tx.attachments {
		if tx.attachments[i].StoragePath == att.StoragePath {
			return domain.ErrAlreadyExists
		}
	}
	tx.store.mu.RLock()
	_, taken := tx.store.storagePaths[att.StoragePath]
	tx.store.mu.RUnlock()
	if taken {
		return domain.ErrAlreadyExists
	}
	tx.attachments = append(tx.attachments, *att)
	return nil
}

func (tx *messageTx) Commit() error {
	if tx.done {
		return nil
	}
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range tx.messages {
		if _, ok := s.mailboxes[tx.messages[i].MailboxID]; !ok {
			return domain.ErrNotFound
		}
		if _, ok := s.messages[tx.messages[i].ID]; ok {
			return domain.ErrAlreadyExists
		}
	}
	for i := range tx.attachments {
		if _, ok := s.storagePaths[tx.attachments[i].StoragePath]; ok {
			return domain.ErrAlreadyExists
		}
	}

	for i := range tx.messages {
		msg := tx.messages[i]
		s.messages[msg.ID] = &msg
		s.messageOrder = append(s.messageOrder, msg.ID)
		if msg.Fingerprint != "" {
			s.fingerprints[msg.Fingerprint] = msg.ID
		}
	}
	for i := range tx.attachments {
		att := tx.attachments[i]
		s.attachments[att.ID] = &att
		s.attachOrder = append(s.attachOrder, att.ID)
		s.storagePaths[att.StoragePath] = att.ID
	}
	tx.done = true
	return nil
}

func (tx *messageTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.messages = nil
	tx.attachments = nil
	tx.done = true
	return nil
}
