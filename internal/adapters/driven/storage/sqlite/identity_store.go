package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
)

// identityStore implements driven.IdentityStore.
type identityStore struct {
	store *Store
}

var _ driven.IdentityStore = (*identityStore)(nil)

type organizationRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Domain    string `db:"domain"`
	CreatedAt string `db:"created_at"`
}

func (r organizationRow) toDomain() domain.Organization {
	return domain.Organization{
		ID:        r.ID,
		Name:      r.Name,
		Domain:    r.Domain,
		CreatedAt: parseTime(r.CreatedAt),
	}
}

type contactRow struct {
	ID             string         `db:"id"`
	Email          string         `db:"email"`
	Name           string         `db:"name"`
	OrganizationID sql.NullString `db:"organization_id"`
	CreatedAt      string         `db:"created_at"`
}

func (r contactRow) toDomain() domain.Contact {
	return domain.Contact{
		ID:             r.ID,
		Email:          r.Email,
		Name:           r.Name,
		OrganizationID: stringPtr(r.OrganizationID),
		CreatedAt:      parseTime(r.CreatedAt),
	}
}

// GetOrganizationByDomain looks up an organization by its domain.
func (s *identityStore) GetOrganizationByDomain(ctx context.Context, d string) (*domain.Organization, error) {
	var row organizationRow
	err := s.store.db.GetContext(ctx, &row, `
		SELECT id, name, domain, created_at FROM organizations WHERE domain = ?
	`, d)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting organization: %w", err)
	}
	org := row.toDomain()
	return &org, nil
}

// CreateOrganization inserts a new organization.
func (s *identityStore) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	if org == nil {
		return domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO organizations (id, name, domain, created_at) VALUES (?, ?, ?, ?)
	`, org.ID, org.Name, org.Domain, formatTime(org.CreatedAt))
	return mapWriteError(err, "creating organization")
}

// ListOrganizations returns all organizations ordered by domain.
func (s *identityStore) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	var rows []organizationRow
	if err := s.store.db.SelectContext(ctx, &rows, `
		SELECT id, name, domain, created_at FROM organizations ORDER BY domain
	`); err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}

	orgs := make([]domain.Organization, 0, len(rows))
	for _, r := range rows {
		orgs = append(orgs, r.toDomain())
	}
	return orgs, nil
}

// GetContact retrieves a contact by ID.
func (s *identityStore) GetContact(ctx context.Context, id string) (*domain.Contact, error) {
	return s.getContact(ctx, "id = ?", id)
}

// GetContactByEmail looks up a contact by normalised email.
func (s *identityStore) GetContactByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	return s.getContact(ctx, "email = ?", domain.NormaliseEmail(email))
}

func (s *identityStore) getContact(ctx context.Context, where string, arg any) (*domain.Contact, error) {
	var row contactRow
	err := s.store.db.GetContext(ctx, &row, `
		SELECT id, email, name, organization_id, created_at FROM contacts WHERE `+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting contact: %w", err)
	}
	c := row.toDomain()
	return &c, nil
}

// CreateContact inserts a new contact.
func (s *identityStore) CreateContact(ctx context.Context, contact *domain.Contact) error {
	if contact == nil {
		return domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO contacts (id, email, name, organization_id, created_at) VALUES (?, ?, ?, ?, ?)
	`, contact.ID, domain.NormaliseEmail(contact.Email), contact.Name,
		nullStringPtr(contact.OrganizationID), formatTime(contact.CreatedAt))
	return mapWriteError(err, "creating contact")
}

// ListContacts returns all contacts ordered by email.
func (s *identityStore) ListContacts(ctx context.Context) ([]domain.Contact, error) {
	var rows []contactRow
	if err := s.store.db.SelectContext(ctx, &rows, `
		SELECT id, email, name, organization_id, created_at FROM contacts ORDER BY email
	`); err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}

	contacts := make([]domain.Contact, 0, len(rows))
	for _, r := range rows {
		contacts = append(contacts, r.toDomain())
	}
	return contacts, nil
}
