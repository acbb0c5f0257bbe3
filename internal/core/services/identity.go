package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-mail/internal/logger"
)

// IdentityResolver maps raw sender strings to deduplicated contacts,
// creating the contact and its organization on first sight.
//
// Lookup-or-create runs under a mutex so concurrent resolution within a
// process cannot produce duplicate rows. Across processes the store's
// uniqueness constraints turn the race into domain.ErrAlreadyExists,
// which is retried as a lookup.
type IdentityResolver struct {
	store driven.IdentityStore

	mu sync.Mutex
}

// NewIdentityResolver creates a resolver backed by store.
func NewIdentityResolver(store driven.IdentityStore) *IdentityResolver {
	return &IdentityResolver{store: store}
}

// ResolveSender returns the contact for address, creating it if absent.
// Malformed or empty addresses never fail; they resolve to contacts
// without an organization.
func (r *IdentityResolver) ResolveSender(ctx context.Context, address string) (*domain.Contact, error) {
	email, name := splitAddress(address)

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.store.GetContactByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup contact: %w", err)
	}

	contact := &domain.Contact{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	if d := domain.DomainFromAddress(email); d != "" {
		org, err := r.resolveOrganization(ctx, d)
		if err != nil {
			return nil, err
		}
		contact.OrganizationID = &org.ID
	}

	if err := r.store.CreateContact(ctx, contact); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			logger.Debug("contact %q created concurrently, reusing", email)
			return r.lookupContact(ctx, email)
		}
		return nil, fmt.Errorf("create contact: %w", err)
	}

	logger.Debug("Created contact %s (%q)", contact.ID, email)
	return contact, nil
}

// organizationName derives the default organization name from a domain.
// A cases.Caser keeps state between calls, so each call gets its own.
func organizationName(d string) string {
	return cases.Title(language.Und).String(domain.FirstLabel(d))
}

// resolveOrganization must be called with r.mu held.
func (r *IdentityResolver) resolveOrganization(ctx context.Context, d string) (*domain.Organization, error) {
	org, err := r.store.GetOrganizationByDomain(ctx, d)
	if err == nil {
		return org, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup organization: %w", err)
	}

	org = &domain.Organization{
		ID:        uuid.New().String(),
		Name:      organizationName(d),
		Domain:    d,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.CreateOrganization(ctx, org); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			existing, lookupErr := r.store.GetOrganizationByDomain(ctx, d)
			if lookupErr != nil {
				return nil, fmt.Errorf("lookup organization after conflict: %w", lookupErr)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("create organization: %w", err)
	}

	logger.Debug("Created organization %s for domain %s", org.Name, d)
	return org, nil
}

func (r *IdentityResolver) lookupContact(ctx context.Context, email string) (*domain.Contact, error) {
	contact, err := r.store.GetContactByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup contact after conflict: %w", err)
	}
	return contact, nil
}

// splitAddress reduces "Name <addr>" forms to the bare lowercase address.
// Strings that do not parse are kept whole.
func splitAddress(raw string) (email, name string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ""
	}
	if addr, err := mail.ParseAddress(raw); err == nil {
		return domain.NormaliseEmail(addr.Address), addr.Name
	}
	return domain.NormaliseEmail(raw), ""
}
