package domain

import (
	"strings"
	"time"
)

// Contact is a deduplicated sender identity.
type Contact struct {
	// ID is the unique identifier.
	ID string

	// Email is the normalised address. Unique across the store.
	// May be empty or lack an "@" when the source address was malformed.
	Email string

	// Name is the display name seen when the contact was created.
	Name string

	// OrganizationID is set at creation and never re-resolved.
	// Nil for addresses without a domain.
	OrganizationID *string

	// CreatedAt is when the contact was first seen.
	CreatedAt time.Time
}

// NormaliseEmail returns the lookup key for an address.
// Matching is case-insensitive.
func NormaliseEmail(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
