package domain

import (
	"strings"
	"time"
)

// Organization is a company inferred from an email address domain.
type Organization struct {
	// ID is the unique identifier.
	ID string

	// Name defaults to the capitalised first label of the domain.
	Name string

	// Domain is the lowercase address domain. Unique across the store.
	Domain string

	// CreatedAt is when the organization was first seen.
	CreatedAt time.Time
}

// DomainFromAddress returns the lowercase substring after the last "@".
// Returns an empty string when the address has no "@" or nothing follows it.
func DomainFromAddress(address string) string {
	at := strings.LastIndex(address, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(address[at+1:]))
}

// FirstLabel returns the first dot-delimited label of a domain.
func FirstLabel(domain string) string {
	label, _, _ := strings.Cut(domain, ".")
	return label
}
