// Package domain defines the core business entities for Sercha Mail.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Organization: A company inferred from an address domain
//   - Contact: A deduplicated sender identity
//   - Mailbox: One archive ingestion batch
//   - Message: A normalised email owned by a mailbox
//   - Attachment: A stored attachment awaiting or holding extracted text
//   - RawMessage: A walker record before normalisation
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
