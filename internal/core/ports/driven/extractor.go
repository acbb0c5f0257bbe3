package driven

import "context"

// Extractor pulls plain text out of one kind of document.
type Extractor interface {
	// Name identifies the extractor in logs.
	Name() string

	// Supports reports whether the extractor handles the declared content
	// type or, failing that, the filename.
	Supports(contentType, filename string) bool

	// Extract returns the plain text of the file at path.
	Extract(ctx context.Context, path, contentType string) (string, error)
}

// ExtractorRegistry selects the extractor for an attachment.
type ExtractorRegistry interface {
	// Register adds an extractor. Earlier registrations win ties.
	Register(extractor Extractor)

	// Select returns domain.ErrUnsupportedType when no extractor matches.
	Select(contentType, filename string) (Extractor, error)
}
