package extractors

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-mail/internal/extractors/docx"
	"github.com/custodia-labs/sercha-mail/internal/extractors/pdf"
	"github.com/custodia-labs/sercha-mail/internal/extractors/text"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry holds extractors in registration order.
type Registry struct {
	mu         sync.RWMutex
	extractors []driven.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry registers the PDF and DOCX extractors. With
// plainText set, text/* attachments are extracted as well; otherwise
// they are unsupported.
func NewDefaultRegistry(plainText bool) *Registry {
	r := NewRegistry()
	r.Register(pdf.New())
	r.Register(docx.New())
	if plainText {
		r.Register(text.New())
	}
	return r
}

// Register adds an extractor. Earlier registrations win.
func (r *Registry) Register(extractor driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors = append(r.extractors, extractor)
}

// Select returns the first extractor that supports the attachment.
func (r *Registry) Select(contentType, filename string) (driven.Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.extractors {
		if e.Supports(contentType, filename) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %q (%s)", domain.ErrUnsupportedType, contentType, filename)
}

// Names lists registered extractors in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.extractors))
	for _, e := range r.extractors {
		names = append(names, e.Name())
	}
	return names
}
