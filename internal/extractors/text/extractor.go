// Package text extracts plain-text attachments such as .txt and .csv files.
package text

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	htmlcharset "golang.org/x/net/html/charset"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// MaxSize caps how much of a text attachment is read.
const MaxSize = 16 << 20

var textExtensions = map[string]bool{
	".txt":  true,
	".csv":  true,
	".tsv":  true,
	".md":   true,
	".log":  true,
	".json": true,
}

// Extractor handles text/* attachments other than HTML.
type Extractor struct{}

// New creates a new plain-text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name identifies the extractor.
func (e *Extractor) Name() string {
	return "text"
}

// Supports matches text/* content types, or known text extensions
// when the content type is generic.
func (e *Extractor) Supports(contentType, filename string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if strings.HasPrefix(ct, "text/") {
		return !strings.HasPrefix(ct, "text/html")
	}
	if ct == "" || strings.HasPrefix(ct, "application/octet-stream") {
		return textExtensions[strings.ToLower(filepath.Ext(filename))]
	}
	return false
}

// Extract reads the file, decoding it from the declared charset.
func (e *Extractor) Extract(ctx context.Context, path, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	defer f.Close()

	r, err := htmlcharset.NewReader(io.LimitReader(f, MaxSize), contentType)
	if err != nil {
		return "", fmt.Errorf("%w: charset: %v", domain.ErrExtraction, err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	if !utf8.Valid(data) {
		data = []byte(strings.ToValidUTF8(string(data), "�"))
	}
	return strings.TrimSpace(string(data)), nil
}
