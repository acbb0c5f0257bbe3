// Package docx extracts text from Word (.docx) attachments.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// maxDocumentXML bounds the decompressed size of word/document.xml.
const maxDocumentXML = 64 << 20

// Extractor handles DOCX attachments.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name identifies the extractor.
func (e *Extractor) Name() string {
	return "docx"
}

// Supports matches Word content types or a .docx filename.
func (e *Extractor) Supports(contentType, filename string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "word") ||
		strings.HasSuffix(strings.ToLower(filename), ".docx")
}

// Extract reads paragraphs from word/document.xml.
func (e *Extractor) Extract(ctx context.Context, path, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%w: not a docx archive: %v", domain.ErrExtraction, err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrExtraction, err)
		}
		content, err := io.ReadAll(io.LimitReader(rc, maxDocumentXML))
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrExtraction, err)
		}

		return parseDocumentXML(content)
	}
	return "", fmt.Errorf("%w: word/document.xml missing", domain.ErrExtraction)
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
		Tables     []table     `xml:"tbl"`
	} `xml:"body"`
}

type table struct {
	Rows []struct {
		Cells []struct {
			Paragraphs []paragraph `xml:"p"`
		} `xml:"tc"`
	} `xml:"tr"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
	Tabs []struct{}    `xml:"tab"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

func (p paragraph) text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		for range r.Tabs {
			b.WriteByte('\t')
		}
		for _, t := range r.Text {
			b.WriteString(t.Content)
		}
	}
	return b.String()
}

// parseDocumentXML extracts paragraphs, then table cells row by row.
func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("%w: document.xml: %v", domain.ErrExtraction, err)
	}

	lines := make([]string, 0, len(doc.Body.Paragraphs))
	for _, para := range doc.Body.Paragraphs {
		lines = append(lines, para.text())
	}
	for _, tbl := range doc.Body.Tables {
		for _, row := range tbl.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				parts := make([]string, 0, len(cell.Paragraphs))
				for _, p := range cell.Paragraphs {
					parts = append(parts, p.text())
				}
				cells = append(cells, strings.Join(parts, " "))
			}
			lines = append(lines, strings.Join(cells, "\t"))
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
