// Package pdf extracts text from PDF attachments using pdftotext from poppler.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
)

// ToolName is the external binary used for extraction.
const ToolName = "pdftotext"

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles PDF attachments.
type Extractor struct {
	runner   CommandRunner
	lookPath func(string) (string, error)
}

// New creates a PDF extractor backed by the pdftotext binary.
func New() *Extractor {
	return &Extractor{runner: execRunner{}, lookPath: exec.LookPath}
}

// NewWithRunner creates a PDF extractor with a custom command runner.
// The PATH check is skipped; the runner decides what a missing tool means.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{runner: runner}
}

// Name identifies the extractor.
func (e *Extractor) Name() string {
	return "pdf"
}

// Supports matches any content type mentioning pdf, or a .pdf filename
// when the content type is generic.
func (e *Extractor) Supports(contentType, filename string) bool {
	if strings.Contains(strings.ToLower(contentType), "pdf") {
		return true
	}
	return isGeneric(contentType) && strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

// Extract runs pdftotext on path and returns its output.
func (e *Extractor) Extract(ctx context.Context, path, _ string) (string, error) {
	if e.lookPath != nil {
		if _, err := e.lookPath(ToolName); err != nil {
			return "", ErrPDFToolNotFound
		}
	}

	// "-" writes to stdout; -layout keeps table columns apart.
	out, err := e.runner.Run(ctx, ToolName, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return "", fmt.Errorf("%w: pdftotext: %v", domain.ErrExtraction, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// CheckAvailable reports whether pdftotext can be found.
func CheckAvailable() error {
	if _, err := exec.LookPath(ToolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns platform hints for installing pdftotext.
func InstallInstructions() string {
	return `pdftotext is required to extract text from PDF attachments.

  macOS:          brew install poppler
  Debian/Ubuntu:  sudo apt install poppler-utils
  Fedora:         sudo dnf install poppler-utils
  Windows:        choco install poppler`
}

func isGeneric(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	return ct == "" || strings.HasPrefix(ct, "application/octet-stream")
}
