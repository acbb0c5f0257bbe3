package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Output colours.
var (
	colourPrimary = lipgloss.Color("#7C3AED")
	colourMuted   = lipgloss.Color("#6C7086")
	colourSuccess = lipgloss.Color("#A6E3A1")
	colourWarning = lipgloss.Color("#F9E2AF")
	colourError   = lipgloss.Color("#F38BA8")
)

// outputStyles renders command output. Styling is disabled when the
// writer is not a terminal so piped output stays plain.
type outputStyles struct {
	enabled bool
	title   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
}

func newOutputStyles(w io.Writer) *outputStyles {
	return &outputStyles{
		enabled: isTerminal(w),
		title:   lipgloss.NewStyle().Bold(true).Foreground(colourPrimary),
		muted:   lipgloss.NewStyle().Foreground(colourMuted),
		success: lipgloss.NewStyle().Foreground(colourSuccess),
		warning: lipgloss.NewStyle().Foreground(colourWarning),
		failure: lipgloss.NewStyle().Bold(true).Foreground(colourError),
	}
}

func (s *outputStyles) render(style lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return style.Render(text)
}

// Title renders a section heading.
func (s *outputStyles) Title(text string) string { return s.render(s.title, text) }

// Muted renders secondary detail.
func (s *outputStyles) Muted(text string) string { return s.render(s.muted, text) }

// Success renders a positive outcome.
func (s *outputStyles) Success(text string) string { return s.render(s.success, text) }

// Warning renders a partial outcome.
func (s *outputStyles) Warning(text string) string { return s.render(s.warning, text) }

// Failure renders an error outcome.
func (s *outputStyles) Failure(text string) string { return s.render(s.failure, text) }

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
