package mbox

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
)

const plainMessage = "From alice@acme.com Mon Jan  6 10:00:00 2025\n" +
	"From: Alice Smith <alice@acme.com>\n" +
	"To: bob@example.org\n" +
	"Subject: Quarterly numbers\n" +
	"Date: Mon, 06 Jan 2025 10:00:00 +0000\n" +
	"Message-ID: <q1@acme.com>\n" +
	"Content-Type: text/plain; charset=utf-8\n" +
	"\n" +
	"See attached.\n" +
	"\n"

const badDateMessage = "From carol@acme.com Mon Jan  6 11:00:00 2025\n" +
	"From: carol@acme.com\n" +
	"Subject: Broken\n" +
	"Date: not a date at all\n" +
	"Content-Type: text/plain\n" +
	"\n" +
	"Body\n" +
	"\n"

const multipartMessage = "From dave@globex.com Tue Jan  7 09:30:00 2025\n" +
	"From: dave@globex.com\n" +
	"Subject: Reports\n" +
	"Date: Tue, 07 Jan 2025 09:30:00 +0000\n" +
	"MIME-Version: 1.0\n" +
	"Content-Type: multipart/mixed; boundary=\"XYZ\"\n" +
	"\n" +
	"--XYZ\n" +
	"Content-Type: multipart/alternative; boundary=\"ALT\"\n" +
	"\n" +
	"--ALT\n" +
	"Content-Type: text/plain; charset=utf-8\n" +
	"\n" +
	"Plain body\n" +
	"--ALT\n" +
	"Content-Type: text/html; charset=utf-8\n" +
	"\n" +
	"<p>HTML body</p>\n" +
	"--ALT--\n" +
	"--XYZ\n" +
	"Content-Type: application/pdf\n" +
	"Content-Disposition: attachment; filename=\"report.pdf\"\n" +
	"Content-Transfer-Encoding: base64\n" +
	"\n" +
	"JVBERi0xLjQ=\n" +
	"--XYZ\n" +
	"Content-Type: image/png\n" +
	"\n" +
	"not-an-attachment\n" +
	"--XYZ\n" +
	"Content-Type: text/csv\n" +
	"Content-Disposition: attachment; filename=\"report.pdf\"\n" +
	"\n" +
	"a,b\n" +
	"--XYZ--\n" +
	"\n"

func writeMbox(t *testing.T, messages ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.mbox")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(messages, "")), 0o600))
	return path
}

func collect(t *testing.T, w *TextStoreWalker) (msgs []*domain.RawMessage, parseErrs int) {
	t.Helper()
	ctx := context.Background()
	for {
		raw, err := w.Next(ctx)
		if errors.Is(err, io.EOF) {
			return msgs, parseErrs
		}
		if err != nil {
			require.ErrorIs(t, err, domain.ErrMessageParse)
			parseErrs++
			continue
		}
		msgs = append(msgs, raw)
	}
}

func TestTextStoreWalker_BadDateIsPerMessageFailure(t *testing.T) {
	w, err := Open(writeMbox(t, plainMessage, badDateMessage, multipartMessage))
	require.NoError(t, err)
	defer w.Close()

	msgs, parseErrs := collect(t, w)
	assert.Equal(t, 1, parseErrs)
	require.Len(t, msgs, 2)

	assert.Equal(t, 0, msgs[0].Index)
	assert.Equal(t, 2, msgs[1].Index)
	assert.Equal(t, "Quarterly numbers", msgs[0].Subject)
	assert.Equal(t, "Reports", msgs[1].Subject)
}

func TestTextStoreWalker_PlainMessage(t *testing.T) {
	w, err := Open(writeMbox(t, plainMessage))
	require.NoError(t, err)
	defer w.Close()

	msgs, _ := collect(t, w)
	require.Len(t, msgs, 1)
	msg := msgs[0]

	assert.Equal(t, "Alice Smith <alice@acme.com>", msg.From)
	assert.Equal(t, "Alice Smith", msg.SenderName)
	assert.Equal(t, "q1@acme.com", msg.InternetMessageID)
	assert.Equal(t, 2025, msg.ReceivedAt.Year())
	assert.Contains(t, msg.Body, "See attached.")
	assert.Empty(t, msg.Attachments)
}

func TestTextStoreWalker_MultipartCollectsDispositionParts(t *testing.T) {
	w, err := Open(writeMbox(t, multipartMessage))
	require.NoError(t, err)
	defer w.Close()

	msgs, _ := collect(t, w)
	require.Len(t, msgs, 1)
	msg := msgs[0]

	assert.Equal(t, "Plain body", strings.TrimSpace(msg.Body))
	require.Len(t, msg.Attachments, 2)

	assert.Equal(t, "report.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
	assert.Equal(t, "%PDF-1.4", string(msg.Attachments[0].Content))

	assert.Equal(t, "report.pdf", msg.Attachments[1].Filename)
	assert.Equal(t, "text/csv", msg.Attachments[1].ContentType)
}

func TestParseMessage_SkipsPartsWithoutDispositionOrFilename(t *testing.T) {
	data := "From: erin@initech.com\r\n" +
		"Date: Thu, 09 Jan 2025 08:00:00 +0000\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/related; boundary=\"REL\"\r\n" +
		"\r\n" +
		"--REL\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"See the logo\r\n" +
		"--REL\r\n" +
		"Content-Type: image/png\r\n" +
		"Content-ID: <logo>\r\n" +
		"\r\n" +
		"PNGDATA\r\n" +
		"--REL\r\n" +
		"Content-Type: application/pdf\r\n" +
		"Content-Disposition: attachment\r\n" +
		"\r\n" +
		"NONAME\r\n" +
		"--REL--\r\n"

	raw, err := ParseMessage([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, "See the logo", strings.TrimSpace(raw.Body))
	assert.Empty(t, raw.Attachments)
}

func TestTextStoreWalker_EmptyFile(t *testing.T) {
	w, err := Open(writeMbox(t))
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestTextStoreWalker_OpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mbox"))
	assert.Error(t, err)
}

func TestTextStoreWalker_CancelledContext(t *testing.T) {
	w := NewTextStoreWalker(strings.NewReader(plainMessage))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTextStoreWalker_SourceType(t *testing.T) {
	w := NewTextStoreWalker(strings.NewReader(""))
	assert.Equal(t, domain.SourceTypeTextStore, w.SourceType())
	assert.NoError(t, w.Close())
}

func TestParseMessage_HTMLOnlyFallsBackToText(t *testing.T) {
	data := "From: x@y.com\r\n" +
		"Date: Wed, 08 Jan 2025 12:00:00 +0000\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<html><head><style>p{}</style></head><body><p>Hello</p><p>World</p></body></html>\r\n"

	raw, err := ParseMessage([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, "Hello\n\nWorld", raw.Body)
}

func TestParseMessage_MissingDate(t *testing.T) {
	_, err := ParseMessage([]byte("From: x@y.com\r\nSubject: hi\r\n\r\nbody\r\n"))
	assert.Error(t, err)
}

func TestParseMessage_Latin1Subject(t *testing.T) {
	data := "From: x@y.com\r\n" +
		"Subject: =?iso-8859-1?q?Caf=E9?=\r\n" +
		"Date: Wed, 08 Jan 2025 12:00:00 +0000\r\n" +
		"\r\n" +
		"body\r\n"

	raw, err := ParseMessage([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, "Café", raw.Subject)
}
