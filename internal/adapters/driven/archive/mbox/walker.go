// Package mbox walks text-store (.mbox) archives.
//
// Messages are read in store order with go-mbox and their MIME trees are
// walked with go-message. Each message yields its subject, From header,
// Date, body and attachment-disposed leaf parts.
package mbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	mboxlib "github.com/emersion/go-mbox"
	gomessage "github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	htmlcharset "golang.org/x/net/html/charset"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
)

func init() {
	gomessage.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return htmlcharset.NewReaderLabel(charset, input)
	}
}

// Ensure TextStoreWalker implements the interface.
var _ driven.ArchiveWalker = (*TextStoreWalker)(nil)

// TextStoreWalker yields messages from an mbox file in store order.
type TextStoreWalker struct {
	closer io.Closer
	reader *mboxlib.Reader
	index  int
	done   bool
}

// Open opens the mbox file at path.
func Open(path string) (*TextStoreWalker, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mbox: %w", err)
	}
	return &TextStoreWalker{closer: f, reader: mboxlib.NewReader(f)}, nil
}

// NewTextStoreWalker walks an mbox stream already in hand.
func NewTextStoreWalker(r io.Reader) *TextStoreWalker {
	w := &TextStoreWalker{reader: mboxlib.NewReader(r)}
	if c, ok := r.(io.Closer); ok {
		w.closer = c
	}
	return w
}

// SourceType reports the text-store format.
func (w *TextStoreWalker) SourceType() domain.SourceType {
	return domain.SourceTypeTextStore
}

// Next returns the next message. Messages that cannot be parsed return
// an error wrapping domain.ErrMessageParse and the walk can continue.
// Any other error means the file itself is unreadable.
func (w *TextStoreWalker) Next(ctx context.Context) (*domain.RawMessage, error) {
	if w.done {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msgReader, err := w.reader.NextMessage()
	if errors.Is(err, io.EOF) {
		w.done = true
		return nil, io.EOF
	}
	if err != nil {
		w.done = true
		return nil, fmt.Errorf("read mbox: %w", err)
	}

	data, err := io.ReadAll(msgReader)
	if err != nil {
		w.done = true
		return nil, fmt.Errorf("read mbox message %d: %w", w.index, err)
	}

	index := w.index
	w.index++

	raw, err := ParseMessage(data)
	if err != nil {
		return nil, fmt.Errorf("%w: message %d: %v", domain.ErrMessageParse, index, err)
	}
	raw.Index = index
	return raw, nil
}

// Close releases the underlying file.
func (w *TextStoreWalker) Close() error {
	w.done = true
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}

// ParseMessage parses one RFC 5322 message into a raw record.
// A missing or unparseable Date header is a parse failure.
func ParseMessage(data []byte) (*domain.RawMessage, error) {
	mr, err := mail.CreateReader(bytes.NewReader(data))
	if err != nil && !gomessage.IsUnknownCharset(err) {
		return nil, fmt.Errorf("create reader: %w", err)
	}
	defer mr.Close()

	h := mr.Header
	received, err := h.Date()
	if err != nil {
		return nil, fmt.Errorf("date header: %w", err)
	}

	raw := &domain.RawMessage{ReceivedAt: received}
	raw.Subject, err = h.Subject()
	if err != nil {
		raw.Subject = h.Get("Subject")
	}
	raw.From, err = h.Text("From")
	if err != nil {
		raw.From = h.Get("From")
	}
	if addrs, err := h.AddressList("From"); err == nil && len(addrs) > 0 {
		raw.SenderName = addrs[0].Name
	}
	if id, err := h.MessageID(); err == nil {
		raw.InternetMessageID = id
	}

	multipart := strings.HasPrefix(strings.ToLower(h.Get("Content-Type")), "multipart/")
	var firstPart, htmlPart string
	haveText := false

	for partIndex := 0; ; partIndex++ {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mime part %d: %w", partIndex, err)
		}

		switch ph := part.Header.(type) {
		case *mail.AttachmentHeader:
			att, ok, err := readAttachment(ph, part.Body)
			if !ok {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("attachment part %d: %w", partIndex, err)
			}
			raw.Attachments = append(raw.Attachments, att)

		case *mail.InlineHeader:
			// Inline parts with a disposition and filename are attachments too.
			if disp, params, err := ph.ContentDisposition(); err == nil && disp != "" && params["filename"] != "" {
				contentType, _, _ := ph.ContentType()
				content, err := io.ReadAll(part.Body)
				if err != nil {
					return nil, fmt.Errorf("inline attachment part %d: %w", partIndex, err)
				}
				raw.Attachments = append(raw.Attachments, domain.RawAttachment{
					Filename:    params["filename"],
					ContentType: contentType,
					Content:     content,
				})
				continue
			}

			contentType, _, _ := ph.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				return nil, fmt.Errorf("body part %d: %w", partIndex, err)
			}
			if partIndex == 0 {
				firstPart = string(body)
			}
			switch {
			case contentType == "text/plain" && !haveText:
				raw.Body = string(body)
				haveText = true
			case contentType == "text/html" && htmlPart == "":
				htmlPart = string(body)
			}
		}
	}

	if !haveText {
		switch {
		case htmlPart != "":
			raw.Body = HTMLToText(htmlPart)
		case !multipart:
			raw.Body = firstPart
		}
	}
	return raw, nil
}

// readAttachment reads a non-text leaf part. Parts without a
// Content-Disposition or without a filename are not attachments.
func readAttachment(h *mail.AttachmentHeader, body io.Reader) (domain.RawAttachment, bool, error) {
	disp, params, err := h.ContentDisposition()
	if err != nil || disp == "" {
		return domain.RawAttachment{}, false, nil
	}
	filename, err := h.Filename()
	if err != nil || filename == "" {
		filename = params["filename"]
	}
	if filename == "" {
		return domain.RawAttachment{}, false, nil
	}

	contentType, _, _ := h.ContentType()
	content, err := io.ReadAll(body)
	if err != nil {
		return domain.RawAttachment{}, true, err
	}
	return domain.RawAttachment{
		Filename:    filename,
		ContentType: contentType,
		Content:     content,
	}, true, nil
}
