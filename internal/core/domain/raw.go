package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// RawMessage is one walker record before normalisation.
// Both archive formats produce this shape.
type RawMessage struct {
	// Index is the zero-based position in walk order.
	Index int

	// FolderPath is the folder the message was found in (binary store only).
	FolderPath string

	// Subject is the message subject.
	Subject string

	// From is the raw sender string. It may be a bare address, a
	// display-name form, or something malformed.
	From string

	// SenderName is the sender display name, when known.
	SenderName string

	// ReceivedAt is the delivery or Date header time.
	ReceivedAt time.Time

	// Body is the plain-text body.
	Body string

	// InternetMessageID is the Message-ID header, when present.
	InternetMessageID string

	// Attachments are held in memory until the persister writes them.
	Attachments []RawAttachment
}

// RawAttachment is an attachment descriptor with its decoded bytes.
type RawAttachment struct {
	// Filename is the name from the disposition header or the store.
	Filename string

	// ContentType is the declared MIME type. Empty when unknown.
	ContentType string

	// Content is the decoded payload.
	Content []byte
}

// Fingerprint returns the hex sha256 dedup key for the message.
// The Message-ID is used when present; otherwise sender, subject,
// timestamp and body identify the message.
func (m *RawMessage) Fingerprint() string {
	h := sha256.New()
	if m.InternetMessageID != "" {
		h.Write([]byte("id\x00"))
		h.Write([]byte(m.InternetMessageID))
	} else {
		h.Write([]byte("content\x00"))
		h.Write([]byte(m.From))
		h.Write([]byte{0})
		h.Write([]byte(m.Subject))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(m.ReceivedAt.UTC().Unix(), 10)))
		h.Write([]byte{0})
		h.Write([]byte(m.Body))
	}
	return hex.EncodeToString(h.Sum(nil))
}
