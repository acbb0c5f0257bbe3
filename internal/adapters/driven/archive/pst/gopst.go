package pst

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"os"
	"time"

	"github.com/gabriel-vasile/mimetype"
	gopst "github.com/mooijtech/go-pst/v6/pkg"
	"github.com/mooijtech/go-pst/v6/pkg/properties"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
)

// Open opens the .pst file at path and returns a walker over its folder tree.
func Open(filePath string) (*BinaryStoreWalker, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open pst: %w", err)
	}

	file, err := gopst.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("parse pst: %w", err)
	}

	root, err := file.GetRootFolder()
	if err != nil {
		file.Cleanup()
		f.Close()
		return nil, fmt.Errorf("pst root folder: %w", err)
	}

	return NewBinaryStoreWalker(&pstFolder{folder: root}, closerFunc(func() error {
		file.Cleanup()
		return f.Close()
	})), nil
}

type closerFunc func() error

func (c closerFunc) Close() error { return c() }

// pstFolder adapts a go-pst folder.
type pstFolder struct {
	folder gopst.Folder
}

func (f *pstFolder) Name() string {
	return f.folder.Name
}

func (f *pstFolder) SubFolders() ([]Folder, error) {
	if !f.folder.HasSubFolders {
		return nil, nil
	}
	subs, err := f.folder.GetSubFolders()
	if err != nil {
		return nil, err
	}
	out := make([]Folder, 0, len(subs))
	for i := range subs {
		out = append(out, &pstFolder{folder: subs[i]})
	}
	return out, nil
}

func (f *pstFolder) Messages() (MessageIterator, error) {
	it, err := f.folder.GetMessageIterator()
	if errors.Is(err, gopst.ErrMessagesNotFound) {
		return emptyIterator{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &pstMessages{
		next:  func() bool { return it.Next() },
		value: func() *gopst.Message { return it.Value() },
		err:   func() error { return it.Err() },
	}, nil
}

// emptyIterator is the message iterator of a folder without a message table.
type emptyIterator struct{}

func (emptyIterator) Next() bool { return false }

func (emptyIterator) Message() (*domain.RawMessage, error) { return nil, io.EOF }

func (emptyIterator) Err() error { return nil }

// pstMessages wraps the library iterator in closures.
type pstMessages struct {
	next  func() bool
	value func() *gopst.Message
	err   func() error
}

func (m *pstMessages) Next() bool { return m.next() }

func (m *pstMessages) Err() error { return m.err() }

func (m *pstMessages) Message() (*domain.RawMessage, error) {
	return convertMessage(m.value())
}

func convertMessage(message *gopst.Message) (*domain.RawMessage, error) {
	if message == nil {
		return nil, errors.New("nil message")
	}

	props, ok := message.Properties.(*properties.Message)
	if !ok {
		return nil, fmt.Errorf("not a mail item: %T", message.Properties)
	}

	raw := &domain.RawMessage{
		Subject:           props.GetSubject(),
		SenderName:        props.GetSenderName(),
		Body:              props.GetBody(),
		InternetMessageID: props.GetInternetMessageId(),
		ReceivedAt:        deliveryTime(props.GetMessageDeliveryTime()),
	}
	raw.From = senderAddress(props.GetSenderName(), props.GetSenderEmailAddress())

	attachments, err := readAttachments(message)
	if err != nil {
		return nil, err
	}
	raw.Attachments = attachments
	return raw, nil
}

func readAttachments(message *gopst.Message) ([]domain.RawAttachment, error) {
	it, err := message.GetAttachmentIterator()
	if errors.Is(err, gopst.ErrAttachmentsNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("attachments: %w", err)
	}

	var out []domain.RawAttachment
	for i := 0; it.Next(); i++ {
		attachment, err := convertAttachment(i, it.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, attachment)
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("attachments: %w", err)
	}
	return out, nil
}

// attachmentSource is the part of a go-pst attachment the walker reads.
type attachmentSource interface {
	GetAttachLongFilename() string
	GetAttachFilename() string
	GetAttachMimeTag() string
	WriteTo(w io.Writer) (int64, error)
}

// convertAttachment reads the i-th attachment of a message. Unnamed
// attachments become attachment_<i>; a missing mime tag is sniffed.
func convertAttachment(i int, attachment attachmentSource) (domain.RawAttachment, error) {
	name := attachment.GetAttachLongFilename()
	if name == "" {
		name = attachment.GetAttachFilename()
	}
	if name == "" {
		name = fmt.Sprintf("attachment_%d", i)
	}

	var buf bytes.Buffer
	if _, err := attachment.WriteTo(&buf); err != nil {
		return domain.RawAttachment{}, fmt.Errorf("attachment %q: %w", name, err)
	}

	contentType := attachment.GetAttachMimeTag()
	if contentType == "" {
		contentType = mimetype.Detect(buf.Bytes()).String()
	}

	return domain.RawAttachment{
		Filename:    name,
		ContentType: contentType,
		Content:     buf.Bytes(),
	}, nil
}

// senderAddress formats name and address the way a From header would.
func senderAddress(name, address string) string {
	if address == "" {
		return name
	}
	return (&mail.Address{Name: name, Address: address}).String()
}

// filetimeEpochDelta is the number of 100ns intervals between 1601 and 1970.
const filetimeEpochDelta = 116444736000000000

// deliveryTime converts a stored delivery time. Values in the FILETIME
// range are 100ns ticks since 1601; smaller values are Unix seconds.
func deliveryTime(v int64) time.Time {
	switch {
	case v <= 0:
		return time.Time{}
	case v > 1e17:
		return time.Unix(0, (v-filetimeEpochDelta)*100).UTC()
	default:
		return time.Unix(v, 0).UTC()
	}
}
