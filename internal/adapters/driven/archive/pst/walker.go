// Package pst walks binary-store (.pst) archives.
//
// The walk is an explicit depth-first stack over Folder values: every
// sub-folder subtree is visited, in order, before the folder's own
// messages. Folder hides the go-pst library so the traversal can be
// tested without a real archive.
package pst

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-mail/internal/logger"
)

// Folder is one node of a binary-store folder tree.
type Folder interface {
	Name() string
	SubFolders() ([]Folder, error)
	Messages() (MessageIterator, error)
}

// MessageIterator yields the messages of one folder.
type MessageIterator interface {
	// Next advances to the next message. It returns false when the
	// folder is exhausted or broken; Err distinguishes the two.
	Next() bool
	// Message converts the current message to a raw record.
	Message() (*domain.RawMessage, error)
	Err() error
}

// Ensure BinaryStoreWalker implements the interface.
var _ driven.ArchiveWalker = (*BinaryStoreWalker)(nil)

type frame struct {
	folder     Folder
	path       string
	subs       []Folder
	subsLoaded bool
	nextSub    int
	messages   MessageIterator
}

// BinaryStoreWalker yields messages from a folder tree in a deterministic order.
type BinaryStoreWalker struct {
	stack  []*frame
	index  int
	closer io.Closer
}

// NewBinaryStoreWalker walks the tree under root. closer may be nil.
func NewBinaryStoreWalker(root Folder, closer io.Closer) *BinaryStoreWalker {
	return &BinaryStoreWalker{
		stack:  []*frame{{folder: root}},
		closer: closer,
	}
}

// SourceType reports the binary-store format.
func (w *BinaryStoreWalker) SourceType() domain.SourceType {
	return domain.SourceTypeBinaryStore
}

// Next returns the next message. Unreadable messages and folders return
// an error wrapping domain.ErrMessageParse; the walk continues after them.
func (w *BinaryStoreWalker) Next(ctx context.Context) (*domain.RawMessage, error) {
	for len(w.stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		top := w.stack[len(w.stack)-1]

		if !top.subsLoaded {
			top.subsLoaded = true
			subs, err := top.folder.SubFolders()
			if err != nil {
				logger.Warn("pst: skipping sub-folders of %q: %v", top.path, err)
			}
			top.subs = subs
		}

		if top.nextSub < len(top.subs) {
			sub := top.subs[top.nextSub]
			top.nextSub++
			w.stack = append(w.stack, &frame{folder: sub, path: path.Join(top.path, sub.Name())})
			continue
		}

		if top.messages == nil {
			it, err := top.folder.Messages()
			if err != nil {
				w.pop()
				return nil, fmt.Errorf("%w: folder %q: %v", domain.ErrMessageParse, top.path, err)
			}
			top.messages = it
		}

		if top.messages.Next() {
			index := w.index
			w.index++
			raw, err := top.messages.Message()
			if err != nil {
				return nil, fmt.Errorf("%w: message %d in %q: %v", domain.ErrMessageParse, index, top.path, err)
			}
			raw.Index = index
			raw.FolderPath = top.path
			return raw, nil
		}

		err := top.messages.Err()
		w.pop()
		if err != nil {
			return nil, fmt.Errorf("%w: folder %q: %v", domain.ErrMessageParse, top.path, err)
		}
	}
	return nil, io.EOF
}

func (w *BinaryStoreWalker) pop() {
	w.stack = w.stack[:len(w.stack)-1]
}

// Close releases the archive.
func (w *BinaryStoreWalker) Close() error {
	w.stack = nil
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}
