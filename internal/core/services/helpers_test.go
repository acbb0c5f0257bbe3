package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-mail/internal/adapters/driven/archive"
	"github.com/custodia-labs/sercha-mail/internal/adapters/driven/events"
	"github.com/custodia-labs/sercha-mail/internal/adapters/driven/storage/blob"
	"github.com/custodia-labs/sercha-mail/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
)

// --- Archive fixtures ---

const mboxFirst = "From alice@acme.com Mon Jan  6 10:00:00 2025\n" +
	"From: Alice Smith <alice@acme.com>\n" +
	"Subject: Quarterly numbers\n" +
	"Date: Mon, 06 Jan 2025 10:00:00 +0000\n" +
	"Message-ID: <q1@acme.com>\n" +
	"Content-Type: text/plain; charset=utf-8\n" +
	"\n" +
	"Numbers attached.\n" +
	"\n"

const mboxBadDate = "From carol@acme.com Mon Jan  6 11:00:00 2025\n" +
	"From: carol@acme.com\n" +
	"Subject: Broken\n" +
	"Date: not a date at all\n" +
	"Content-Type: text/plain\n" +
	"\n" +
	"Body\n" +
	"\n"

const mboxReports = "From bob@acme.com Tue Jan  7 09:30:00 2025\n" +
	"From: Bob <BOB@Acme.com>\n" +
	"Subject: Reports\n" +
	"Date: Tue, 07 Jan 2025 09:30:00 +0000\n" +
	"Message-ID: <r1@acme.com>\n" +
	"MIME-Version: 1.0\n" +
	"Content-Type: multipart/mixed; boundary=\"XYZ\"\n" +
	"\n" +
	"--XYZ\n" +
	"Content-Type: text/plain; charset=utf-8\n" +
	"\n" +
	"Two reports.\n" +
	"--XYZ\n" +
	"Content-Type: application/pdf\n" +
	"Content-Disposition: attachment; filename=\"report.pdf\"\n" +
	"Content-Transfer-Encoding: base64\n" +
	"\n" +
	"JVBERi0xLjQ=\n" +
	"--XYZ\n" +
	"Content-Type: application/pdf\n" +
	"Content-Disposition: attachment; filename=\"report.pdf\"\n" +
	"Content-Transfer-Encoding: base64\n" +
	"\n" +
	"JVBERi0xLjU=\n" +
	"--XYZ--\n" +
	"\n"

func writeArchive(t *testing.T, dir, name string, messages ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(messages, "")), 0o600))
	return path
}

// --- Test environment ---

type testEnv struct {
	records   *memory.RecordStore
	blobs     *blob.Store
	events    *events.Recorder
	identity  *IdentityResolver
	persister *AttachmentPersister
	ingest    *IngestionOrchestrator
}

type envOptions struct {
	walkers     driven.WalkerFactory
	dedup       bool
	maxAtt      int64
	failWriteOn int
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	bs, err := blob.NewStore(t.TempDir())
	require.NoError(t, err)

	env := &testEnv{
		records: memory.NewRecordStore(),
		blobs:   bs,
		events:  &events.Recorder{},
	}

	var blobs driven.BlobStore = bs
	if opts.failWriteOn > 0 {
		blobs = &failingBlobs{Store: bs, failOn: opts.failWriteOn}
	}
	walkers := opts.walkers
	if walkers == nil {
		walkers = archive.NewFactory()
	}

	env.identity = NewIdentityResolver(env.records)
	env.persister = NewAttachmentPersister(blobs, opts.maxAtt)
	normalizer := NewMessageNormalizer(env.identity, env.records, env.persister, opts.dedup)
	env.ingest = NewIngestionOrchestrator(walkers, env.records, normalizer, env.events, 0)
	return env
}

// storeAttachment commits a message with one attachment and returns the attachment.
func (e *testEnv) storeAttachment(t *testing.T, filename, contentType string, content []byte) *domain.Attachment {
	t.Helper()
	ctx := context.Background()

	mb := &domain.Mailbox{ID: "mb-" + filename, SourceName: "test.mbox", SourceType: domain.SourceTypeTextStore}
	if _, err := e.records.GetMailbox(ctx, mb.ID); err != nil {
		require.NoError(t, e.records.CreateMailbox(ctx, mb))
	}

	sender, err := e.identity.ResolveSender(ctx, "alice@acme.com")
	require.NoError(t, err)

	tx, err := e.records.BeginMessage(ctx)
	require.NoError(t, err)
	msg := &domain.Message{
		ID:              "msg-" + filename,
		MailboxID:       mb.ID,
		SenderContactID: sender.ID,
		Importance:      domain.ImportanceNormal,
	}
	require.NoError(t, tx.CreateMessage(ctx, msg))
	att, err := e.persister.Persist(ctx, tx, msg.ID, &domain.RawAttachment{
		Filename:    filename,
		ContentType: contentType,
		Content:     content,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	return att
}

// countFiles returns the number of regular files under root.
func countFiles(t *testing.T, root string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(root, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	require.NoError(t, err)
	return n
}

// --- Fakes ---

type walkStep struct {
	raw *domain.RawMessage
	err error
}

// fakeWalker replays scripted steps, then returns io.EOF.
type fakeWalker struct {
	steps  []walkStep
	pos    int
	before func(pos int)
	closed bool
}

func (w *fakeWalker) SourceType() domain.SourceType { return domain.SourceTypeTextStore }

func (w *fakeWalker) Next(ctx context.Context) (*domain.RawMessage, error) {
	if w.before != nil {
		w.before(w.pos)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w.pos >= len(w.steps) {
		return nil, io.EOF
	}
	step := w.steps[w.pos]
	w.pos++
	return step.raw, step.err
}

func (w *fakeWalker) Close() error {
	w.closed = true
	return nil
}

type fakeFactory struct {
	walker  *fakeWalker
	openErr error
}

func (f *fakeFactory) Open(_ context.Context, _ string) (driven.ArchiveWalker, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.walker, nil
}

func (f *fakeFactory) SupportedExtensions() []string { return []string{".pst", ".mbox"} }

// failingBlobs fails the Nth write (1-based).
type failingBlobs struct {
	*blob.Store
	failOn int

	mu     sync.Mutex
	writes int
}

func (f *failingBlobs) WriteNew(ctx context.Context, path string, data []byte) error {
	f.mu.Lock()
	f.writes++
	n := f.writes
	f.mu.Unlock()
	if n == f.failOn {
		return errors.New("disk full")
	}
	return f.Store.WriteNew(ctx, path, data)
}

// stubExtractor returns scripted results.
type stubExtractor struct {
	name     string
	accepts  string
	results  []stubResult
	mu       sync.Mutex
	calls    int
	lastPath string
}

type stubResult struct {
	text string
	err  error
}

func (s *stubExtractor) Name() string { return s.name }

func (s *stubExtractor) Supports(contentType, _ string) bool {
	return contentType == s.accepts
}

func (s *stubExtractor) Extract(_ context.Context, path, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPath = path
	i := s.calls
	s.calls++
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	return s.results[i].text, s.results[i].err
}

func (s *stubExtractor) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

var (
	_ driven.ArchiveWalker = (*fakeWalker)(nil)
	_ driven.WalkerFactory = (*fakeFactory)(nil)
	_ driven.BlobStore     = (*failingBlobs)(nil)
	_ driven.Extractor     = (*stubExtractor)(nil)
)
