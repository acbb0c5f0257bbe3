package services

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/extractors"
)

func newExtractionService(env *testEnv, cfg domain.ExtractionSettings, exts ...*stubExtractor) *ExtractionService {
	registry := extractors.NewRegistry()
	for _, e := range exts {
		registry.Register(e)
	}
	return NewExtractionService(env.records, env.blobs, registry, env.events, cfg)
}

func TestExtractionService_ExtractPending(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	att := env.storeAttachment(t, "report.pdf", "application/pdf", []byte("%PDF-1.4"))
	pdf := &stubExtractor{name: "pdf", accepts: "application/pdf", results: []stubResult{{text: "  Quarterly revenue  \n"}}}
	svc := newExtractionService(env, domain.ExtractionSettings{}, pdf)

	summary, err := svc.ExtractPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Success)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, env.blobs.LocalPath(att.StoragePath), pdf.lastPath)

	stored, err := env.records.GetAttachment(ctx, att.ID)
	require.NoError(t, err)
	assert.True(t, stored.TextExtracted)
	require.NotNil(t, stored.TextContent)
	assert.Equal(t, "Quarterly revenue", *stored.TextContent)

	pending, err := env.records.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	extracted := env.events.OfType(domain.EventAttachmentExtracted)
	require.Len(t, extracted, 1)
	assert.Equal(t, att.ID, extracted[0].AttachmentID)
}

func TestExtractionService_ExtractPending_RetriesFailures(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	att := env.storeAttachment(t, "report.pdf", "application/pdf", []byte("%PDF"))
	pdf := &stubExtractor{name: "pdf", accepts: "application/pdf", results: []stubResult{
		{err: errors.New("pdftotext exited 1")},
		{text: "second time lucky"},
	}}
	svc := newExtractionService(env, domain.ExtractionSettings{}, pdf)

	first, err := svc.ExtractPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Success)
	assert.Equal(t, 1, first.Failed)

	stored, err := env.records.GetAttachment(ctx, att.ID)
	require.NoError(t, err)
	assert.False(t, stored.TextExtracted)
	assert.Nil(t, stored.TextContent)

	second, err := svc.ExtractPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Success)

	third, err := svc.ExtractPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, third.Total)
	assert.Equal(t, 2, pdf.Calls())
}

func TestExtractionService_ExtractPending_UnsupportedType(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	att := env.storeAttachment(t, "photo.png", "image/png", []byte{0x89, 'P', 'N', 'G'})
	svc := newExtractionService(env, domain.ExtractionSettings{},
		&stubExtractor{name: "pdf", accepts: "application/pdf", results: []stubResult{{text: "x"}}})

	summary, err := svc.ExtractPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)

	stored, err := env.records.GetAttachment(ctx, att.ID)
	require.NoError(t, err)
	assert.False(t, stored.TextExtracted)
}

func TestExtractionService_ExtractPending_DefaultRegistrySkipsPlainText(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	txt := env.storeAttachment(t, "notes.txt", "text/plain", []byte("meeting notes"))
	csv := env.storeAttachment(t, "data.csv", "text/csv", []byte("a,b\n1,2\n"))
	svc := NewExtractionService(env.records, env.blobs, extractors.NewDefaultRegistry(false), env.events, domain.ExtractionSettings{})

	summary, err := svc.ExtractPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 0, summary.Success)
	assert.Equal(t, 2, summary.Failed)

	for _, id := range []string{txt.ID, csv.ID} {
		stored, err := env.records.GetAttachment(ctx, id)
		require.NoError(t, err)
		assert.False(t, stored.TextExtracted)
		assert.Nil(t, stored.TextContent)
	}
	assert.Empty(t, env.events.OfType(domain.EventAttachmentExtracted))
}

func TestExtractionService_ExtractPending_EmptyText(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.storeAttachment(t, "scan.pdf", "application/pdf", []byte("%PDF"))
	svc := newExtractionService(env, domain.ExtractionSettings{},
		&stubExtractor{name: "pdf", accepts: "application/pdf", results: []stubResult{{text: " \n\t "}}})

	summary, err := svc.ExtractPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Success)
	assert.Equal(t, 1, summary.Failed)
}

func TestExtractionService_ExtractPending_MissingFile(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	att := env.storeAttachment(t, "gone.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, os.Remove(env.blobs.LocalPath(att.StoragePath)))
	pdf := &stubExtractor{name: "pdf", accepts: "application/pdf", results: []stubResult{{text: "x"}}}
	svc := newExtractionService(env, domain.ExtractionSettings{}, pdf)

	summary, err := svc.ExtractPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, pdf.Calls())
}

func TestExtractionService_ExtractPending_Mixed(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.storeAttachment(t, "a.pdf", "application/pdf", []byte("%PDF"))
	env.storeAttachment(t, "b.txt", "text/plain", []byte("hello"))
	env.storeAttachment(t, "c.bin", "application/octet-stream", []byte{0})
	svc := newExtractionService(env, domain.ExtractionSettings{},
		&stubExtractor{name: "pdf", accepts: "application/pdf", results: []stubResult{{text: "pdf text"}}},
		&stubExtractor{name: "text", accepts: "text/plain", results: []stubResult{{text: "hello"}}},
	)

	summary, err := svc.ExtractPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Success)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, summary.Total, summary.Success+summary.Failed)
}

func TestExtractionService_ExtractPending_RateLimited(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.storeAttachment(t, "a.pdf", "application/pdf", []byte("%PDF"))
	env.storeAttachment(t, "b.pdf", "application/pdf", []byte("%PDF"))
	pdf := &stubExtractor{name: "pdf", accepts: "application/pdf", results: []stubResult{{text: "x"}}}
	svc := newExtractionService(env, domain.ExtractionSettings{RatePerSecond: 0.001, Burst: 1}, pdf)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	summary, err := svc.ExtractPending(ctx)
	assert.Error(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Success)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, pdf.Calls())
}

func TestExtractionService_ExtractOne(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	att := env.storeAttachment(t, "notes.txt", "text/plain", []byte("notes"))
	text := &stubExtractor{name: "text", accepts: "text/plain", results: []stubResult{{text: "notes"}}}
	svc := newExtractionService(env, domain.ExtractionSettings{}, text)

	ok, err := svc.ExtractOne(ctx, att.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Already extracted: no second extractor call.
	ok, err = svc.ExtractOne(ctx, att.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, text.Calls())
}

func TestExtractionService_ExtractOne_NotFound(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	svc := newExtractionService(env, domain.ExtractionSettings{})

	_, err := svc.ExtractOne(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExtractionService_ExtractOne_Failure(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	att := env.storeAttachment(t, "notes.txt", "text/plain", []byte("notes"))
	svc := newExtractionService(env, domain.ExtractionSettings{},
		&stubExtractor{name: "text", accepts: "text/plain", results: []stubResult{{err: domain.ErrExtraction}}})

	ok, err := svc.ExtractOne(context.Background(), att.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
