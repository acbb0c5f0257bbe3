package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
)

func seedMailbox(t *testing.T, store *RecordStore, id string) {
	t.Helper()
	require.NoError(t, store.CreateMailbox(context.Background(), &domain.Mailbox{
		ID:         id,
		SourceName: id + ".mbox",
		SourceType: domain.SourceTypeTextStore,
		State:      domain.RunStateCreated,
		CreatedAt:  time.Now(),
	}))
}

func TestRecordStore_OrganizationUniqueDomain(t *testing.T) {
	ctx := context.Background()
	store := NewRecordStore()

	require.NoError(t, store.CreateOrganization(ctx, &domain.Organization{ID: "o1", Domain: "acme.com"}))
	err := store.CreateOrganization(ctx, &domain.Organization{ID: "o2", Domain: "acme.com"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	org, err := store.GetOrganizationByDomain(ctx, "acme.com")
	require.NoError(t, err)
	assert.Equal(t, "o1", org.ID)

	_, err = store.GetOrganizationByDomain(ctx, "other.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordStore_ContactEmailCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	store := NewRecordStore()

	require.NoError(t, store.CreateContact(ctx, &domain.Contact{ID: "c1", Email: "bob@acme.com"}))

	c, err := store.GetContactByEmail(ctx, "BOB@Acme.com")
	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID)

	err = store.CreateContact(ctx, &domain.Contact{ID: "c2", Email: "Bob@ACME.com"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestRecordStore_MessageTxCommit(t *testing.T) {
	ctx := context.Background()
	store := NewRecordStore()
	seedMailbox(t, store, "mb1")

	tx, err := store.BeginMessage(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.CreateMessage(ctx, &domain.Message{ID: "m1", MailboxID: "mb1", Fingerprint: "fp1"}))
	require.NoError(t, tx.CreateAttachment(ctx, &domain.Attachment{ID: "a1", MessageID: "m1", StoragePath: "m1/report.pdf"}))

	// Nothing visible before commit.
	_, err = store.GetMessage(ctx, "m1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, tx.Commit())
	require.NoError(t, tx.Rollback())

	msg, err := store.GetMessage(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "mb1", msg.MailboxID)

	atts, err := store.ListAttachments(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, atts, 1)

	ok, err := store.HasFingerprint(ctx, "fp1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRecordStore_MessageTxRollback(t *testing.T) {
	ctx := context.Background()
	store := NewRecordStore()
	seedMailbox(t, store, "mb1")

	tx, err := store.BeginMessage(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.CreateMessage(ctx, &domain.Message{ID: "m1", MailboxID: "mb1"}))
	require.NoError(t, tx.CreateAttachment(ctx, &domain.Attachment{ID: "a1", MessageID: "m1", StoragePath: "m1/a"}))
	require.NoError(t, tx.Rollback())

	assert.Equal(t, 0, store.MessageCount())
	assert.Equal(t, 0, store.AttachmentCount())
}

func TestRecordStore_AttachmentRequiresMessageInTx(t *testing.T) {
	ctx := context.Background()
	store := NewRecordStore()

	tx, err := store.BeginMessage(ctx)
	require.NoError(t, err)
	err = tx.CreateAttachment(ctx, &domain.Attachment{ID: "a1", MessageID: "ghost", StoragePath: "ghost/a"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordStore_StoragePathUnique(t *testing.T) {
	ctx := context.Background()
	store := NewRecordStore()
	seedMailbox(t, store, "mb1")

	tx, _ := store.BeginMessage(ctx)
	require.NoError(t, tx.CreateMessage(ctx, &domain.Message{ID: "m1", MailboxID: "mb1"}))
	require.NoError(t, tx.CreateAttachment(ctx, &domain.Attachment{ID: "a1", MessageID: "m1", StoragePath: "m1/x"}))
	err := tx.CreateAttachment(ctx, &domain.Attachment{ID: "a2", MessageID: "m1", StoragePath: "m1/x"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestRecordStore_PendingAndMarkExtracted(t *testing.T) {
	ctx := context.Background()
	store := NewRecordStore()
	seedMailbox(t, store, "mb1")

	tx, _ := store.BeginMessage(ctx)
	require.NoError(t, tx.CreateMessage(ctx, &domain.Message{ID: "m1", MailboxID: "mb1"}))
	require.NoError(t, tx.CreateAttachment(ctx, &domain.Attachment{ID: "a1", MessageID: "m1", StoragePath: "m1/a.pdf"}))
	require.NoError(t, tx.CreateAttachment(ctx, &domain.Attachment{ID: "a2", MessageID: "m1", StoragePath: "m1/b.pdf"}))
	require.NoError(t, tx.Commit())

	require.NoError(t, store.MarkExtracted(ctx, "a1", "hello"))

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "a2", pending[0].ID)

	att, err := store.GetAttachment(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, att.TextExtracted)
	require.NotNil(t, att.TextContent)
	assert.Equal(t, "hello", *att.TextContent)

	assert.ErrorIs(t, store.MarkExtracted(ctx, "missing", "x"), domain.ErrNotFound)
}

func TestRecordStore_DeleteMailboxCascades(t *testing.T) {
	ctx := context.Background()
	store := NewRecordStore()
	seedMailbox(t, store, "mb1")
	seedMailbox(t, store, "mb2")

	for _, id := range []string{"m1", "m2"} {
		tx, _ := store.BeginMessage(ctx)
		mbID := "mb1"
		if id == "m2" {
			mbID = "mb2"
		}
		require.NoError(t, tx.CreateMessage(ctx, &domain.Message{ID: id, MailboxID: mbID, Fingerprint: "fp-" + id}))
		require.NoError(t, tx.CreateAttachment(ctx, &domain.Attachment{ID: "a-" + id, MessageID: id, StoragePath: id + "/f"}))
		require.NoError(t, tx.Commit())
	}

	require.NoError(t, store.DeleteMailbox(ctx, "mb1"))

	assert.Equal(t, 1, store.MessageCount())
	assert.Equal(t, 1, store.AttachmentCount())
	ok, _ := store.HasFingerprint(ctx, "fp-m1")
	assert.False(t, ok)

	assert.ErrorIs(t, store.DeleteMailbox(ctx, "mb1"), domain.ErrNotFound)
}

func TestRecordStore_ListMailboxesNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewRecordStore()
	now := time.Now()

	require.NoError(t, store.CreateMailbox(ctx, &domain.Mailbox{ID: "old", CreatedAt: now.Add(-time.Hour)}))
	require.NoError(t, store.CreateMailbox(ctx, &domain.Mailbox{ID: "new", CreatedAt: now}))

	list, err := store.ListMailboxes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
}
