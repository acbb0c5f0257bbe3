// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, accessed through jmoiron/sqlx. It implements multiple store interfaces
// through a single database connection:
//
//   - IdentityStore: organizations and contacts
//   - MailboxStore: ingestion runs and their counts
//   - MessageStore: messages, written through per-message transactions
//   - AttachmentStore: attachment metadata and extracted text
//   - SchedulerStore: background task state for watch mode
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-mail/data/mail.db
//
// # Thread Safety
//
// All operations are thread-safe. SQLite in WAL mode allows concurrent readers
// with a single writer; writers wait on busy_timeout rather than failing.
package sqlite
