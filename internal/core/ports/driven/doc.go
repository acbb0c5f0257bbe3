// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - IdentityStore: Organization and Contact persistence
//   - MailboxStore: Ingestion batch persistence
//   - MessageStore: Message persistence with per-message transactions
//   - AttachmentStore: Attachment metadata and extraction state
//   - BlobStore: Path-addressable attachment bytes
//   - WalkerFactory: Opens an ArchiveWalker for an archive file
//   - ExtractorRegistry: Selects a text Extractor for an attachment
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EventPublisher: Lifecycle events for downstream consumers
//   - SchedulerStore: Background task state (watch mode only)
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, archive or extractor package
package driven
