package domain

// IngestSummary is returned by an ingestion run.
// Per-message failures show up here as counts, never as errors.
type IngestSummary struct {
	MailboxID          string
	Total              int
	Processed          int
	Failed             int
	Skipped            int
	AttachmentsWritten int
}

// ExtractionSummary is returned by a pending-extraction batch.
type ExtractionSummary struct {
	Success int
	Failed  int
	Total   int
}
