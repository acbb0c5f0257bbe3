// Package events publishes ingestion and extraction events.
//
// NATSPublisher sends events to a JetStream stream so downstream
// consumers (search indexing, analysis) can react to new mail. Noop is
// used when no NATS server is configured, and Recorder keeps events in
// memory for tests.
package events
