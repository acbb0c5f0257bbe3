// Package extractors provides the text extractors used by the extraction
// stage and the registry that picks one for an attachment.
//
// Extractors are selected from the attachment's declared content type,
// falling back to its filename extension. File contents are never sniffed.
package extractors
