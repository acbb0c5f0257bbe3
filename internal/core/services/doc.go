// Package services implements the driving port interfaces.
// Services contain the core ingestion and extraction logic and orchestrate
// calls to driven ports (adapters).
//
// Services are pure Go with no CGO. The only third-party imports are small
// utility libraries (uuid, x/text, x/time).
package services
