package driven

import (
	"context"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
)

// EventPublisher delivers lifecycle events to downstream consumers.
// Publishing is best-effort: callers log failures and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
	Close() error
}
