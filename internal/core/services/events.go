package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-mail/internal/logger"
)

// publishEvent is best-effort; a nil publisher disables events.
func publishEvent(ctx context.Context, publisher driven.EventPublisher, event domain.Event) {
	if publisher == nil {
		return
	}
	event.ID = uuid.New().String()
	event.OccurredAt = time.Now().UTC()
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn("publish %s: %v", event.Type, err)
	}
}
