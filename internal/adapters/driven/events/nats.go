package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/custodia-labs/sercha-mail/internal/core/domain"
	"github.com/custodia-labs/sercha-mail/internal/core/ports/driven"
)

// StreamName is the JetStream stream holding mail events.
const StreamName = "MAIL_EVENTS"

// jetStream is the subset of nats.JetStreamContext the publisher uses.
type jetStream interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// Ensure NATSPublisher implements the interface.
var _ driven.EventPublisher = (*NATSPublisher)(nil)

// NATSPublisher publishes events to NATS JetStream.
type NATSPublisher struct {
	nc      *nats.Conn
	js      jetStream
	subject string
}

// NewNATSPublisher connects to url and ensures the stream for subject exists.
// Events are published on "<subject>.<event type>".
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("sercha-mail"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("getting JetStream context: %w", err)
	}

	if err := ensureStream(js, subject); err != nil {
		nc.Close()
		return nil, err
	}

	return &NATSPublisher{nc: nc, js: js, subject: subject}, nil
}

func ensureStream(js nats.JetStreamContext, subject string) error {
	if info, err := js.StreamInfo(StreamName); err == nil && info != nil {
		return nil
	}

	_, err := js.AddStream(&nats.StreamConfig{
		Name:       StreamName,
		Subjects:   []string{subject + ".>"},
		Storage:    nats.FileStorage,
		Retention:  nats.LimitsPolicy,
		Duplicates: 10 * time.Minute,
		MaxAge:     30 * 24 * time.Hour,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("creating stream: %w", err)
	}
	return nil
}

// Publish sends one event. The event ID is the JetStream dedup key.
func (p *NATSPublisher) Publish(ctx context.Context, event domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	if _, err := p.js.Publish(Subject(p.subject, event.Type), payload, nats.MsgId(event.ID)); err != nil {
		return fmt.Errorf("publishing %s: %w", event.Type, err)
	}
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}

// Subject builds the subject for an event type.
func Subject(base string, t domain.EventType) string {
	return strings.TrimSuffix(base, ".") + "." + string(t)
}
