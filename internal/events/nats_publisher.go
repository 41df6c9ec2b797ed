package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	apperrors "git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/logfields"
)

// NATSPublisher publishes run events to a JetStream subject.
type NATSPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewNATSPublisher connects to the given NATS server.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryEvents, "connect to NATS").
			WithContext("url", url).
			Retryable().
			Build()
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, apperrors.WrapError(err, apperrors.CategoryEvents, "create JetStream context").Build()
	}

	slog.Info("event publisher initialized", "url", url, "subject", subject)
	return &NATSPublisher{conn: conn, js: js, subject: subject}, nil
}

// PublishRunCompleted emits one run event.
func (p *NATSPublisher) PublishRunCompleted(ctx context.Context, event RunEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryEvents, "marshal run event").Build()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
		return apperrors.WrapError(err, apperrors.CategoryEvents, "publish run event").
			WithContext("subject", p.subject).
			Retryable().
			Build()
	}

	slog.Debug("published run event", logfields.RunID(event.RunID), "outcome", event.Outcome)
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
