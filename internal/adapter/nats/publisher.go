package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	natsgo "github.com/nats-io/nats.go"
)

// connName identifies this service in NATS server monitoring output.
const connName = "cap-alert-dispatch"

// Publisher produces JSON messages to NATS subjects. Category bundle and
// sensor match subjects contain '/', which NATS treats as an ordinary
// subject character.
type Publisher struct {
	conn   *natsgo.Conn
	logger *slog.Logger
}

// NewPublisher connects to the NATS server at url.
func NewPublisher(url string, logger *slog.Logger) (*Publisher, error) {
	conn, err := natsgo.Connect(url, natsgo.Name(connName))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &Publisher{conn: conn, logger: logger}, nil
}

// Publish serializes payload and publishes it to subject, flushing the
// connection so the server has the message before Publish returns. The
// context bounds the flush.
func (p *Publisher) Publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("serialize message for %s: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush publish to %s: %w", subject, err)
	}
	return nil
}

// Close drains in-flight messages and closes the connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Drain()
		p.conn.Close()
	}
}
