package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockroom/internal/config"
	"stockroom/internal/observability"

	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes signup messages on a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to natsURL.
func NewNATSPublisher(natsURL, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("stockroom-api"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSPublisher{conn: nc, subject: subject}, nil
}

func (p *NATSPublisher) Driver() string { return config.NotifyDriverNATS }

func (p *NATSPublisher) PublishSignup(ctx context.Context, msg SignupMessage) (err error) {
	_, span := observability.StartPublishSpan(ctx, p.Driver(), p.subject)
	defer func() {
		record(p.Driver(), err)
		observability.EndSpan(span, err)
	}()

	payload, err := encode(msg)
	if err != nil {
		return err
	}
	if err = p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish to nats: %w", err)
	}
	// Publish only buffers; flush so failures surface within ctx.
	if err = p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush nats: %w", err)
	}
	return nil
}

func (p *NATSPublisher) Ping(context.Context) error {
	if !p.conn.IsConnected() {
		return errors.New("nats not connected")
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}
