// Package notifications publishes account events to an external message bus.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stockroom/internal/config"
	"stockroom/internal/observability"
)

// SignupMessage asks the mailer to send a verification link.
type SignupMessage struct {
	Email string `json:"email"`
	Token string `json:"token"`
	TS    int64  `json:"ts"`
}

// NewSignupMessage stamps the message with the current time in unix millis.
func NewSignupMessage(email, token string) SignupMessage {
	return SignupMessage{Email: email, Token: token, TS: time.Now().UnixMilli()}
}

// Publisher delivers signup messages. Implementations are safe for concurrent use.
type Publisher interface {
	Driver() string
	PublishSignup(ctx context.Context, msg SignupMessage) error
	Ping(ctx context.Context) error
	Close() error
}

// New builds the publisher selected by NOTIFY_DRIVER.
func New(cfg *config.Config) (Publisher, error) {
	switch cfg.NotifyDriver {
	case config.NotifyDriverNATS:
		return NewNATSPublisher(cfg.NATSURL, cfg.NotifySubject)
	case config.NotifyDriverRedis:
		return NewRedisPublisherFromURL(cfg.RedisURL, cfg.NotifySubject)
	case config.NotifyDriverNone, "":
		return NoopPublisher{}, nil
	default:
		return nil, fmt.Errorf("unknown notify driver %q", cfg.NotifyDriver)
	}
}

func encode(msg SignupMessage) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return payload, nil
}

// record counts a publish attempt by outcome.
func record(driver string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.NotificationsPublished.WithLabelValues(driver, outcome).Inc()
}

// NoopPublisher drops every message.
type NoopPublisher struct{}

func (NoopPublisher) Driver() string { return config.NotifyDriverNone }

func (NoopPublisher) PublishSignup(ctx context.Context, msg SignupMessage) error {
	observability.Logger().DebugContext(ctx, "notification driver disabled, dropping signup message")
	return nil
}

func (NoopPublisher) Ping(context.Context) error { return nil }

func (NoopPublisher) Close() error { return nil }
