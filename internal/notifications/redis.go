package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"stockroom/internal/config"
	"stockroom/internal/observability"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes signup messages to a Redis pub/sub channel.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

// NewRedisPublisher creates a publisher using the provided Redis client.
func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

// NewRedisPublisherFromURL accepts either a redis:// URL or a bare host:port.
func NewRedisPublisherFromURL(redisURL, channel string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		opts = &redis.Options{Addr: redisURL}
	}
	return NewRedisPublisher(redis.NewClient(opts), channel), nil
}

func (p *RedisPublisher) Driver() string { return config.NotifyDriverRedis }

func (p *RedisPublisher) PublishSignup(ctx context.Context, msg SignupMessage) (err error) {
	ctx, span := observability.StartPublishSpan(ctx, p.Driver(), p.channel)
	defer func() {
		record(p.Driver(), err)
		observability.EndSpan(span, err)
	}()

	payload, err := encode(msg)
	if err != nil {
		return err
	}
	if err = p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to redis: %w", err)
	}
	return nil
}

func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}

// Subscribe calls onMessage for every payload on the signup channel until ctx
// is cancelled. A panicking handler is logged and does not stop the loop.
func (p *RedisPublisher) Subscribe(ctx context.Context, onMessage func(payload string)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", p.channel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.Logger().Error("panic in signup subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
