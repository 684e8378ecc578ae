package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"stockroom/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPublisher_PublishSignup(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	p := NewRedisPublisher(rdb, "user.signup")
	defer func() { _ = p.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payloads := make(chan string, 1)
	require.NoError(t, p.Subscribe(ctx, func(payload string) {
		payloads <- payload
	}))

	msg := NewSignupMessage("jane.doe@example.com", "tok-1")
	require.NoError(t, p.PublishSignup(context.Background(), msg))

	select {
	case payload := <-payloads:
		var got SignupMessage
		require.NoError(t, json.Unmarshal([]byte(payload), &got))
		assert.Equal(t, msg, got)
	case <-time.After(time.Second):
		t.Fatal("signup message not delivered")
	}

	assert.NoError(t, p.Ping(context.Background()))
}

func TestRedisPublisher_PanickingHandler(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	p := NewRedisPublisher(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "user.signup")
	defer func() { _ = p.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 2)
	require.NoError(t, p.Subscribe(ctx, func(string) {
		calls <- struct{}{}
		panic("boom")
	}))

	require.NoError(t, p.PublishSignup(context.Background(), NewSignupMessage("a@b.co", "1")))
	require.NoError(t, p.PublishSignup(context.Background(), NewSignupMessage("a@b.co", "2")))

	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(time.Second):
			t.Fatal("subscriber stopped after panic")
		}
	}
}

func TestRedisPublisher_ServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	p := NewRedisPublisher(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "user.signup")
	mr.Close()

	assert.Error(t, p.PublishSignup(context.Background(), NewSignupMessage("a@b.co", "1")))
	assert.Error(t, p.Ping(context.Background()))
}

func TestNew(t *testing.T) {
	p, err := New(&config.Config{NotifyDriver: config.NotifyDriverNone})
	require.NoError(t, err)
	assert.Equal(t, config.NotifyDriverNone, p.Driver())
	assert.NoError(t, p.PublishSignup(context.Background(), NewSignupMessage("a@b.co", "1")))

	p, err = New(&config.Config{NotifyDriver: config.NotifyDriverRedis, RedisURL: "redis://localhost:6379/0", NotifySubject: "user.signup"})
	require.NoError(t, err)
	assert.Equal(t, config.NotifyDriverRedis, p.Driver())
	_ = p.Close()

	_, err = New(&config.Config{NotifyDriver: "sns"})
	assert.Error(t, err)

	_, err = New(&config.Config{NotifyDriver: config.NotifyDriverNATS, NATSURL: "nats://127.0.0.1:1"})
	assert.Error(t, err)
}
