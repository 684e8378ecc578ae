package testutil

import (
	"context"
	"sync"

	"stockroom/internal/notifications"
	"stockroom/internal/storage"
)

// ObjectStoreStub wraps a MemoryStore with injectable failures.
type ObjectStoreStub struct {
	*storage.MemoryStore
	PutErr    error
	DeleteErr error
}

// NewObjectStoreStub returns a stub over an empty in-memory bucket.
func NewObjectStoreStub() *ObjectStoreStub {
	return &ObjectStoreStub{MemoryStore: storage.NewMemoryStore("test-bucket")}
}

func (s *ObjectStoreStub) Put(ctx context.Context, key, contentType string, data []byte, meta map[string]string) error {
	if s.PutErr != nil {
		return s.PutErr
	}
	return s.MemoryStore.Put(ctx, key, contentType, data, meta)
}

func (s *ObjectStoreStub) Delete(ctx context.Context, key string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	return s.MemoryStore.Delete(ctx, key)
}

// RecordingPublisher collects published signup messages.
type RecordingPublisher struct {
	Err  error
	Sent chan notifications.SignupMessage

	mu       sync.Mutex
	messages []notifications.SignupMessage
}

// NewRecordingPublisher buffers up to 16 messages on Sent.
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{Sent: make(chan notifications.SignupMessage, 16)}
}

func (p *RecordingPublisher) Driver() string { return "recording" }

func (p *RecordingPublisher) PublishSignup(_ context.Context, msg notifications.SignupMessage) error {
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	p.messages = append(p.messages, msg)
	p.mu.Unlock()
	select {
	case p.Sent <- msg:
	default:
	}
	return nil
}

func (p *RecordingPublisher) Ping(context.Context) error { return p.Err }

func (p *RecordingPublisher) Close() error { return nil }

// Messages returns a copy of everything published so far.
func (p *RecordingPublisher) Messages() []notifications.SignupMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notifications.SignupMessage(nil), p.messages...)
}
