// Package storage keeps image bytes in an object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"stockroom/internal/config"
	"stockroom/internal/observability"
)

// ErrNotFound is returned by Get for keys that hold no object.
var ErrNotFound = errors.New("object not found")

// ObjectStore is the blob backend for product images.
type ObjectStore interface {
	Bucket() string
	Put(ctx context.Context, key, contentType string, data []byte, meta map[string]string) error
	// Delete is idempotent. Deleting a missing key succeeds.
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// New returns the S3 store for the configured bucket. Without a bucket,
// outside production, images live in memory for the life of the process.
func New(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	if cfg.S3Bucket == "" {
		if cfg.IsProduction() {
			return nil, errors.New("S3_BUCKET is required in production")
		}
		observability.Logger().Warn("S3_BUCKET not set, images are kept in memory")
		return NewMemoryStore("local"), nil
	}

	store, err := NewS3Store(ctx, S3Config{
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		Endpoint:     cfg.S3Endpoint,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		UsePathStyle: cfg.S3UsePathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}
	return store, nil
}

// Object is a stored blob held by MemoryStore.
type Object struct {
	ContentType string
	Data        []byte
	Metadata    map[string]string
}

// MemoryStore is an ObjectStore kept in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]Object
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(bucket string) *MemoryStore {
	return &MemoryStore{bucket: bucket, objects: make(map[string]Object)}
}

func (m *MemoryStore) Bucket() string { return m.bucket }

func (m *MemoryStore) Put(ctx context.Context, key, contentType string, data []byte, meta map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	metaCopy := make(map[string]string, len(meta))
	for k, v := range meta {
		metaCopy[k] = v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{ContentType: contentType, Data: buf, Metadata: metaCopy}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

// Get returns the object stored under key.
func (m *MemoryStore) Get(key string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return Object{}, ErrNotFound
	}
	return obj, nil
}

// Len reports how many objects are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
