package cartstore

import (
	"context"
	"errors"
	"sync"

	"github.com/modecraft/storefront-backend/pkg/redis"
)

// ErrNotFound reports an absent cart key. Callers treat absence as an
// empty cart.
var ErrNotFound = errors.New("cartstore: key not found")

// Storage is the durable key-value backend holding serialized carts.
type Storage interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
}

// MemoryStorage is the in-process backend used by tests and as the
// degraded fallback when durable storage fails.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStorage builds an empty in-memory backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: map[string][]byte{}}
}

// Read returns the stored bytes or ErrNotFound.
func (m *MemoryStorage) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Write stores a copy of data under key.
func (m *MemoryStorage) Write(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	m.data[key] = stored
	return nil
}

// RedisStorage persists carts in Redis under namespaced keys.
type RedisStorage struct {
	client *redis.Client
}

// NewRedisStorage wraps the shared redis client.
func NewRedisStorage(client *redis.Client) *RedisStorage {
	return &RedisStorage{client: client}
}

// Read loads the serialized cart, mapping missing keys to ErrNotFound.
func (r *RedisStorage) Read(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.client.CartKey(key))
	if err != nil {
		if redis.IsNil(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return []byte(value), nil
}

// Write stores the serialized cart. Carts have no TTL; they survive
// until cleared or overwritten.
func (r *RedisStorage) Write(ctx context.Context, key string, data []byte) error {
	return r.client.Set(ctx, r.client.CartKey(key), data, 0)
}
