package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dennisdiepolder/dropboard/internal/types"
	"github.com/redis/go-redis/v9"
)

// RowStore caches fetched sheet payloads by key
type RowStore interface {
	// Get returns the payload and whether it was found
	Get(ctx context.Context, key string) (types.SheetPayload, bool, error)
	Set(ctx context.Context, key string, payload types.SheetPayload, ttl time.Duration) error
}

type rowEntry struct {
	payload types.SheetPayload
	expires time.Time
}

// MemoryRowStore is a process-local RowStore
type MemoryRowStore struct {
	entries map[string]rowEntry
	mu      sync.RWMutex
	now     func() time.Time
}

// NewMemoryRowStore creates an empty in-memory store
func NewMemoryRowStore() *MemoryRowStore {
	return &MemoryRowStore{
		entries: make(map[string]rowEntry),
		now:     time.Now,
	}
}

func (s *MemoryRowStore) Get(_ context.Context, key string) (types.SheetPayload, bool, error) {
	s.mu.RLock()
	entry, exists := s.entries[key]
	s.mu.RUnlock()

	if !exists {
		return types.SheetPayload{}, false, nil
	}
	if !entry.expires.IsZero() && !s.now().Before(entry.expires) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return types.SheetPayload{}, false, nil
	}
	return entry.payload, true, nil
}

func (s *MemoryRowStore) Set(_ context.Context, key string, payload types.SheetPayload, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := rowEntry{payload: payload}
	if ttl > 0 {
		entry.expires = s.now().Add(ttl)
	}
	s.entries[key] = entry
	return nil
}

// RedisRowStore shares cached payloads between replicas
type RedisRowStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRowStore creates a store that namespaces keys with prefix
func NewRedisRowStore(client redis.UniversalClient, prefix string) *RedisRowStore {
	return &RedisRowStore{client: client, prefix: prefix}
}

func (s *RedisRowStore) Get(ctx context.Context, key string) (types.SheetPayload, bool, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.SheetPayload{}, false, nil
	}
	if err != nil {
		return types.SheetPayload{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var payload types.SheetPayload
	if err := json.Unmarshal(val, &payload); err != nil {
		return types.SheetPayload{}, false, fmt.Errorf("decode cached rows %s: %w", key, err)
	}
	return payload, true, nil
}

func (s *RedisRowStore) Set(ctx context.Context, key string, payload types.SheetPayload, ttl time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode rows %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

