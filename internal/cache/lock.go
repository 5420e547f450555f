package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
)

// ErrLockHeld is returned when another fetch holds the lock
var ErrLockHeld = errors.New("lock held")

// Unlock releases an obtained lock
type Unlock func(ctx context.Context) error

// Locker serializes upstream fetches per key
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Unlock, error)
}

// MemoryLocker is a process-local Locker. Like redislock, each hold carries
// a token and only its holder can release it.
type MemoryLocker struct {
	held map[string]memoryLock
	mu   sync.Mutex
}

type memoryLock struct {
	token string
	until time.Time
}

// NewMemoryLocker creates a Locker for a single replica
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]memoryLock)}
}

func (l *MemoryLocker) Obtain(_ context.Context, key string, ttl time.Duration) (Unlock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cur, ok := l.held[key]; ok && time.Now().Before(cur.until) {
		return nil, ErrLockHeld
	}
	token := uuid.NewString()
	l.held[key] = memoryLock{token: token, until: time.Now().Add(ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		// expired and taken over by another holder
		if cur, ok := l.held[key]; ok && cur.token == token {
			delete(l.held, key)
		}
		return nil
	}, nil
}

// RedisLocker holds locks in Redis so replicas share them
type RedisLocker struct {
	client *redislock.Client
}

// NewRedisLocker wraps a redislock client
func NewRedisLocker(client *redislock.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Unlock, error) {
	lock, err := l.client.Obtain(ctx, "lock:"+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockHeld
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return err
		}
		return nil
	}, nil
}
