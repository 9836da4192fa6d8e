// Package cooldown suppresses repeated alerts for the same symbol and side
// within a fixed window.
package cooldown

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"xauron/pkg/model"
)

// DefaultWindow is the minimum time between two alerts for one key
const DefaultWindow = 300 * time.Second

// Store decides whether an alert may fire. Allow is an atomic
// check-and-record: a true result has already claimed the window.
// Release gives a claim back when the alert never reached anyone.
type Store interface {
	Allow(ctx context.Context, key string, now time.Time) (bool, error)
	Release(ctx context.Context, key string) error
}

// Key builds the cooldown key for a symbol and side
func Key(symbol string, side model.Side) string {
	return strings.ToUpper(symbol) + "_" + string(side)
}

// MemoryStore keeps last-alert times in process memory
type MemoryStore struct {
	window time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

// NewMemoryStore creates an in-memory store
func NewMemoryStore(window time.Duration) *MemoryStore {
	return &MemoryStore{window: window, last: make(map[string]time.Time)}
}

// Allow reports whether key is outside its window and, if so, records now
func (s *MemoryStore) Allow(_ context.Context, key string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.last[key]; ok && now.Sub(t) < s.window {
		return false, nil
	}
	s.last[key] = now
	return true, nil
}

// Release forgets key so the next Allow succeeds
func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.last, key)
	s.mu.Unlock()
	return nil
}

// Prune forgets keys whose window has passed
func (s *MemoryStore) Prune(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, t := range s.last {
		if now.Sub(t) >= s.window {
			delete(s.last, k)
		}
	}
}

// Len returns the number of tracked keys
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.last)
}

// RedisStore shares cooldowns between processes using SET NX PX. Expiry is
// enforced by Redis on its own clock; now is stored for inspection only.
type RedisStore struct {
	client redis.UniversalClient
	window time.Duration
	prefix string
}

// NewRedisStore creates a store over an existing client
func NewRedisStore(client redis.UniversalClient, window time.Duration, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "xauron:cooldown:"
	}
	return &RedisStore{client: client, window: window, prefix: prefix}
}

// Dial connects to addr and verifies the connection
func Dial(ctx context.Context, addr, password string, db int, window time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}
	return NewRedisStore(client, window, ""), nil
}

// Allow claims key for the window if nobody holds it
func (s *RedisStore) Allow(ctx context.Context, key string, now time.Time) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+key, now.UnixMilli(), s.window).Result()
	if err != nil {
		return false, fmt.Errorf("cooldown %s: %w", key, err)
	}
	return ok, nil
}

// Release drops the claim on key
func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("cooldown release %s: %w", key, err)
	}
	return nil
}

// Close releases the client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
