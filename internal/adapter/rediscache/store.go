package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// ErrKeyNotFound is returned by Get when the key does not exist.
var ErrKeyNotFound = errors.New("key not found")

// Config holds connection parameters for the Redis store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Store implements the key-value operations used by the answer cache and
// the rate limiter, via rueidis.
type Store struct {
	client rueidis.Client
}

// NewStore creates a Redis store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client}, nil
}

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.client.B().Get().Key(key).Build()
	data, err := s.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

// SetEx stores a value with an expiration.
func (s *Store) SetEx(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cmd := s.client.B().Set().Key(key).Value(string(value)).Ex(ttl).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Del removes a key. Deleting a missing key is not an error.
func (s *Store) Del(ctx context.Context, key string) error {
	cmd := s.client.B().Del().Key(key).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// IncrWindow increments a fixed-window counter and returns the new count.
// The window TTL is set only when the key has no expiry yet, so the window
// boundary stays anchored to the first request in it.
func (s *Store) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	incr := s.client.B().Incr().Key(key).Build()
	count, err := s.client.Do(ctx, incr).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}

	expire := s.client.B().Expire().Key(key).Seconds(int64(window.Seconds())).Nx().Build()
	if err := s.client.Do(ctx, expire).Error(); err != nil {
		return 0, fmt.Errorf("expire %s: %w", key, err)
	}
	return count, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}
