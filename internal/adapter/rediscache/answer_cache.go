package rediscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"agent-assist/internal/domain"
)

// answerKeyPrefix versions the cache schema. Bump the version whenever the
// stored record shape or the answer semantics change, so stale entries from
// an older deployment can never be served.
const answerKeyPrefix = "rag:v3:"

// kv is the consumer interface for the answer cache.
type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetEx(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// AnswerCache stores complete answer records keyed by normalized query.
// A small in-process LRU sits in front of Redis so repeated hot queries
// skip the network round-trip. All cache failures degrade to a miss; the
// cache must never fail a user-facing request.
type AnswerCache struct {
	store  kv
	local  *lru.LRU[string, *domain.AnswerRecord]
	ttl    time.Duration
	logger *slog.Logger
}

// NewAnswerCache creates the two-level answer cache. localSize bounds the
// in-process layer; both layers share the same TTL.
func NewAnswerCache(store kv, localSize int, ttl time.Duration, logger *slog.Logger) *AnswerCache {
	return &AnswerCache{
		store:  store,
		local:  lru.NewLRU[string, *domain.AnswerRecord](localSize, nil, ttl),
		ttl:    ttl,
		logger: logger,
	}
}

// Key derives the cache key from the query. Normalization (lowercase, trim)
// makes trivially-differing phrasings share one entry.
func Key(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	h := sha256.Sum256([]byte(normalized))
	return answerKeyPrefix + hex.EncodeToString(h[:])
}

// Get returns a cached answer record, or (nil, false) on any miss or failure.
func (c *AnswerCache) Get(ctx context.Context, query string) (*domain.AnswerRecord, bool) {
	key := Key(query)

	if rec, ok := c.local.Get(key); ok {
		return rec, true
	}

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			c.logger.Warn("answer_cache_get_failed", slog.String("error", err.Error()))
		}
		return nil, false
	}

	var rec domain.AnswerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// A corrupted entry is evicted so it cannot keep poisoning lookups.
		c.logger.Warn("answer_cache_corrupted", slog.String("key", key), slog.String("error", err.Error()))
		if delErr := c.store.Del(ctx, key); delErr != nil {
			c.logger.Warn("answer_cache_evict_failed", slog.String("error", delErr.Error()))
		}
		return nil, false
	}

	c.local.Add(key, &rec)
	return &rec, true
}

// Set stores an answer record with the fixed TTL. Failures are logged and
// swallowed.
func (c *AnswerCache) Set(ctx context.Context, query string, rec *domain.AnswerRecord) {
	key := Key(query)

	data, err := json.Marshal(rec)
	if err != nil {
		c.logger.Warn("answer_cache_marshal_failed", slog.String("error", err.Error()))
		return
	}

	if err := c.store.SetEx(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("answer_cache_set_failed", slog.String("error", err.Error()))
		return
	}
	c.local.Add(key, rec)
}

var _ domain.AnswerCache = (*AnswerCache)(nil)
