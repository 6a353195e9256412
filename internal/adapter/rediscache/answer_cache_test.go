package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent-assist/internal/domain"
)

type fakeKV struct {
	data    map[string][]byte
	getErr  error
	setErr  error
	deleted []string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string][]byte{}}
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return data, nil
}

func (f *fakeKV) SetEx(_ context.Context, key string, value []byte, _ time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Del(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	delete(f.data, key)
	return nil
}

func newTestCache(store kv) *AnswerCache {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewAnswerCache(store, 16, 24*time.Hour, logger)
}

func sampleRecord() *domain.AnswerRecord {
	return &domain.AnswerRecord{
		Answer: "El deducible es la cantidad fija a cargo del asegurado.",
		Sources: []domain.SourceCitation{
			{Source: "Manual GMM", Score: 0.812, TextPreview: "Deducible..."},
		},
		TokensUsed: 321,
	}
}

func TestKey_NormalizesQuery(t *testing.T) {
	base := Key("qué cubre el plan versátil")

	assert.Equal(t, base, Key("  Qué Cubre El Plan Versátil  "))
	assert.NotEqual(t, base, Key("qué cubre el plan platino"))
	assert.True(t, strings.HasPrefix(base, "rag:v3:"))
}

func TestAnswerCache_RoundTrip(t *testing.T) {
	store := newFakeKV()
	cache := newTestCache(store)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "qué es el deducible")
	assert.False(t, ok)

	rec := sampleRecord()
	cache.Set(ctx, "qué es el deducible", rec)

	got, ok := cache.Get(ctx, "QUÉ ES EL DEDUCIBLE")
	require.True(t, ok)
	assert.Equal(t, rec.Answer, got.Answer)
	assert.Equal(t, rec.TokensUsed, got.TokensUsed)
	require.Len(t, got.Sources, 1)
	assert.InDelta(t, 0.812, got.Sources[0].Score, 1e-9)
}

func TestAnswerCache_LocalLayerSkipsStore(t *testing.T) {
	store := newFakeKV()
	cache := newTestCache(store)
	ctx := context.Background()

	cache.Set(ctx, "coberturas del plan premium", sampleRecord())

	// A store outage after the write must not break lookups for hot keys.
	store.getErr = errors.New("connection refused")

	got, ok := cache.Get(ctx, "coberturas del plan premium")
	require.True(t, ok)
	assert.Equal(t, sampleRecord().Answer, got.Answer)
}

func TestAnswerCache_StoreFailureIsAMiss(t *testing.T) {
	store := newFakeKV()
	store.getErr = errors.New("connection refused")
	cache := newTestCache(store)

	_, ok := cache.Get(context.Background(), "requisitos de contratación")
	assert.False(t, ok)
}

func TestAnswerCache_SetFailureIsSwallowed(t *testing.T) {
	store := newFakeKV()
	store.setErr = errors.New("readonly replica")
	cache := newTestCache(store)
	ctx := context.Background()

	cache.Set(ctx, "exclusiones gmm", sampleRecord())

	// The failed write must not populate either layer.
	_, ok := cache.Get(ctx, "exclusiones gmm")
	assert.False(t, ok)
}

func TestAnswerCache_CorruptedEntryEvicted(t *testing.T) {
	store := newFakeKV()
	cache := newTestCache(store)
	ctx := context.Background()

	key := Key("planes internacionales")
	store.data[key] = []byte("{not json")

	_, ok := cache.Get(ctx, "planes internacionales")
	assert.False(t, ok)
	assert.Contains(t, store.deleted, key)
}

func TestAnswerCache_StoredShapeIsStable(t *testing.T) {
	store := newFakeKV()
	cache := newTestCache(store)
	ctx := context.Background()

	cache.Set(ctx, "qué es el deducible", sampleRecord())

	raw, ok := store.data[Key("qué es el deducible")]
	require.True(t, ok)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Contains(t, payload, "answer")
	assert.Contains(t, payload, "sources")
	assert.Contains(t, payload, "tokens_used")
}
