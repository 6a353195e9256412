package retrieval

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent-assist/internal/domain"
)

// probeEmbedder maps each probe text to a distinct one-hot vector so the
// index stub can tell probes apart.
type probeEmbedder struct {
	mu     sync.Mutex
	order  map[string]int
	failOn map[string]error
}

func newProbeEmbedder() *probeEmbedder {
	return &probeEmbedder{order: map[string]int{}, failOn: map[string]error{}}
}

func (e *probeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.failOn[text]; err != nil {
		return nil, err
	}
	idx, ok := e.order[text]
	if !ok {
		idx = len(e.order)
		e.order[text] = idx
	}
	vec := make([]float32, 8)
	vec[idx] = 1
	return vec, nil
}

func (e *probeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *probeEmbedder) Version() string { return "stub" }

type stubIndex struct {
	mu      sync.Mutex
	results map[int][]domain.PassageCandidate
	topKs   []int
	err     error
}

func (s *stubIndex) Query(_ context.Context, vector []float32, topK int) ([]domain.PassageCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.topKs = append(s.topKs, topK)
	for i, v := range vector {
		if v == 1 {
			return s.results[i], nil
		}
	}
	return nil, nil
}

func (s *stubIndex) Upsert(context.Context, []domain.IndexItem) error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func pdf(id string, score float64) domain.PassageCandidate {
	return domain.PassageCandidate{ID: id, Text: "texto " + id, Score: score, Source: "Manual GNP", DocType: "pdf"}
}

func curated(id string, score float64) domain.PassageCandidate {
	return domain.PassageCandidate{ID: id, Text: "texto " + id, Score: score, Source: "Resumen GNP", DocType: "synthetic_summary"}
}

func TestFanout_ThresholdIsStrict(t *testing.T) {
	index := &stubIndex{results: map[int][]domain.PassageCandidate{
		0: {
			pdf("at-threshold", 0.45),
			pdf("just-above", 0.4500001),
			pdf("below", 0.30),
			pdf("clearly-above", 0.80),
		},
	}}
	f := NewFanout(newProbeEmbedder(), index, DefaultConfig(), testLogger())

	got, err := f.Retrieve(context.Background(), []string{"q"}, false)
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, p := range got {
		ids[i] = p.ID
	}
	assert.ElementsMatch(t, []string{"just-above", "clearly-above"}, ids)
}

func TestFanout_DedupeFirstSeenWinsInProbeOrder(t *testing.T) {
	index := &stubIndex{results: map[int][]domain.PassageCandidate{
		0: {pdf("shared", 0.60)},
		1: {pdf("shared", 0.95), pdf("unique", 0.70)},
	}}
	embedder := newProbeEmbedder()
	// Pin probe-to-vector mapping: probes embed concurrently, so lazy
	// assignment would be racy here.
	embedder.order["first"] = 0
	embedder.order["second"] = 1
	f := NewFanout(embedder, index, DefaultConfig(), testLogger())

	got, err := f.Retrieve(context.Background(), []string{"first", "second"}, false)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// The first probe's score survives even though the second probe scored
	// the same passage higher.
	for _, p := range got {
		if p.ID == "shared" {
			assert.Equal(t, 0.60, p.Score)
		}
	}
}

func TestFanout_CuratedRanksAboveRawRegardlessOfScore(t *testing.T) {
	index := &stubIndex{results: map[int][]domain.PassageCandidate{
		0: {
			pdf("raw-high", 0.95),
			curated("curated-low", 0.50),
			pdf("raw-mid", 0.70),
			curated("curated-high", 0.88),
		},
	}}
	f := NewFanout(newProbeEmbedder(), index, DefaultConfig(), testLogger())

	got, err := f.Retrieve(context.Background(), []string{"q"}, false)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "curated-high", got[0].ID)
	assert.Equal(t, "curated-low", got[1].ID)
	assert.Equal(t, "raw-high", got[2].ID)
	assert.Equal(t, "raw-mid", got[3].ID)
}

func TestFanout_BreadthSelection(t *testing.T) {
	index := &stubIndex{results: map[int][]domain.PassageCandidate{}}
	f := NewFanout(newProbeEmbedder(), index, DefaultConfig(), testLogger())

	_, err := f.Retrieve(context.Background(), []string{"q"}, false)
	require.NoError(t, err)
	require.Len(t, index.topKs, 1)
	assert.Equal(t, 15, index.topKs[0])

	index.topKs = nil
	_, err = f.Retrieve(context.Background(), []string{"q"}, true)
	require.NoError(t, err)
	require.Len(t, index.topKs, 1)
	assert.Equal(t, 30, index.topKs[0])
}

func TestFanout_TruncatesToMax(t *testing.T) {
	many := make([]domain.PassageCandidate, 40)
	for i := range many {
		many[i] = pdf(string(rune('a'+i%26))+string(rune('0'+i/26)), 0.5+float64(i)*0.005)
	}
	index := &stubIndex{results: map[int][]domain.PassageCandidate{0: many}}
	f := NewFanout(newProbeEmbedder(), index, DefaultConfig(), testLogger())

	got, err := f.Retrieve(context.Background(), []string{"q"}, false)
	require.NoError(t, err)
	assert.Len(t, got, 20)

	got, err = f.Retrieve(context.Background(), []string{"q"}, true)
	require.NoError(t, err)
	assert.Len(t, got, 35)
}

func TestFanout_EmbedFailureAbortsAndTagsProvider(t *testing.T) {
	embedder := newProbeEmbedder()
	embedder.failOn["bad"] = errors.New("quota exceeded")
	index := &stubIndex{results: map[int][]domain.PassageCandidate{0: {pdf("ok", 0.8)}}}
	f := NewFanout(embedder, index, DefaultConfig(), testLogger())

	_, err := f.Retrieve(context.Background(), []string{"good", "bad"}, false)
	require.Error(t, err)

	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, domain.ProviderEmbedding, pe.Provider)
}

func TestFanout_SearchFailureTagsProvider(t *testing.T) {
	index := &stubIndex{err: errors.New("index unavailable")}
	f := NewFanout(newProbeEmbedder(), index, DefaultConfig(), testLogger())

	_, err := f.Retrieve(context.Background(), []string{"q"}, false)
	require.Error(t, err)

	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, domain.ProviderSearch, pe.Provider)
}

func TestFanout_PartialResultsSkipsFailedProbe(t *testing.T) {
	embedder := newProbeEmbedder()
	embedder.failOn["bad"] = errors.New("quota exceeded")
	index := &stubIndex{results: map[int][]domain.PassageCandidate{
		0: {pdf("survivor", 0.8)},
	}}

	cfg := DefaultConfig()
	cfg.PartialResults = true
	f := NewFanout(embedder, index, cfg, testLogger())

	got, err := f.Retrieve(context.Background(), []string{"good", "bad"}, false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "survivor", got[0].ID)
}

func TestFanout_PartialResultsAllFailedIsError(t *testing.T) {
	embedder := newProbeEmbedder()
	embedder.failOn["a"] = errors.New("down")
	embedder.failOn["b"] = errors.New("down")

	cfg := DefaultConfig()
	cfg.PartialResults = true
	f := NewFanout(embedder, &stubIndex{}, cfg, testLogger())

	_, err := f.Retrieve(context.Background(), []string{"a", "b"}, false)
	require.Error(t, err)

	var pe *domain.ProviderError
	assert.ErrorAs(t, err, &pe)
}

func TestFanout_EmptyResultIsNotAnError(t *testing.T) {
	index := &stubIndex{results: map[int][]domain.PassageCandidate{
		0: {pdf("too-low", 0.10)},
	}}
	f := NewFanout(newProbeEmbedder(), index, DefaultConfig(), testLogger())

	got, err := f.Retrieve(context.Background(), []string{"q"}, false)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.ScoreThreshold = 1.0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.WideProbeBreadth = 5
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.WideMaxPassages = 10
	assert.Error(t, bad.Validate())
}
