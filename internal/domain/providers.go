package domain

import "context"

// Embedder defines the capability to map text to fixed-length vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Version() string
}

// VectorIndex is the opaque similarity-search provider holding the manual corpus.
type VectorIndex interface {
	// Query returns the topK nearest passages for the given vector, best first.
	Query(ctx context.Context, vector []float32, topK int) ([]PassageCandidate, error)
	// Upsert uploads passages with their embeddings and metadata.
	Upsert(ctx context.Context, items []IndexItem) error
}

// GenerationRequest carries everything one generation call needs.
type GenerationRequest struct {
	// System is the full instruction preamble, manual context included.
	System      string
	History     []ChatTurn
	UserMessage string
}

// GenerationResult is the model output plus its token cost.
type GenerationResult struct {
	Text       string
	TokensUsed int
}

// Generator defines the capability to produce an answer from instructions,
// prior turns, and the user message.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}

// AnswerCache stores answer records keyed by the normalized query text.
// Implementations must never surface store failures: a failed read is a
// miss, a failed write is a no-op. The cache is an optimization, not a
// correctness dependency.
type AnswerCache interface {
	Get(ctx context.Context, query string) (*AnswerRecord, bool)
	Set(ctx context.Context, query string, rec *AnswerRecord)
}
