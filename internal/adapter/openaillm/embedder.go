package openaillm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"agent-assist/internal/domain"
)

// Embedder generates query embeddings through the OpenAI embeddings API.
// A client-side limiter paces requests so bulk ingestion cannot starve
// interactive queries of upstream quota.
type Embedder struct {
	client  *openai.Client
	model   openai.EmbeddingModel
	limiter *rate.Limiter
	logger  *slog.Logger
}

// EmbedderConfig holds the embedding provider settings.
type EmbedderConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// RequestsPerSecond caps outbound embedding calls. Zero disables pacing.
	RequestsPerSecond float64
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg EmbedderConfig, logger *slog.Logger) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Embedder{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   openai.EmbeddingModel(cfg.Model),
		limiter: limiter,
		logger:  logger,
	}
}

// Embed returns the vector for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one vector per input text, in input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding limiter: %w", err)
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          texts,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	})
	if err != nil {
		e.logger.Error("embed_failed",
			slog.Int("text_count", len(texts)),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}

	e.logger.Info("embed_completed",
		slog.Int("text_count", len(texts)),
		slog.String("model", string(e.model)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return vectors, nil
}

func (e *Embedder) Version() string {
	return string(e.model)
}

var _ domain.Embedder = (*Embedder)(nil)
