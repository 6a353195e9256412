package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"agent-assist/internal/domain"
)

const (
	// Metadata fallbacks for passages ingested before the metadata
	// backfill added explicit source/doc_type fields.
	defaultSource  = "Manual GNP"
	defaultDocType = "pdf"
)

// Config holds connection parameters for a Pinecone index.
type Config struct {
	APIKey    string
	IndexHost string
	Namespace string
	Timeout   time.Duration
}

// Validate checks required connection parameters.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("pinecone API key is required")
	}
	if c.IndexHost == "" {
		return fmt.Errorf("pinecone index host is required")
	}
	return nil
}

// Client talks to the Pinecone data-plane REST API.
type Client struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a Pinecone data-plane client. httpClient should come
// from the shared pooled transport.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(cfg.IndexHost, "http") {
		cfg.IndexHost = "https://" + cfg.IndexHost
	}
	return &Client{cfg: cfg, client: httpClient, logger: logger}, nil
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	Namespace       string    `json:"namespace,omitempty"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type matchMetadata struct {
	Text    string `json:"text"`
	Source  string `json:"source"`
	DocType string `json:"doc_type"`
}

type queryResponse struct {
	Matches []struct {
		ID       string        `json:"id"`
		Score    float64       `json:"score"`
		Metadata matchMetadata `json:"metadata"`
	} `json:"matches"`
}

// Query returns the topK nearest passages for the given vector, best first.
func (c *Client) Query(ctx context.Context, vector []float32, topK int) ([]domain.PassageCandidate, error) {
	start := time.Now()

	var resp queryResponse
	err := c.post(ctx, "/query", queryRequest{
		Vector:          vector,
		TopK:            topK,
		Namespace:       c.cfg.Namespace,
		IncludeMetadata: true,
	}, &resp)
	if err != nil {
		c.logger.Error("pinecone_query_failed",
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return nil, err
	}

	candidates := make([]domain.PassageCandidate, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		source := m.Metadata.Source
		if source == "" {
			source = defaultSource
		}
		docType := m.Metadata.DocType
		if docType == "" {
			docType = defaultDocType
		}
		candidates = append(candidates, domain.PassageCandidate{
			ID:      m.ID,
			Text:    m.Metadata.Text,
			Score:   m.Score,
			Source:  source,
			DocType: docType,
		})
	}

	c.logger.Info("pinecone_query_completed",
		slog.Int("top_k", topK),
		slog.Int("match_count", len(candidates)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return candidates, nil
}

type upsertVector struct {
	ID       string            `json:"id"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata"`
}

type upsertRequest struct {
	Vectors   []upsertVector `json:"vectors"`
	Namespace string         `json:"namespace,omitempty"`
}

type upsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

// Upsert uploads passages with their embeddings and metadata.
func (c *Client) Upsert(ctx context.Context, items []domain.IndexItem) error {
	vectors := make([]upsertVector, len(items))
	for i, item := range items {
		vectors[i] = upsertVector{
			ID:     item.ID,
			Values: item.Values,
			Metadata: map[string]string{
				"text":     item.Text,
				"source":   item.Source,
				"doc_type": item.DocType,
			},
		}
	}

	var resp upsertResponse
	if err := c.post(ctx, "/vectors/upsert", upsertRequest{
		Vectors:   vectors,
		Namespace: c.cfg.Namespace,
	}, &resp); err != nil {
		return err
	}

	c.logger.Info("pinecone_upsert_completed",
		slog.Int("vector_count", len(items)),
		slog.Int("upserted_count", resp.UpsertedCount))
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.IndexHost+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Api-Key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call pinecone: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pinecone returned status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

var _ domain.VectorIndex = (*Client)(nil)
