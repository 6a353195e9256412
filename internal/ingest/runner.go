package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"agent-assist/internal/domain"
)

// Record is one passage in the ingestion input, one JSON object per line.
type Record struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Source  string `json:"source"`
	DocType string `json:"doc_type"`
}

// Config holds tunable parameters for an ingestion run.
type Config struct {
	BatchSize int
	DryRun    bool
}

// DefaultConfig returns the production ingestion parameters.
func DefaultConfig() Config {
	return Config{BatchSize: 50}
}

// Runner embeds passage batches and upserts them into the vector index.
type Runner struct {
	embedder domain.Embedder
	index    domain.VectorIndex
	cfg      Config
	logger   *slog.Logger
}

// NewRunner creates an ingestion runner.
func NewRunner(embedder domain.Embedder, index domain.VectorIndex, cfg Config, logger *slog.Logger) *Runner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	return &Runner{embedder: embedder, index: index, cfg: cfg, logger: logger}
}

// Summary reports what an ingestion run did.
type Summary struct {
	Read     int
	Skipped  int
	Upserted int
}

// Run reads JSONL records from r and ingests them batch by batch. Records
// missing an id or text are skipped and counted, not fatal: one malformed
// line must not abort a multi-thousand passage run.
func (r *Runner) Run(ctx context.Context, input io.Reader) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	batch := make([]Record, 0, r.cfg.BatchSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			r.logger.Warn("record_skipped",
				slog.Int("line", lineNo),
				slog.String("error", err.Error()))
			summary.Skipped++
			continue
		}
		if rec.ID == "" || rec.Text == "" {
			r.logger.Warn("record_skipped",
				slog.Int("line", lineNo),
				slog.String("error", "missing id or text"))
			summary.Skipped++
			continue
		}

		summary.Read++
		batch = append(batch, rec)
		if len(batch) == r.cfg.BatchSize {
			if err := r.flush(ctx, batch, summary); err != nil {
				return summary, err
			}
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("read input: %w", err)
	}

	if len(batch) > 0 {
		if err := r.flush(ctx, batch, summary); err != nil {
			return summary, err
		}
	}

	r.logger.Info("ingest_completed",
		slog.Int("read", summary.Read),
		slog.Int("skipped", summary.Skipped),
		slog.Int("upserted", summary.Upserted),
		slog.Bool("dry_run", r.cfg.DryRun),
		slog.String("embedder_version", r.embedder.Version()),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return summary, nil
}

func (r *Runner) flush(ctx context.Context, batch []Record, summary *Summary) error {
	if r.cfg.DryRun {
		summary.Upserted += len(batch)
		return nil
	}

	texts := make([]string, len(batch))
	for i, rec := range batch {
		texts[i] = rec.Text
	}

	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}

	items := make([]domain.IndexItem, len(batch))
	for i, rec := range batch {
		items[i] = domain.IndexItem{
			ID:      rec.ID,
			Values:  vectors[i],
			Text:    rec.Text,
			Source:  rec.Source,
			DocType: rec.DocType,
		}
	}

	if err := r.index.Upsert(ctx, items); err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}
	summary.Upserted += len(batch)
	return nil
}
