package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"agent-assist/internal/adapter/openaillm"
	"agent-assist/internal/adapter/pinecone"
	"agent-assist/internal/infra/config"
	"agent-assist/internal/infra/httpclient"
	"agent-assist/internal/ingest"
)

var (
	version = "dev"

	// Global flags
	verbose bool

	// Run command flags
	batchSize int
	dryRun    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "ingest",
	Short:   "Ingest manual passages into the vector index",
	Version: version,
}

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Embed and upsert passages from a JSONL file",
	Long: `Embed and upsert passages from a JSONL file into the vector index.

Each line is one JSON object with id, text, source, and doc_type fields.
Reads from stdin when no file is given.

Examples:
  # Ingest a corpus export
  ingest run passages.jsonl

  # Pipe from a converter
  pdf-extract manual.pdf | ingest run

  # Dry run to validate the input
  ingest run passages.jsonl --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	runCmd.Flags().IntVar(&batchSize, "batch-size", 50, "passages per embedding batch")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and count without embedding or upserting")

	rootCmd.AddCommand(runCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

func runIngest(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg := config.Load()

	input := os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		input = f
	}

	embedder := openaillm.NewEmbedder(openaillm.EmbedderConfig{
		APIKey:            cfg.OpenAIAPIKey,
		BaseURL:           cfg.EmbeddingBaseURL,
		Model:             cfg.EmbeddingModel,
		RequestsPerSecond: cfg.EmbeddingRPS,
	}, logger)

	index, err := pinecone.NewClient(pinecone.Config{
		APIKey:    cfg.PineconeAPIKey,
		IndexHost: cfg.PineconeIndexHost,
		Namespace: cfg.PineconeNamespace,
		Timeout:   cfg.PineconeTimeout,
	}, httpclient.NewPooledClient(cfg.PineconeTimeout), logger)
	if err != nil {
		return fmt.Errorf("create index client: %w", err)
	}

	runner := ingest.NewRunner(embedder, index, ingest.Config{
		BatchSize: batchSize,
		DryRun:    dryRun,
	}, logger)

	summary, err := runner.Run(cmd.Context(), input)
	if err != nil {
		return fmt.Errorf("run ingest: %w", err)
	}

	fmt.Printf("Ingest finished:\n")
	fmt.Printf("  Read:     %d\n", summary.Read)
	fmt.Printf("  Skipped:  %d\n", summary.Skipped)
	fmt.Printf("  Upserted: %d\n", summary.Upserted)

	return nil
}
