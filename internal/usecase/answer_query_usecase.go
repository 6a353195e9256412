package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"agent-assist/internal/domain"
	"agent-assist/internal/infra/logger"
)

// noInformationAnswer is the fixed terminal answer when no passage clears
// the similarity threshold. Zero sources, zero token cost, no generation.
const noInformationAnswer = "Lo siento, no encontré información relevante sobre esa pregunta en los manuales de GNP. " +
	"¿Podrías reformular tu pregunta o ser más específico?"

// AnswerQueryInput carries one user query and its prior turns, oldest first.
type AnswerQueryInput struct {
	Query   string
	History []domain.ChatTurn
}

// AnswerQueryUsecase answers agent questions against the manual corpus.
type AnswerQueryUsecase interface {
	Execute(ctx context.Context, input AnswerQueryInput) (*domain.AnswerRecord, error)
}

// PassageRetriever is the retrieval fan-out seen from the orchestrator.
type PassageRetriever interface {
	Retrieve(ctx context.Context, probes []string, comprehensive bool) ([]domain.PassageCandidate, error)
}

type answerQueryUsecase struct {
	classifier *Classifier
	expander   *Expander
	retriever  PassageRetriever
	generator  domain.Generator
	cache      domain.AnswerCache
	logger     *slog.Logger
}

// NewAnswerQueryUsecase wires the query pipeline with explicit dependencies.
func NewAnswerQueryUsecase(
	classifier *Classifier,
	expander *Expander,
	retriever PassageRetriever,
	generator domain.Generator,
	cache domain.AnswerCache,
	logger *slog.Logger,
) AnswerQueryUsecase {
	return &answerQueryUsecase{
		classifier: classifier,
		expander:   expander,
		retriever:  retriever,
		generator:  generator,
		cache:      cache,
		logger:     logger,
	}
}

func (u *answerQueryUsecase) Execute(ctx context.Context, input AnswerQueryInput) (*domain.AnswerRecord, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, domain.ErrEmptyQuery
	}

	start := time.Now()

	class := u.classifier.Classify(input.Query)
	ctx = logger.WithQueryClass(ctx, class.String())

	// Greetings and platform questions need no manual context: the
	// instruction preamble already covers them. Not cached either; these
	// answers are cheap and context-free.
	if class != ClassNormal {
		u.logger.InfoContext(ctx, "fast_path_detected", slog.String("class", class.String()))
		return u.generateDirect(ctx, input)
	}

	if rec, ok := u.cache.Get(ctx, input.Query); ok {
		u.logger.InfoContext(ctx, "cache_hit",
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return rec, nil
	}

	probes := u.expander.Expand(input.Query)
	comprehensive := u.classifier.NeedsComprehensive(input.Query)
	u.logger.InfoContext(ctx, "query_expanded",
		slog.Int("probe_count", len(probes)),
		slog.Bool("comprehensive", comprehensive))

	ctx = logger.WithPipelineStage(ctx, "retrieval")
	passages, err := u.retriever.Retrieve(ctx, probes, comprehensive)
	if err != nil {
		return nil, wrapUnexpected(err)
	}

	if len(passages) == 0 {
		u.logger.WarnContext(ctx, "no_relevant_passages", slog.String("query", truncateForLog(input.Query)))
		return &domain.AnswerRecord{
			Answer:     noInformationAnswer,
			Sources:    []domain.SourceCitation{},
			TokensUsed: 0,
		}, nil
	}

	contextText := AssembleContext(passages)
	u.logger.InfoContext(ctx, "context_assembled",
		slog.Int("passage_count", len(passages)),
		slog.Float64("best_score", passages[0].Score),
		slog.Int("context_chars", len(contextText)))

	ctx = logger.WithPipelineStage(ctx, "generation")
	result, err := u.generator.Generate(ctx, domain.GenerationRequest{
		System:      BuildSystemPrompt(contextText),
		History:     input.History,
		UserMessage: input.Query,
	})
	if err != nil {
		return nil, domain.NewProviderError(domain.ProviderGeneration, err)
	}

	rec := &domain.AnswerRecord{
		Answer:     result.Text,
		Sources:    BuildCitations(passages),
		TokensUsed: result.TokensUsed,
	}

	// Write-through with fixed TTL. The cache swallows its own failures;
	// a failed write must never fail the user-facing request.
	u.cache.Set(ctx, input.Query, rec)

	u.logger.InfoContext(ctx, "query_answered",
		slog.Int("source_count", len(rec.Sources)),
		slog.Int("tokens_used", rec.TokensUsed),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return rec, nil
}

func (u *answerQueryUsecase) generateDirect(ctx context.Context, input AnswerQueryInput) (*domain.AnswerRecord, error) {
	result, err := u.generator.Generate(ctx, domain.GenerationRequest{
		System:      BuildSystemPrompt(""),
		History:     input.History,
		UserMessage: input.Query,
	})
	if err != nil {
		return nil, domain.NewProviderError(domain.ProviderGeneration, err)
	}
	return &domain.AnswerRecord{
		Answer:     result.Text,
		Sources:    []domain.SourceCitation{},
		TokensUsed: result.TokensUsed,
	}, nil
}

// wrapUnexpected folds anything outside the defined taxonomy into a generic
// core error, so callers never observe raw provider exception types.
func wrapUnexpected(err error) error {
	var pe *domain.ProviderError
	if errors.As(err, &pe) || errors.Is(err, domain.ErrEmptyQuery) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrInternal, err)
}

func truncateForLog(s string) string {
	const limit = 100
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
