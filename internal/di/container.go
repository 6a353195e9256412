package di

import (
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"agent-assist/internal/adapter/chat_http"
	"agent-assist/internal/adapter/openaillm"
	"agent-assist/internal/adapter/pinecone"
	"agent-assist/internal/adapter/rediscache"
	"agent-assist/internal/adapter/repository"
	"agent-assist/internal/domain"
	"agent-assist/internal/infra/config"
	"agent-assist/internal/infra/httpclient"
	"agent-assist/internal/usecase"
	"agent-assist/internal/usecase/retrieval"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	// Repositories
	ConvRepo  domain.ConversationRepository
	FAQRepo   domain.FAQRepository
	TxManager domain.TransactionManager

	// Providers
	Embedder  domain.Embedder
	Index     domain.VectorIndex
	Generator domain.Generator

	// Redis-backed components
	RedisStore  *rediscache.Store
	AnswerCache domain.AnswerCache
	RateLimiter *chat_http.RateLimiter

	// Usecases
	AnswerUsecase usecase.AnswerQueryUsecase

	// Handler
	Handler *chat_http.Handler
}

// NewApplicationComponents wires all dependencies from config and database pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) (*ApplicationComponents, error) {
	// Repositories
	convRepo := repository.NewConversationRepository(pool)
	faqRepo := repository.NewFAQRepository(pool)
	txManager := repository.NewPostgresTransactionManager(pool)

	// External providers
	embedder := openaillm.NewEmbedder(openaillm.EmbedderConfig{
		APIKey:            cfg.OpenAIAPIKey,
		BaseURL:           cfg.EmbeddingBaseURL,
		Model:             cfg.EmbeddingModel,
		RequestsPerSecond: cfg.EmbeddingRPS,
	}, log)

	generator := openaillm.NewGenerator(openaillm.GeneratorConfig{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.GenerationModel,
		Temperature: float32(cfg.GenerationTemperature),
		MaxTokens:   cfg.GenerationMaxTokens,
	}, log)

	pineconeHTTP := httpclient.NewPooledClient(cfg.PineconeTimeout)
	index, err := pinecone.NewClient(pinecone.Config{
		APIKey:    cfg.PineconeAPIKey,
		IndexHost: cfg.PineconeIndexHost,
		Namespace: cfg.PineconeNamespace,
		Timeout:   cfg.PineconeTimeout,
	}, pineconeHTTP, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector index client: %w", err)
	}

	// Redis-backed components
	redisStore, err := rediscache.NewStore(rediscache.Config{
		Addrs:    []string{cfg.RedisAddr},
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis store: %w", err)
	}
	answerCache := rediscache.NewAnswerCache(redisStore, cfg.CacheLocalSize, cfg.CacheTTL, log)
	rateLimiter := chat_http.NewRateLimiter(redisStore, chat_http.RateLimitConfig{
		PerMinute: int64(cfg.RateLimitPerMinute),
		PerHour:   int64(cfg.RateLimitPerHour),
		PerDay:    int64(cfg.RateLimitPerDay),
	}, log)

	// Retrieval pipeline
	retrievalCfg := retrieval.DefaultConfig()
	retrievalCfg.PartialResults = cfg.RetrievalPartialResults
	if err := retrievalCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retrieval config: %w", err)
	}
	fanout := retrieval.NewFanout(embedder, index, retrievalCfg, log)

	answerUsecase := usecase.NewAnswerQueryUsecase(
		usecase.NewClassifier(),
		usecase.NewExpander(),
		fanout,
		generator,
		answerCache,
		log,
	)

	handler := chat_http.NewHandler(answerUsecase, convRepo, faqRepo, txManager, cfg.GenerationModel, log)

	return &ApplicationComponents{
		ConvRepo:      convRepo,
		FAQRepo:       faqRepo,
		TxManager:     txManager,
		Embedder:      embedder,
		Index:         index,
		Generator:     generator,
		RedisStore:    redisStore,
		AnswerCache:   answerCache,
		RateLimiter:   rateLimiter,
		AnswerUsecase: answerUsecase,
		Handler:       handler,
	}, nil
}

// Close releases held connections.
func (c *ApplicationComponents) Close() {
	if c.RedisStore != nil {
		c.RedisStore.Close()
	}
}
