package openaillm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"agent-assist/internal/domain"
)

// Generator produces answers through the chat-completions API.
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *slog.Logger
}

// GeneratorConfig holds the generation provider settings.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

// NewGenerator creates an OpenAI-compatible generation provider.
func NewGenerator(cfg GeneratorConfig, logger *slog.Logger) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Generator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}
}

// Generate maps the system preamble, prior turns, and user message into one
// chat-completion call and returns the answer with its total token cost.
func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: req.System,
	})
	for _, turn := range req.History {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserMessage,
	})

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		g.logger.Error("generate_failed",
			slog.String("model", g.model),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion response")
	}

	tokens := resp.Usage.TotalTokens
	g.logger.Info("generate_completed",
		slog.String("model", g.model),
		slog.Int("tokens_used", tokens),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return &domain.GenerationResult{
		Text:       resp.Choices[0].Message.Content,
		TokensUsed: tokens,
	}, nil
}

var _ domain.Generator = (*Generator)(nil)
