package logger

import (
	"context"
	"log/slog"
)

type ContextKey string

const (
	// Business context keys, following OpenTelemetry semantic conventions
	// with a 'chat.' prefix
	ConversationIDKey ContextKey = "chat.conversation.id"
	QueryClassKey     ContextKey = "chat.query.class"
	PipelineStageKey  ContextKey = "chat.pipeline.stage"
)

// WithConversationID adds the conversation ID to context for observability
func WithConversationID(ctx context.Context, conversationID string) context.Context {
	return context.WithValue(ctx, ConversationIDKey, conversationID)
}

// WithQueryClass adds the query class to context for observability
func WithQueryClass(ctx context.Context, class string) context.Context {
	return context.WithValue(ctx, QueryClassKey, class)
}

// WithPipelineStage adds the pipeline stage to context for observability
func WithPipelineStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, PipelineStageKey, stage)
}

// ChatContextHandler wraps an slog.Handler to stamp records with the chat
// business context (conversation id, query class, pipeline stage) carried in
// the request context, so every pipeline log line is attributable to the
// conversation it served.
type ChatContextHandler struct {
	inner slog.Handler
}

// NewChatContextHandler creates a new ChatContextHandler wrapping the provided handler.
func NewChatContextHandler(inner slog.Handler) *ChatContextHandler {
	return &ChatContextHandler{inner: inner}
}

// Enabled delegates to the inner handler.
func (h *ChatContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle adds the chat context to the record before delegating to the inner handler.
func (h *ChatContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if v, ok := ctx.Value(ConversationIDKey).(string); ok && v != "" {
		r.AddAttrs(slog.String("conversation_id", v))
	}
	if v, ok := ctx.Value(QueryClassKey).(string); ok && v != "" {
		r.AddAttrs(slog.String("query_class", v))
	}
	if v, ok := ctx.Value(PipelineStageKey).(string); ok && v != "" {
		r.AddAttrs(slog.String("pipeline_stage", v))
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *ChatContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ChatContextHandler{inner: h.inner.WithAttrs(attrs)}
}

// WithGroup returns a new handler with the given group appended.
func (h *ChatContextHandler) WithGroup(name string) slog.Handler {
	return &ChatContextHandler{inner: h.inner.WithGroup(name)}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
