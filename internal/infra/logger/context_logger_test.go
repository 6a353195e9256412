package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatContextHandler_AddsChatFields(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewChatContextHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := WithConversationID(context.Background(), "conv-123")
	ctx = WithQueryClass(ctx, "normal")
	ctx = WithPipelineStage(ctx, "retrieval")

	log.InfoContext(ctx, "fanout_completed")

	out := buf.String()
	assert.Contains(t, out, `"conversation_id":"conv-123"`)
	assert.Contains(t, out, `"query_class":"normal"`)
	assert.Contains(t, out, `"pipeline_stage":"retrieval"`)
}

func TestChatContextHandler_PlainContextAddsNothing(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewChatContextHandler(slog.NewJSONHandler(&buf, nil)))

	log.InfoContext(context.Background(), "server_started")

	out := buf.String()
	assert.NotContains(t, out, "conversation_id")
	assert.NotContains(t, out, "query_class")
	assert.NotContains(t, out, "pipeline_stage")
}

func TestChatContextHandler_PartialContext(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewChatContextHandler(slog.NewJSONHandler(&buf, nil)))

	log.InfoContext(WithQueryClass(context.Background(), "greeting"), "fast_path_detected")

	out := buf.String()
	assert.Contains(t, out, `"query_class":"greeting"`)
	assert.NotContains(t, out, "conversation_id")
}

func TestChatContextHandler_WithAttrsPreservesContextFields(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewChatContextHandler(slog.NewJSONHandler(&buf, nil))).
		With(slog.String("service", "agent-assist"))

	log.InfoContext(WithConversationID(context.Background(), "conv-9"), "query_answered")

	out := buf.String()
	assert.Contains(t, out, `"service":"agent-assist"`)
	assert.Contains(t, out, `"conversation_id":"conv-9"`)
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, parseLevel(tc.in), "level %q", tc.in)
	}
}
