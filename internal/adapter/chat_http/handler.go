package chat_http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"agent-assist/internal/domain"
	"agent-assist/internal/infra/logger"
	"agent-assist/internal/usecase"
)

const (
	defaultConversationLimit = 20
	maxConversationLimit     = 100
)

type Handler struct {
	answerUsecase usecase.AnswerQueryUsecase
	convRepo      domain.ConversationRepository
	faqRepo       domain.FAQRepository
	txManager     domain.TransactionManager
	modelName     string
	logger        *slog.Logger
}

func NewHandler(
	answerUsecase usecase.AnswerQueryUsecase,
	convRepo domain.ConversationRepository,
	faqRepo domain.FAQRepository,
	txManager domain.TransactionManager,
	modelName string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		answerUsecase: answerUsecase,
		convRepo:      convRepo,
		faqRepo:       faqRepo,
		txManager:     txManager,
		modelName:     modelName,
		logger:        logger,
	}
}

// Register wires the handler's routes onto the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	v1 := e.Group("/api/v1")
	v1.POST("/chat", h.Chat)
	v1.GET("/conversations", h.ListConversations)
	v1.GET("/conversations/:id", h.GetConversation)
	v1.POST("/faqs/batch", h.BatchProcessFAQs)
	v1.GET("/faqs", h.ListFAQs)
	v1.GET("/faqs/:id", h.GetFAQ)
	v1.DELETE("/faqs/:id", h.DeleteFAQ)
}

type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

type ChatResponse struct {
	Answer         string                  `json:"answer"`
	Sources        []domain.SourceCitation `json:"sources"`
	TokensUsed     int                     `json:"tokens_used"`
	ConversationID string                  `json:"conversation_id"`
}

// Answer a query against the manual corpus, persisting the exchange
// (POST /api/v1/chat)
func (h *Handler) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Solicitud inválida")
	}

	ctx := c.Request().Context()

	// A nil conversation means the response was already written.
	conv, history, err := h.loadOrCreateConversation(c, &req)
	if err != nil || conv == nil {
		return err
	}
	ctx = logger.WithConversationID(ctx, conv.ID.String())

	record, err := h.answerUsecase.Execute(ctx, usecase.AnswerQueryInput{
		Query:   req.Message,
		History: history,
	})
	if err != nil {
		return h.mapPipelineError(c, err)
	}

	if err := h.persistExchange(ctx, conv, req.Message, record); err != nil {
		return h.internalError(c, err)
	}

	return c.JSON(http.StatusOK, ChatResponse{
		Answer:         record.Answer,
		Sources:        record.Sources,
		TokensUsed:     record.TokensUsed,
		ConversationID: conv.ID.String(),
	})
}

// loadOrCreateConversation resolves the conversation and returns the prior
// turns, oldest first, without the message being processed now.
func (h *Handler) loadOrCreateConversation(c echo.Context, req *ChatRequest) (*domain.Conversation, []domain.ChatTurn, error) {
	ctx := c.Request().Context()

	if req.ConversationID != "" {
		id, err := uuid.Parse(req.ConversationID)
		if err != nil {
			return nil, nil, errorJSON(c, http.StatusBadRequest, "Identificador de conversación inválido")
		}
		conv, err := h.convRepo.GetByID(ctx, id)
		if err != nil {
			return nil, nil, h.internalError(c, err)
		}
		if conv == nil {
			return nil, nil, errorJSON(c, http.StatusNotFound, "Conversación no encontrada")
		}

		msgs, err := h.convRepo.ListMessages(ctx, conv.ID)
		if err != nil {
			return nil, nil, h.internalError(c, err)
		}
		history := make([]domain.ChatTurn, 0, len(msgs))
		for _, m := range msgs {
			history = append(history, domain.ChatTurn{Role: m.Role, Content: m.Content})
		}
		return conv, history, nil
	}

	now := time.Now()
	conv := &domain.Conversation{
		ID:        uuid.New(),
		UserID:    req.UserID,
		Title:     conversationTitle(req.Message),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.convRepo.Create(ctx, conv); err != nil {
		return nil, nil, h.internalError(c, err)
	}
	return conv, nil, nil
}

// persistExchange stores both turns atomically so a crash between writes
// cannot leave a user message without its answer.
func (h *Handler) persistExchange(ctx context.Context, conv *domain.Conversation, question string, record *domain.AnswerRecord) error {
	now := time.Now()
	tokens := record.TokensUsed

	return h.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		userMsg := &domain.Message{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			Role:           "user",
			Content:        question,
			CreatedAt:      now,
		}
		if err := h.convRepo.AddMessage(txCtx, userMsg); err != nil {
			return err
		}

		assistantMsg := &domain.Message{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			Role:           "assistant",
			Content:        record.Answer,
			TokensUsed:     &tokens,
			Model:          h.modelName,
			CreatedAt:      now.Add(time.Millisecond),
		}
		if err := h.convRepo.AddMessage(txCtx, assistantMsg); err != nil {
			return err
		}

		return h.convRepo.Touch(txCtx, conv.ID)
	})
}

type ConversationResponse struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Title     string            `json:"title"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Messages  []MessageResponse `json:"messages,omitempty"`
}

type MessageResponse struct {
	ID         string    `json:"id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	TokensUsed *int      `json:"tokens_used,omitempty"`
	Model      string    `json:"model,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Fetch one conversation with its messages
// (GET /api/v1/conversations/:id)
func (h *Handler) GetConversation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Identificador de conversación inválido")
	}

	ctx := c.Request().Context()
	conv, err := h.convRepo.GetByID(ctx, id)
	if err != nil {
		return h.internalError(c, err)
	}
	if conv == nil {
		return errorJSON(c, http.StatusNotFound, "Conversación no encontrada")
	}

	msgs, err := h.convRepo.ListMessages(ctx, conv.ID)
	if err != nil {
		return h.internalError(c, err)
	}

	resp := toConversationResponse(conv)
	resp.Messages = make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, MessageResponse{
			ID:         m.ID.String(),
			Role:       m.Role,
			Content:    m.Content,
			TokensUsed: m.TokensUsed,
			Model:      m.Model,
			CreatedAt:  m.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// List recent conversations for a user
// (GET /api/v1/conversations?user_id=...&limit=...)
func (h *Handler) ListConversations(c echo.Context) error {
	userID := c.QueryParam("user_id")

	limit := defaultConversationLimit
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxConversationLimit {
		limit = maxConversationLimit
	}

	convs, err := h.convRepo.List(c.Request().Context(), userID, limit)
	if err != nil {
		return h.internalError(c, err)
	}

	resp := make([]ConversationResponse, 0, len(convs))
	for i := range convs {
		resp = append(resp, *toConversationResponse(&convs[i]))
	}
	return c.JSON(http.StatusOK, map[string]any{"conversations": resp})
}

func toConversationResponse(conv *domain.Conversation) *ConversationResponse {
	return &ConversationResponse{
		ID:        conv.ID.String(),
		UserID:    conv.UserID,
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
}

type BatchFAQRequest struct {
	Questions []BatchFAQQuestion `json:"questions"`
}

type BatchFAQQuestion struct {
	Question string `json:"question"`
	Category string `json:"category,omitempty"`
}

type BatchFAQResult struct {
	Question string `json:"question"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// Pre-answer a batch of questions and store them as FAQ entries
// (POST /api/v1/faqs/batch)
func (h *Handler) BatchProcessFAQs(c echo.Context) error {
	var req BatchFAQRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Solicitud inválida")
	}
	if len(req.Questions) == 0 {
		return errorJSON(c, http.StatusBadRequest, "Se requiere al menos una pregunta")
	}

	ctx := c.Request().Context()
	results := make([]BatchFAQResult, 0, len(req.Questions))
	processed := 0

	// Questions run sequentially: batch processing is an offline operation
	// and sequential calls keep pressure off the embedding quota.
	for _, q := range req.Questions {
		result := BatchFAQResult{Question: q.Question}

		existing, err := h.faqRepo.GetByQuestion(ctx, q.Question)
		if err != nil {
			result.Status = "error"
			result.Error = err.Error()
			results = append(results, result)
			continue
		}
		if existing != nil {
			result.Status = "skipped"
			results = append(results, result)
			continue
		}

		record, err := h.answerUsecase.Execute(ctx, usecase.AnswerQueryInput{Query: q.Question})
		if err != nil {
			h.logger.Warn("faq_processing_failed",
				slog.String("question", q.Question),
				slog.String("error", err.Error()))
			result.Status = "error"
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		now := time.Now()
		faq := &domain.FAQ{
			ID:         uuid.New(),
			Question:   q.Question,
			Answer:     record.Answer,
			Category:   q.Category,
			Sources:    record.Sources,
			TokensUsed: record.TokensUsed,
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := h.faqRepo.Create(ctx, faq); err != nil {
			result.Status = "error"
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		result.Status = "processed"
		results = append(results, result)
		processed++
	}

	h.logger.Info("faq_batch_completed",
		slog.Int("requested", len(req.Questions)),
		slog.Int("processed", processed))

	return c.JSON(http.StatusOK, map[string]any{
		"processed": processed,
		"results":   results,
	})
}

type FAQResponse struct {
	ID         string                  `json:"id"`
	Question   string                  `json:"question"`
	Answer     string                  `json:"answer"`
	Category   string                  `json:"category,omitempty"`
	Sources    []domain.SourceCitation `json:"sources"`
	TokensUsed int                     `json:"tokens_used"`
	ViewsCount int                     `json:"views_count"`
	CreatedAt  time.Time               `json:"created_at"`
}

// List active FAQ entries, optionally filtered by category
// (GET /api/v1/faqs?category=...)
func (h *Handler) ListFAQs(c echo.Context) error {
	faqs, err := h.faqRepo.ListActive(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return h.internalError(c, err)
	}

	resp := make([]FAQResponse, 0, len(faqs))
	for _, f := range faqs {
		resp = append(resp, FAQResponse{
			ID:         f.ID.String(),
			Question:   f.Question,
			Answer:     f.Answer,
			Category:   f.Category,
			Sources:    f.Sources,
			TokensUsed: f.TokensUsed,
			ViewsCount: f.ViewsCount,
			CreatedAt:  f.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"faqs": resp})
}

// Fetch one FAQ entry, counting the read
// (GET /api/v1/faqs/:id)
func (h *Handler) GetFAQ(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Identificador de FAQ inválido")
	}

	ctx := c.Request().Context()
	faq, err := h.faqRepo.GetByID(ctx, id)
	if err != nil {
		return h.internalError(c, err)
	}
	if faq == nil {
		return errorJSON(c, http.StatusNotFound, "FAQ no encontrada")
	}

	// The view counter is best-effort; a failed bump must not fail the read.
	if err := h.faqRepo.IncrementViews(ctx, id); err != nil {
		h.logger.Warn("faq_views_increment_failed",
			slog.String("faq_id", id.String()),
			slog.String("error", err.Error()))
	} else {
		faq.ViewsCount++
	}

	return c.JSON(http.StatusOK, FAQResponse{
		ID:         faq.ID.String(),
		Question:   faq.Question,
		Answer:     faq.Answer,
		Category:   faq.Category,
		Sources:    faq.Sources,
		TokensUsed: faq.TokensUsed,
		ViewsCount: faq.ViewsCount,
		CreatedAt:  faq.CreatedAt,
	})
}

// Deactivate an FAQ entry
// (DELETE /api/v1/faqs/:id)
func (h *Handler) DeleteFAQ(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Identificador de FAQ inválido")
	}

	if err := h.faqRepo.Deactivate(c.Request().Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, "FAQ no encontrada")
		}
		return h.internalError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deactivated"})
}

func conversationTitle(message string) string {
	const limit = 60
	runes := []rune(message)
	if len(runes) <= limit {
		return message
	}
	return string(runes[:limit]) + "..."
}
