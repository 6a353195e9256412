package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"agent-assist/internal/domain"
)

type conversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(pool *pgxpool.Pool) domain.ConversationRepository {
	return &conversationRepository{pool: pool}
}

func (r *conversationRepository) getExecutor(ctx context.Context) interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
} {
	tx := ExtractTx(ctx)
	if tx != nil {
		return tx
	}
	return r.pool
}

func (r *conversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	query := `
		INSERT INTO conversations (id, user_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.getExecutor(ctx).Exec(ctx, query, conv.ID, conv.UserID, conv.Title, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

func (r *conversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`
	row := r.getExecutor(ctx).QueryRow(ctx, query, id)

	var conv domain.Conversation
	err := row.Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}
	return &conv, nil
}

func (r *conversationRepository) List(ctx context.Context, userID string, limit int) ([]domain.Conversation, error) {
	query := `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`
	rows, err := r.getExecutor(ctx).Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var convs []domain.Conversation
	for rows.Next() {
		var conv domain.Conversation
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	return convs, nil
}

func (r *conversationRepository) Touch(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE conversations
		SET updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.getExecutor(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return nil
}

func (r *conversationRepository) AddMessage(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, role, content, tokens_used, model, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.getExecutor(ctx).Exec(ctx, query, msg.ID, msg.ConversationID, msg.Role, msg.Content, msg.TokensUsed, msg.Model, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r *conversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	query := `
		SELECT id, conversation_id, role, content, tokens_used, model, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.getExecutor(ctx).Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.TokensUsed, &msg.Model, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return msgs, nil
}
