package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Conversation groups the messages of one chat session.
type Conversation struct {
	ID        uuid.UUID
	UserID    string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one persisted chat turn.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	Role           string
	Content        string
	TokensUsed     *int
	Model          string
	CreatedAt      time.Time
}

// FAQ is a pre-answered question served without re-running the pipeline.
type FAQ struct {
	ID         uuid.UUID
	Question   string
	Answer     string
	Category   string
	Sources    []SourceCitation
	TokensUsed int
	IsActive   bool
	ViewsCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ConversationRepository persists conversations and their messages.
type ConversationRepository interface {
	Create(ctx context.Context, conv *Conversation) error
	// GetByID returns nil, nil when the conversation does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*Conversation, error)
	List(ctx context.Context, userID string, limit int) ([]Conversation, error)
	Touch(ctx context.Context, id uuid.UUID) error
	AddMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]Message, error)
}

// FAQRepository persists FAQ entries. Deletion is soft: entries are
// deactivated, never removed.
type FAQRepository interface {
	Create(ctx context.Context, faq *FAQ) error
	// GetByID returns nil, nil when no active entry exists.
	GetByID(ctx context.Context, id uuid.UUID) (*FAQ, error)
	// GetByQuestion returns nil, nil when no entry matches.
	GetByQuestion(ctx context.Context, question string) (*FAQ, error)
	ListActive(ctx context.Context, category string) ([]FAQ, error)
	// IncrementViews bumps the read counter that drives ListActive ordering.
	IncrementViews(ctx context.Context, id uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// TransactionManager runs fn inside one database transaction. Repositories
// called through the returned context share the transaction.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
