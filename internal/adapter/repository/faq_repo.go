package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"agent-assist/internal/domain"
)

type faqRepository struct {
	pool *pgxpool.Pool
}

// NewFAQRepository creates a new FAQRepository.
func NewFAQRepository(pool *pgxpool.Pool) domain.FAQRepository {
	return &faqRepository{pool: pool}
}

func (r *faqRepository) getExecutor(ctx context.Context) interface {
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

func (r *faqRepository) Create(ctx context.Context, faq *domain.FAQ) error {
	sources, err := json.Marshal(faq.Sources)
	if err != nil {
		return fmt.Errorf("failed to marshal sources: %w", err)
	}

	query := `
		INSERT INTO faqs (id, question, answer, category, sources, tokens_used, is_active, views_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.getExecutor(ctx).Exec(ctx, query,
		faq.ID, faq.Question, faq.Answer, faq.Category, sources,
		faq.TokensUsed, faq.IsActive, faq.ViewsCount, faq.CreatedAt, faq.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert faq: %w", err)
	}
	return nil
}

func (r *faqRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.FAQ, error) {
	query := `
		SELECT id, question, answer, category, sources, tokens_used, is_active, views_count, created_at, updated_at
		FROM faqs
		WHERE id = $1 AND is_active = TRUE
	`
	row := r.getExecutor(ctx).QueryRow(ctx, query, id)

	faq, err := scanFAQ(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return faq, nil
}

func (r *faqRepository) GetByQuestion(ctx context.Context, question string) (*domain.FAQ, error) {
	query := `
		SELECT id, question, answer, category, sources, tokens_used, is_active, views_count, created_at, updated_at
		FROM faqs
		WHERE question = $1 AND is_active = TRUE
	`
	row := r.getExecutor(ctx).QueryRow(ctx, query, question)

	faq, err := scanFAQ(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return faq, nil
}

func (r *faqRepository) ListActive(ctx context.Context, category string) ([]domain.FAQ, error) {
	query := `
		SELECT id, question, answer, category, sources, tokens_used, is_active, views_count, created_at, updated_at
		FROM faqs
		WHERE is_active = TRUE AND ($1 = '' OR category = $1)
		ORDER BY views_count DESC, created_at DESC
	`
	rows, err := r.getExecutor(ctx).Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list faqs: %w", err)
	}
	defer rows.Close()

	var faqs []domain.FAQ
	for rows.Next() {
		faq, err := scanFAQ(rows)
		if err != nil {
			return nil, err
		}
		faqs = append(faqs, *faq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate faqs: %w", err)
	}
	return faqs, nil
}

func (r *faqRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE faqs
		SET views_count = views_count + 1
		WHERE id = $1 AND is_active = TRUE
	`
	tag, err := r.getExecutor(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment faq views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *faqRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE faqs
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.getExecutor(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate faq: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanFAQ(row pgx.Row) (*domain.FAQ, error) {
	var faq domain.FAQ
	var sources []byte
	err := row.Scan(&faq.ID, &faq.Question, &faq.Answer, &faq.Category, &sources,
		&faq.TokensUsed, &faq.IsActive, &faq.ViewsCount, &faq.CreatedAt, &faq.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan faq: %w", err)
	}
	if len(sources) > 0 {
		if err := json.Unmarshal(sources, &faq.Sources); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sources: %w", err)
		}
	}
	return &faq, nil
}
