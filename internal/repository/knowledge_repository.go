package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-resolver/internal/domain"
)

// KnowledgeEntry is one stored knowledge-base passage with its embedding.
type KnowledgeEntry struct {
	ID        string
	Category  domain.Category
	Content   string
	Embedding []float32
	CreatedAt time.Time
}

// KnowledgeRepository stores the category-partitioned knowledge base.
// Reads are concurrent-safe; queries never cross categories.
type KnowledgeRepository interface {
	Create(ctx context.Context, entry *KnowledgeEntry) error
	ListByCategory(ctx context.Context, category domain.Category) ([]KnowledgeEntry, error)
	CountByCategory(ctx context.Context, category domain.Category) (int, error)
}

type knowledgeRepository struct {
	pool *pgxpool.Pool
}

// NewKnowledgeRepository instantiates the repository.
func NewKnowledgeRepository(pool *pgxpool.Pool) KnowledgeRepository {
	return &knowledgeRepository{pool: pool}
}

func (r *knowledgeRepository) Create(ctx context.Context, entry *KnowledgeEntry) error {
	const query = `
        INSERT INTO knowledge_snippets (id, category, content, embedding)
        VALUES ($1,$2,$3,$4)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		entry.ID,
		entry.Category,
		entry.Content,
		entry.Embedding,
	).Scan(&entry.CreatedAt)
}

func (r *knowledgeRepository) ListByCategory(ctx context.Context, category domain.Category) ([]KnowledgeEntry, error) {
	const query = `
        SELECT id, category, content, embedding, created_at
        FROM knowledge_snippets WHERE category=$1`
	rows, err := r.pool.Query(ctx, query, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []KnowledgeEntry
	for rows.Next() {
		var entry KnowledgeEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Category,
			&entry.Content,
			&entry.Embedding,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *knowledgeRepository) CountByCategory(ctx context.Context, category domain.Category) (int, error) {
	const query = `SELECT COUNT(*) FROM knowledge_snippets WHERE category=$1`
	var count int
	if err := r.pool.QueryRow(ctx, query, category).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
