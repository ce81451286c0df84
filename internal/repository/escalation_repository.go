package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-resolver/internal/domain"
)

// EscalationSink is the durable, append-only record of escalated tickets.
// Append must be atomic per record; records are never mutated.
type EscalationSink interface {
	Append(ctx context.Context, record *domain.EscalationRecord) error
	List(ctx context.Context, limit, offset int) ([]domain.EscalationRecord, error)
}

type escalationRepository struct {
	pool *pgxpool.Pool
}

// NewEscalationRepository builds a Postgres-backed sink.
func NewEscalationRepository(pool *pgxpool.Pool) EscalationSink {
	return &escalationRepository{pool: pool}
}

func (r *escalationRepository) Append(ctx context.Context, record *domain.EscalationRecord) error {
	attempts, err := json.Marshal(record.Attempts)
	if err != nil {
		return fmt.Errorf("encode attempts: %w", err)
	}
	const query = `
        INSERT INTO escalations (id, ticket_id, subject, category, attempts, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	if _, err := r.pool.Exec(ctx, query,
		record.ID,
		record.TicketID,
		record.Subject,
		record.Category,
		attempts,
		record.CreatedAt,
	); err != nil {
		return fmt.Errorf("append escalation: %w", err)
	}
	return nil
}

func (r *escalationRepository) List(ctx context.Context, limit, offset int) ([]domain.EscalationRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
        SELECT id, ticket_id, subject, category, attempts, created_at
        FROM escalations ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EscalationRecord
	for rows.Next() {
		var record domain.EscalationRecord
		var attempts []byte
		if err := rows.Scan(
			&record.ID,
			&record.TicketID,
			&record.Subject,
			&record.Category,
			&attempts,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(attempts, &record.Attempts); err != nil {
			return nil, fmt.Errorf("decode attempts: %w", err)
		}
		result = append(result, record)
	}
	return result, rows.Err()
}
