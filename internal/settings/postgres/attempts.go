package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AndresDevelopers/purvita-payments/internal/domain"
)

// AttemptRepository implements settings.AttemptRepository using PostgreSQL.
type AttemptRepository struct {
	db DB
}

// NewAttemptRepository creates a new PostgreSQL-backed attempt repository.
func NewAttemptRepository(db DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// CreateAttempt appends one attempt row. The id and timestamp are filled in
// when the caller left them empty.
func (r *AttemptRepository) CreateAttempt(ctx context.Context, a *domain.PaymentAttempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO payment_attempts (id, provider, environment, status, amount, currency, failure_kind, failure_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		a.ID,
		a.Provider,
		a.Environment,
		a.Status,
		a.Amount,
		a.Currency,
		a.FailureKind,
		a.FailureReason,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment attempt: %w", err)
	}

	return nil
}

// ListAttempts returns attempts for a provider, newest first, with pagination.
func (r *AttemptRepository) ListAttempts(ctx context.Context, provider domain.Provider, offset, limit int) ([]domain.PaymentAttempt, int, error) {
	query := `
		SELECT id, provider, environment, status, amount, currency, failure_kind, failure_reason, created_at,
		       count(*) OVER() AS total_count
		FROM payment_attempts
		WHERE provider = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, provider, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list payment attempts: %w", err)
	}
	defer rows.Close()

	var (
		attempts   []domain.PaymentAttempt
		totalCount int
	)

	for rows.Next() {
		var a domain.PaymentAttempt
		if err := rows.Scan(
			&a.ID,
			&a.Provider,
			&a.Environment,
			&a.Status,
			&a.Amount,
			&a.Currency,
			&a.FailureKind,
			&a.FailureReason,
			&a.CreatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan payment attempt row: %w", err)
		}
		attempts = append(attempts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate payment attempt rows: %w", err)
	}

	if attempts == nil {
		attempts = []domain.PaymentAttempt{}
	}

	return attempts, totalCount, nil
}
