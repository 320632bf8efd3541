package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AndresDevelopers/purvita-payments/internal/domain"
	apperrors "github.com/AndresDevelopers/purvita-payments/pkg/errors"
)

// DB is the subset of pgxpool.Pool the repositories use. pgxmock satisfies it
// in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SettingsRepository implements settings.Repository using PostgreSQL.
type SettingsRepository struct {
	db DB
}

// NewSettingsRepository creates a new PostgreSQL-backed settings repository.
func NewSettingsRepository(db DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get retrieves the settings record for a provider.
func (r *SettingsRepository) Get(ctx context.Context, provider domain.Provider) (*domain.GatewaySettingsRecord, error) {
	query := `
		SELECT provider, is_active, functionality, mode, live_available, test_available, created_at, updated_at
		FROM gateway_settings
		WHERE provider = $1`

	var rec domain.GatewaySettingsRecord
	err := r.db.QueryRow(ctx, query, provider).Scan(
		&rec.Provider,
		&rec.IsActive,
		&rec.Functionality,
		&rec.Mode,
		&rec.LiveAvailable,
		&rec.TestAvailable,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan gateway settings: %w", err)
	}

	return &rec, nil
}

// Upsert creates or replaces the settings record for a provider.
func (r *SettingsRepository) Upsert(ctx context.Context, rec *domain.GatewaySettingsRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}

	query := `
		INSERT INTO gateway_settings (provider, is_active, functionality, mode, live_available, test_available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (provider) DO UPDATE
		SET is_active = EXCLUDED.is_active,
		    functionality = EXCLUDED.functionality,
		    mode = EXCLUDED.mode,
		    live_available = EXCLUDED.live_available,
		    test_available = EXCLUDED.test_available,
		    updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		rec.Provider,
		rec.IsActive,
		rec.Functionality,
		rec.Mode,
		rec.LiveAvailable,
		rec.TestAvailable,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert gateway settings: %w", err)
	}

	return nil
}

// List returns all settings records ordered by provider.
func (r *SettingsRepository) List(ctx context.Context) ([]domain.GatewaySettingsRecord, error) {
	query := `
		SELECT provider, is_active, functionality, mode, live_available, test_available, created_at, updated_at
		FROM gateway_settings
		ORDER BY provider`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list gateway settings: %w", err)
	}
	defer rows.Close()

	var records []domain.GatewaySettingsRecord
	for rows.Next() {
		var rec domain.GatewaySettingsRecord
		if err := rows.Scan(
			&rec.Provider,
			&rec.IsActive,
			&rec.Functionality,
			&rec.Mode,
			&rec.LiveAvailable,
			&rec.TestAvailable,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan gateway settings row: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gateway settings rows: %w", err)
	}

	if records == nil {
		records = []domain.GatewaySettingsRecord{}
	}

	return records, nil
}
