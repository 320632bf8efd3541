package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AndresDevelopers/purvita-payments/internal/domain"
	"github.com/AndresDevelopers/purvita-payments/internal/settings"
	apperrors "github.com/AndresDevelopers/purvita-payments/pkg/errors"
)

// SettingsService administers gateway settings records and exposes the
// payment attempt audit trail.
type SettingsService struct {
	repo     settings.Repository
	attempts settings.AttemptRepository
	logger   *slog.Logger
}

// NewSettingsService creates the settings administration service.
func NewSettingsService(repo settings.Repository, attempts settings.AttemptRepository, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		repo:     repo,
		attempts: attempts,
		logger:   logger,
	}
}

// Get returns the settings record for a provider.
func (s *SettingsService) Get(ctx context.Context, provider domain.Provider) (*domain.GatewaySettingsRecord, error) {
	if !domain.IsValidProvider(provider) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown payment provider %q", provider))
	}

	rec, err := s.repo.Get(ctx, provider)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("gateway settings", string(provider))
		}
		return nil, fmt.Errorf("get gateway settings: %w", err)
	}
	return rec, nil
}

// List returns all settings records.
func (s *SettingsService) List(ctx context.Context) ([]domain.GatewaySettingsRecord, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list gateway settings: %w", err)
	}
	return records, nil
}

// Update validates and persists a settings record.
func (s *SettingsService) Update(ctx context.Context, rec *domain.GatewaySettingsRecord) (*domain.GatewaySettingsRecord, error) {
	if !domain.IsValidProvider(rec.Provider) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown payment provider %q", rec.Provider))
	}
	if !domain.IsValidEnvironment(rec.Mode) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("mode must be live or test, got %q", rec.Mode))
	}

	if err := s.repo.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("upsert gateway settings: %w", err)
	}

	s.logger.InfoContext(ctx, "gateway settings updated",
		slog.String("provider", string(rec.Provider)),
		slog.Bool("is_active", rec.IsActive),
		slog.String("mode", string(rec.Mode)),
	)

	return rec, nil
}

// ListAttempts returns the audit trail for a provider, newest first.
func (s *SettingsService) ListAttempts(ctx context.Context, provider domain.Provider, offset, limit int) ([]domain.PaymentAttempt, int, error) {
	if !domain.IsValidProvider(provider) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("unknown payment provider %q", provider))
	}

	attempts, total, err := s.attempts.ListAttempts(ctx, provider, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list payment attempts: %w", err)
	}
	return attempts, total, nil
}
