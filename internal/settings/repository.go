// Package settings persists per-provider gateway configuration and the
// payment attempt audit trail.
package settings

import (
	"context"

	"github.com/AndresDevelopers/purvita-payments/internal/domain"
)

// Repository defines persistence for gateway settings records.
//
// Callers read settings fresh on every payment attempt. There is deliberately
// no cache in front of this interface: an admin toggling a gateway off must
// take effect on the next request.
type Repository interface {
	// Get retrieves the settings record for a provider.
	Get(ctx context.Context, provider domain.Provider) (*domain.GatewaySettingsRecord, error)

	// Upsert creates or replaces the settings record for a provider.
	Upsert(ctx context.Context, record *domain.GatewaySettingsRecord) error

	// List returns all settings records ordered by provider.
	List(ctx context.Context) ([]domain.GatewaySettingsRecord, error)
}

// AttemptRepository defines persistence for the payment attempt audit trail.
type AttemptRepository interface {
	// CreateAttempt appends one attempt row.
	CreateAttempt(ctx context.Context, attempt *domain.PaymentAttempt) error

	// ListAttempts returns attempts for a provider, newest first, with
	// pagination. Returns the slice, the total count, and any error.
	ListAttempts(ctx context.Context, provider domain.Provider, offset, limit int) ([]domain.PaymentAttempt, int, error)
}
