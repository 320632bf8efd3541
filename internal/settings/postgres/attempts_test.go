package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndresDevelopers/purvita-payments/internal/domain"
	"github.com/AndresDevelopers/purvita-payments/pkg/database"
)

func setupAttemptRepo(t *testing.T) (*AttemptRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewAttemptRepository(mock), mock
}

func sampleAttempt() *domain.PaymentAttempt {
	return &domain.PaymentAttempt{
		ID:          "att-001",
		Provider:    domain.ProviderStripe,
		Environment: domain.EnvironmentTest,
		Status:      domain.AttemptStatusCompleted,
		Amount:      2500,
		Currency:    "USD",
		CreatedAt:   time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
	}
}

func attemptColumns() []string {
	return []string{
		"id", "provider", "environment", "status", "amount", "currency",
		"failure_kind", "failure_reason", "created_at",
	}
}

func TestAttemptRepository_CreateAttempt_Success(t *testing.T) {
	repo, mock := setupAttemptRepo(t)
	defer mock.Close()

	a := sampleAttempt()
	mock.ExpectExec("INSERT INTO payment_attempts").
		WithArgs(
			a.ID, a.Provider, a.Environment, a.Status, a.Amount, a.Currency,
			a.FailureKind, a.FailureReason, a.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.CreateAttempt(context.Background(), a)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepository_CreateAttempt_FillsIDAndTimestamp(t *testing.T) {
	repo, mock := setupAttemptRepo(t)
	defer mock.Close()

	a := sampleAttempt()
	a.ID = ""
	a.CreatedAt = time.Time{}

	mock.ExpectExec("INSERT INTO payment_attempts").
		WithArgs(
			pgxmock.AnyArg(), a.Provider, a.Environment, a.Status, a.Amount, a.Currency,
			a.FailureKind, a.FailureReason, pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.CreateAttempt(context.Background(), a)

	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepository_ListAttempts_Success(t *testing.T) {
	repo, mock := setupAttemptRepo(t)
	defer mock.Close()

	a := sampleAttempt()
	failed := sampleAttempt()
	failed.ID = "att-002"
	failed.Status = domain.AttemptStatusFailed
	failed.FailureKind = "PROVIDER_ERROR"
	failed.FailureReason = "Wallet payment did not complete successfully."

	rows := pgxmock.NewRows(append(attemptColumns(), "total_count")).
		AddRow(
			failed.ID, failed.Provider, failed.Environment, failed.Status, failed.Amount,
			failed.Currency, failed.FailureKind, failed.FailureReason, failed.CreatedAt, 7,
		).
		AddRow(
			a.ID, a.Provider, a.Environment, a.Status, a.Amount,
			a.Currency, a.FailureKind, a.FailureReason, a.CreatedAt, 7,
		)

	mock.ExpectQuery("SELECT .+ FROM payment_attempts WHERE provider").
		WithArgs(domain.ProviderStripe, 20, 0).
		WillReturnRows(rows)

	attempts, total, err := repo.ListAttempts(context.Background(), domain.ProviderStripe, 0, 20)

	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, attempts, 2)
	assert.Equal(t, "att-002", attempts[0].ID)
	assert.Equal(t, "PROVIDER_ERROR", attempts[0].FailureKind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepository_ListAttempts_Empty(t *testing.T) {
	repo, mock := setupAttemptRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM payment_attempts WHERE provider").
		WithArgs(domain.ProviderWallet, 20, 0).
		WillReturnRows(pgxmock.NewRows(append(attemptColumns(), "total_count")))

	attempts, total, err := repo.ListAttempts(context.Background(), domain.ProviderWallet, 0, 20)

	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, attempts)
	assert.Empty(t, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
