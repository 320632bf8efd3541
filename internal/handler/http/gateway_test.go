package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AndresDevelopers/purvita-payments/internal/domain"
	"github.com/AndresDevelopers/purvita-payments/internal/gateway"
	"github.com/AndresDevelopers/purvita-payments/internal/service"
	apperrors "github.com/AndresDevelopers/purvita-payments/pkg/errors"
)

type gatewayFixture struct {
	settings *mockSettingsRepository
	attempts *mockAttemptRepository
	client   *mockGatewayClient
	router   *chi.Mux
}

func setupGatewayFixture(provider domain.Provider, source gateway.CredentialSource) *gatewayFixture {
	f := &gatewayFixture{
		settings: new(mockSettingsRepository),
		attempts: new(mockAttemptRepository),
		client:   &mockGatewayClient{provider: provider},
	}

	settingsSvc := service.NewSettingsService(f.settings, f.attempts, testLogger())
	paymentSvc := service.NewPaymentService(new(mockResolver), []service.GatewayClient{f.client}, source, f.attempts, nil, testLogger())
	handler := NewGatewayHandler(settingsSvc, paymentSvc, testLogger())

	f.router = chi.NewRouter()
	f.router.Route("/api/v1/gateways", func(r chi.Router) {
		r.Get("/", handler.ListGateways)
		r.Get("/{provider}/settings", handler.GetSettings)
		r.Put("/{provider}/settings", handler.UpdateSettings)
		r.Post("/{provider}/validate", handler.ValidateCredentials)
		r.Get("/{provider}/attempts", handler.ListAttempts)
	})
	return f
}

func storedSettings() *domain.GatewaySettingsRecord {
	return &domain.GatewaySettingsRecord{
		Provider:      domain.ProviderPayPal,
		IsActive:      true,
		Functionality: "payments",
		Mode:          domain.EnvironmentLive,
		LiveAvailable: true,
		TestAvailable: true,
		CreatedAt:     time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestGatewayHandler_ListGateways(t *testing.T) {
	f := setupGatewayFixture(domain.ProviderPayPal, envSource{})
	f.settings.On("List", mock.Anything).Return([]domain.GatewaySettingsRecord{*storedSettings()}, nil)

	rec := doJSON(t, f.router, http.MethodGet, "/api/v1/gateways", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"provider":"paypal"`)
}

func TestGatewayHandler_GetSettings(t *testing.T) {
	f := setupGatewayFixture(domain.ProviderPayPal, envSource{})
	f.settings.On("Get", mock.Anything, domain.ProviderPayPal).Return(storedSettings(), nil)

	rec := doJSON(t, f.router, http.MethodGet, "/api/v1/gateways/paypal/settings", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "paypal", data["provider"])
	assert.Equal(t, "live", data["mode"])
	assert.Equal(t, true, data["is_active"])
}

func TestGatewayHandler_GetSettings_NotFound(t *testing.T) {
	f := setupGatewayFixture(domain.ProviderPayPal, envSource{})
	f.settings.On("Get", mock.Anything, domain.ProviderStripe).Return(nil, apperrors.ErrNotFound)

	rec := doJSON(t, f.router, http.MethodGet, "/api/v1/gateways/stripe/settings", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestGatewayHandler_GetSettings_UnknownProvider(t *testing.T) {
	f := setupGatewayFixture(domain.ProviderPayPal, envSource{})

	rec := doJSON(t, f.router, http.MethodGet, "/api/v1/gateways/square/settings", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	f.settings.AssertNotCalled(t, "Get")
}

func TestGatewayHandler_UpdateSettings(t *testing.T) {
	f := setupGatewayFixture(domain.ProviderPayPal, envSource{})
	f.settings.On("Upsert", mock.Anything, mock.MatchedBy(func(rec *domain.GatewaySettingsRecord) bool {
		return rec.Provider == domain.ProviderPayPal &&
			rec.Mode == domain.EnvironmentTest &&
			!rec.IsActive
	})).Return(nil)

	rec := doJSON(t, f.router, http.MethodPut, "/api/v1/gateways/paypal/settings", map[string]any{
		"is_active":      false,
		"functionality":  "payments",
		"mode":           "test",
		"live_available": false,
		"test_available": true,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	f.settings.AssertExpectations(t)
}

func TestGatewayHandler_UpdateSettings_RejectsAutoMode(t *testing.T) {
	f := setupGatewayFixture(domain.ProviderPayPal, envSource{})

	rec := doJSON(t, f.router, http.MethodPut, "/api/v1/gateways/paypal/settings", map[string]any{
		"is_active": true,
		"mode":      "auto",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	f.settings.AssertNotCalled(t, "Upsert")
}

func TestGatewayHandler_ValidateCredentials(t *testing.T) {
	source := envSource{bundles: map[domain.Environment]gateway.CredentialBundle{
		domain.EnvironmentLive: {ClientID: "id", SecretKey: "sk"},
	}}
	f := setupGatewayFixture(domain.ProviderPayPal, source)
	f.client.On("ValidateCredentials", mock.Anything, mock.Anything).Return(nil)

	rec := doJSON(t, f.router, http.MethodPost, "/api/v1/gateways/paypal/validate", map[string]any{
		"environment": "live",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["is_valid"])
	assert.Equal(t, "live", data["environment"])
}

func TestGatewayHandler_ValidateCredentials_IncompleteBundle(t *testing.T) {
	f := setupGatewayFixture(domain.ProviderPayPal, envSource{})

	rec := doJSON(t, f.router, http.MethodPost, "/api/v1/gateways/paypal/validate", map[string]any{
		"environment": "live",
	})

	// An incomplete bundle is a valid verification outcome, not an error.
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, false, data["is_valid"])
	assert.NotEmpty(t, data["errors"])
	f.client.AssertNotCalled(t, "ValidateCredentials")
}

func TestGatewayHandler_ValidateCredentials_RejectsAutoEnvironment(t *testing.T) {
	f := setupGatewayFixture(domain.ProviderPayPal, envSource{})

	rec := doJSON(t, f.router, http.MethodPost, "/api/v1/gateways/paypal/validate", map[string]any{
		"environment": "auto",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGatewayHandler_ListAttempts(t *testing.T) {
	f := setupGatewayFixture(domain.ProviderPayPal, envSource{})
	f.attempts.On("ListAttempts", mock.Anything, domain.ProviderStripe, 0, 20).
		Return([]domain.PaymentAttempt{
			{ID: "att-002", Provider: domain.ProviderStripe, Status: domain.AttemptStatusFailed, FailureKind: "PROVIDER_ERROR"},
			{ID: "att-001", Provider: domain.ProviderStripe, Status: domain.AttemptStatusCompleted},
		}, 2, nil)

	rec := doJSON(t, f.router, http.MethodGet, "/api/v1/gateways/stripe/attempts", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(2), data["total_count"])
	assert.Equal(t, float64(1), data["page"])
	assert.Len(t, data["data"], 2)
}

func TestGatewayHandler_ListAttempts_Pagination(t *testing.T) {
	f := setupGatewayFixture(domain.ProviderPayPal, envSource{})
	f.attempts.On("ListAttempts", mock.Anything, domain.ProviderStripe, 10, 5).
		Return([]domain.PaymentAttempt{}, 12, nil)

	rec := doJSON(t, f.router, http.MethodGet, "/api/v1/gateways/stripe/attempts?page=3&per_page=5", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(3), data["page"])
	assert.Equal(t, float64(3), data["total_pages"])
	f.attempts.AssertExpectations(t)
}
