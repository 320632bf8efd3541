package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AndresDevelopers/purvita-payments/internal/domain"
	"github.com/AndresDevelopers/purvita-payments/internal/service"
	"github.com/AndresDevelopers/purvita-payments/pkg/httputil"
	"github.com/AndresDevelopers/purvita-payments/pkg/pagination"
	"github.com/AndresDevelopers/purvita-payments/pkg/validator"
)

// GatewayHandler handles HTTP requests for gateway administration.
type GatewayHandler struct {
	settings *service.SettingsService
	payments *service.PaymentService
	logger   *slog.Logger
}

// NewGatewayHandler creates a new gateway administration handler.
func NewGatewayHandler(settings *service.SettingsService, payments *service.PaymentService, logger *slog.Logger) *GatewayHandler {
	return &GatewayHandler{
		settings: settings,
		payments: payments,
		logger:   logger,
	}
}

// --- Request DTOs ---

// UpdateSettingsRequest is the JSON request body for updating a gateway's
// settings record.
type UpdateSettingsRequest struct {
	IsActive      bool   `json:"is_active"`
	Functionality string `json:"functionality" validate:"omitempty,max=100"`
	Mode          string `json:"mode" validate:"required,oneof=live test"`
	LiveAvailable bool   `json:"live_available"`
	TestAvailable bool   `json:"test_available"`
}

// ValidateCredentialsRequest is the JSON request body for the credential
// "Verify" action.
type ValidateCredentialsRequest struct {
	Environment string `json:"environment" validate:"required,oneof=live test"`
}

// --- Handlers ---

// ListGateways handles GET /api/v1/gateways
// @Summary List gateway settings
// @Description Returns the settings records of all configured gateways.
// @Tags gateways
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/gateways [get]
func (h *GatewayHandler) ListGateways(w http.ResponseWriter, r *http.Request) {
	records, err := h.settings.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: records})
}

// GetSettings handles GET /api/v1/gateways/{provider}/settings
// @Summary Get gateway settings
// @Description Returns the settings record for one provider.
// @Tags gateways
// @Produce json
// @Param provider path string true "Provider name"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/gateways/{provider}/settings [get]
func (h *GatewayHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	provider := domain.Provider(chi.URLParam(r, "provider"))

	rec, err := h.settings.Get(r.Context(), provider)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: rec})
}

// UpdateSettings handles PUT /api/v1/gateways/{provider}/settings
// @Summary Update gateway settings
// @Description Creates or replaces the settings record for one provider.
// @Tags gateways
// @Accept json
// @Produce json
// @Param provider path string true "Provider name"
// @Param request body UpdateSettingsRequest true "Settings data"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/gateways/{provider}/settings [put]
func (h *GatewayHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	rec := &domain.GatewaySettingsRecord{
		Provider:      domain.Provider(chi.URLParam(r, "provider")),
		IsActive:      req.IsActive,
		Functionality: req.Functionality,
		Mode:          domain.Environment(req.Mode),
		LiveAvailable: req.LiveAvailable,
		TestAvailable: req.TestAvailable,
	}

	updated, err := h.settings.Update(r.Context(), rec)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: updated})
}

// ValidateCredentials handles POST /api/v1/gateways/{provider}/validate
// @Summary Verify gateway credentials
// @Description Checks the configured credential bundle against the provider for the named environment.
// @Tags gateways
// @Accept json
// @Produce json
// @Param provider path string true "Provider name"
// @Param request body ValidateCredentialsRequest true "Environment to verify"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/v1/gateways/{provider}/validate [post]
func (h *GatewayHandler) ValidateCredentials(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req ValidateCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	provider := domain.Provider(chi.URLParam(r, "provider"))
	validation, err := h.payments.ValidateCredentials(r.Context(), provider, domain.Environment(req.Environment))
	if err != nil {
		writeGatewayError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: validation})
}

// ListAttempts handles GET /api/v1/gateways/{provider}/attempts
// @Summary List payment attempts
// @Description Returns the audit trail for one provider, newest first, paginated.
// @Tags gateways
// @Produce json
// @Param provider path string true "Provider name"
// @Param page query int false "Page number"
// @Param per_page query int false "Items per page (max 100)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/gateways/{provider}/attempts [get]
func (h *GatewayHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	provider := domain.Provider(chi.URLParam(r, "provider"))
	params := pagination.FromRequest(r)

	attempts, total, err := h.settings.ListAttempts(r.Context(), provider, params.Offset, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.NewResult(attempts, total, params),
	})
}
