package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/AndresDevelopers/purvita-payments/internal/domain"
	"github.com/AndresDevelopers/purvita-payments/internal/service"
	"github.com/AndresDevelopers/purvita-payments/pkg/httputil"
	"github.com/AndresDevelopers/purvita-payments/pkg/validator"
)

// PaymentHandler handles HTTP requests for payment checkout endpoints.
type PaymentHandler struct {
	service *service.PaymentService
	logger  *slog.Logger
}

// NewPaymentHandler creates a new payment HTTP handler.
func NewPaymentHandler(svc *service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// LineItemRequest is one cart entry in a payment request body.
type LineItemRequest struct {
	Name     string `json:"name" validate:"required"`
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// CreatePaymentRequest is the JSON request body for starting a checkout.
type CreatePaymentRequest struct {
	Provider    string            `json:"provider" validate:"required,oneof=paypal stripe wallet manual authorize_net payoneer"`
	Amount      int64             `json:"amount" validate:"required,gt=0"`
	Currency    string            `json:"currency" validate:"required,len=3"`
	Description string            `json:"description" validate:"omitempty,max=500"`
	TestMode    bool              `json:"test_mode"`
	SuccessURL  string            `json:"success_url" validate:"omitempty,url"`
	CancelURL   string            `json:"cancel_url" validate:"omitempty,url"`
	OriginURL   string            `json:"origin_url" validate:"omitempty,url"`
	Metadata    map[string]string `json:"metadata"`
	LineItems   []LineItemRequest `json:"line_items" validate:"omitempty,dive"`
}

func (req *CreatePaymentRequest) toDomain() *domain.PaymentRequest {
	items := make([]domain.LineItem, 0, len(req.LineItems))
	for _, li := range req.LineItems {
		items = append(items, domain.LineItem{
			Name:     li.Name,
			Amount:   li.Amount,
			Quantity: li.Quantity,
		})
	}
	return &domain.PaymentRequest{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		TestMode:    req.TestMode,
		SuccessURL:  req.SuccessURL,
		CancelURL:   req.CancelURL,
		OriginURL:   req.OriginURL,
		Metadata:    req.Metadata,
		LineItems:   items,
	}
}

// --- Handlers ---

// CreatePayment handles POST /api/v1/payments
// @Summary Start a payment checkout
// @Description Runs a payment attempt through the named provider and returns the normalized flow result.
// @Tags payments
// @Accept json
// @Produce json
// @Param request body CreatePaymentRequest true "Payment checkout data"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/v1/payments [post]
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	result, err := h.service.CreatePayment(r.Context(), domain.Provider(req.Provider), req.toDomain())
	if err != nil {
		writeGatewayError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// CreateSubscription handles POST /api/v1/subscriptions
// @Summary Start a subscription checkout
// @Description Runs a subscription checkout through the named provider. Same response contract as payments.
// @Tags payments
// @Accept json
// @Produce json
// @Param request body CreatePaymentRequest true "Subscription checkout data"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/v1/subscriptions [post]
func (h *PaymentHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	result, err := h.service.CreateSubscription(r.Context(), domain.Provider(req.Provider), req.toDomain())
	if err != nil {
		writeGatewayError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

func (h *PaymentHandler) decode(w http.ResponseWriter, r *http.Request) (*CreatePaymentRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return nil, false
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return nil, false
	}

	return &req, true
}
