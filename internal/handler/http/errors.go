package http

import (
	"log/slog"
	"net/http"

	"github.com/AndresDevelopers/purvita-payments/internal/gateway"
	"github.com/AndresDevelopers/purvita-payments/pkg/httputil"
	"github.com/AndresDevelopers/purvita-payments/pkg/logger"
)

// statusForKind maps an error kind onto the HTTP status the edge returns.
func statusForKind(kind gateway.ErrorKind) int {
	switch kind {
	case gateway.KindValidationError:
		return http.StatusBadRequest
	case gateway.KindProviderError:
		return http.StatusUnprocessableEntity
	case gateway.KindConfigurationMissing:
		return http.StatusServiceUnavailable
	case gateway.KindInvalidCredentials, gateway.KindNetworkError:
		return http.StatusBadGateway
	case gateway.KindTimeoutError:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeGatewayError renders a PaymentError with its kind as the error code
// and the customer-safe message as the body; the raw provider detail goes to
// the log only. Errors outside the taxonomy fall through to the shared
// WriteError mapping.
func writeGatewayError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	pe, ok := gateway.AsPaymentError(err)
	if !ok {
		httputil.WriteError(w, r, err, fallback)
		return
	}

	l := logger.FromContext(r.Context())
	if l == slog.Default() {
		l = fallback
	}
	l.WarnContext(r.Context(), "payment attempt failed",
		slog.String("provider", string(pe.Provider)),
		slog.String("kind", string(pe.Kind)),
		slog.String("scenario", pe.Scenario),
		slog.Bool("retryable", pe.Retryable),
		slog.String("error", pe.Error()),
	)

	httputil.WriteJSON(w, statusForKind(pe.Kind), httputil.Response{
		Error: &httputil.ErrorResponse{
			Code:      string(pe.Kind),
			Message:   gateway.UserMessage(pe.Kind),
			RequestID: logger.CorrelationIDFromContext(r.Context()),
		},
	})
}
