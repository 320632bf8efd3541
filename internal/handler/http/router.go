package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AndresDevelopers/purvita-payments/internal/service"
	"github.com/AndresDevelopers/purvita-payments/pkg/health"
	"github.com/AndresDevelopers/purvita-payments/pkg/middleware"
)

// NewRouter creates a chi router with all gateway service routes registered.
func NewRouter(
	paymentService *service.PaymentService,
	settingsService *service.SettingsService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	pprofCIDRs []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("gateway"))
	r.Use(middleware.Tracing("gateway"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, pprofCIDRs, logger)

	paymentHandler := NewPaymentHandler(paymentService, logger)
	gatewayHandler := NewGatewayHandler(settingsService, paymentService, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/payments", paymentHandler.CreatePayment)
		r.Post("/subscriptions", paymentHandler.CreateSubscription)

		r.Route("/gateways", func(r chi.Router) {
			r.Get("/", gatewayHandler.ListGateways)
			r.Get("/{provider}/settings", gatewayHandler.GetSettings)
			r.Put("/{provider}/settings", gatewayHandler.UpdateSettings)
			r.Post("/{provider}/validate", gatewayHandler.ValidateCredentials)
			r.Get("/{provider}/attempts", gatewayHandler.ListAttempts)
		})
	})

	return r
}
