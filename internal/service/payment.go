package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AndresDevelopers/purvita-payments/internal/domain"
	"github.com/AndresDevelopers/purvita-payments/internal/gateway"
	"github.com/AndresDevelopers/purvita-payments/internal/settings"
)

var paymentAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "payment_attempts_total",
		Help: "Payment attempts by provider and outcome",
	},
	[]string{"provider", "status"},
)

// GatewayClient is the per-provider contract the service dispatches to.
type GatewayClient interface {
	// Name returns the provider identity this client serves.
	Name() domain.Provider

	// CreatePayment starts a one-time payment and returns the provider's raw
	// response.
	CreatePayment(ctx context.Context, req *domain.PaymentRequest, creds *gateway.ResolvedCredentials) (*gateway.RawResponse, error)

	// CreateSubscription starts a recurring checkout and returns the
	// provider's raw response.
	CreateSubscription(ctx context.Context, req *domain.PaymentRequest, creds *gateway.ResolvedCredentials) (*gateway.RawResponse, error)

	// ExtractRedirectURL returns the buyer-facing link from a raw response,
	// or "" for providers that never redirect.
	ExtractRedirectURL(raw *gateway.RawResponse) string

	// ValidateCredentials checks a credential bundle against the provider.
	ValidateCredentials(ctx context.Context, creds *gateway.ResolvedCredentials) error
}

// CredentialResolver resolves the bundle and effective environment for an
// attempt.
type CredentialResolver interface {
	Resolve(ctx context.Context, provider domain.Provider, requested domain.Environment) (*gateway.ResolvedCredentials, error)
}

// EventPublisher publishes payment lifecycle events. Publishing is
// best-effort: a Kafka outage must not fail a payment that already went
// through.
type EventPublisher interface {
	PublishPaymentFlow(ctx context.Context, attemptID string, result *domain.PaymentFlowResult, req *domain.PaymentRequest) error
	PublishPaymentFailed(ctx context.Context, attemptID string, provider domain.Provider, env domain.Environment, req *domain.PaymentRequest, kind, reason string) error
}

// PaymentService orchestrates payment attempts: resolve credentials, call the
// provider, normalize the outcome, and leave an audit trail.
type PaymentService struct {
	resolver CredentialResolver
	clients  map[domain.Provider]GatewayClient
	source   gateway.CredentialSource
	attempts settings.AttemptRepository
	events   EventPublisher
	logger   *slog.Logger
}

// NewPaymentService creates the orchestration service. events may be nil when
// no broker is wired (tests).
func NewPaymentService(
	resolver CredentialResolver,
	clients []GatewayClient,
	source gateway.CredentialSource,
	attempts settings.AttemptRepository,
	events EventPublisher,
	logger *slog.Logger,
) *PaymentService {
	byProvider := make(map[domain.Provider]GatewayClient, len(clients))
	for _, c := range clients {
		byProvider[c.Name()] = c
	}
	return &PaymentService{
		resolver: resolver,
		clients:  byProvider,
		source:   source,
		attempts: attempts,
		events:   events,
		logger:   logger,
	}
}

// CreatePayment runs a one-time payment attempt through the named provider
// and returns the canonical flow result.
func (s *PaymentService) CreatePayment(ctx context.Context, provider domain.Provider, req *domain.PaymentRequest) (*domain.PaymentFlowResult, error) {
	return s.create(ctx, provider, req, false)
}

// CreateSubscription runs a subscription checkout attempt through the named
// provider. The result contract is identical to CreatePayment.
func (s *PaymentService) CreateSubscription(ctx context.Context, provider domain.Provider, req *domain.PaymentRequest) (*domain.PaymentFlowResult, error) {
	return s.create(ctx, provider, req, true)
}

func (s *PaymentService) create(ctx context.Context, provider domain.Provider, req *domain.PaymentRequest, subscription bool) (*domain.PaymentFlowResult, error) {
	client, err := s.client(provider)
	if err != nil {
		return nil, err
	}

	requested := domain.EnvironmentAuto
	if req.TestMode {
		requested = domain.EnvironmentTest
	}

	creds, err := s.resolver.Resolve(ctx, provider, requested)
	if err != nil {
		s.recordFailure(ctx, provider, "", req, err)
		return nil, err
	}

	var raw *gateway.RawResponse
	if subscription {
		raw, err = client.CreateSubscription(ctx, req, creds)
	} else {
		raw, err = client.CreatePayment(ctx, req, creds)
	}
	if err != nil {
		s.recordFailure(ctx, provider, creds.Environment, req, err)
		return nil, err
	}

	var result *domain.PaymentFlowResult
	if subscription {
		result, err = gateway.NormalizeSubscriptionResponse(provider, raw, creds.Environment)
	} else {
		result, err = gateway.NormalizeGatewayResponse(provider, raw, creds.Environment)
	}
	if err != nil {
		s.recordFailure(ctx, provider, creds.Environment, req, err)
		return nil, err
	}

	attemptID := s.recordAttempt(ctx, provider, creds.Environment, attemptStatus(result.Status), req, "", "")
	paymentAttemptsTotal.WithLabelValues(string(provider), result.Status).Inc()

	if s.events != nil {
		if err := s.events.PublishPaymentFlow(ctx, attemptID, result, req); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish payment flow event",
				slog.String("provider", string(provider)),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "payment attempt normalized",
		slog.String("provider", string(provider)),
		slog.String("status", result.Status),
		slog.String("environment", string(result.EffectiveEnvironment)),
		slog.Bool("subscription", subscription),
	)

	return result, nil
}

// ValidateCredentials checks the configured bundle for provider in the given
// environment. This is the admin "Verify" action: it inspects the exact
// environment asked for and never falls back.
func (s *PaymentService) ValidateCredentials(ctx context.Context, provider domain.Provider, env domain.Environment) (*domain.CredentialValidation, error) {
	client, err := s.client(provider)
	if err != nil {
		return nil, err
	}
	if !domain.IsValidEnvironment(env) {
		return nil, gateway.NewError(provider, gateway.KindValidationError,
			fmt.Sprintf("environment must be live or test, got %q", env))
	}

	bundle := s.source.Bundle(provider, env)
	if missing := bundle.MissingFields(provider); len(missing) > 0 {
		errs := make([]string, 0, len(missing))
		for _, field := range missing {
			errs = append(errs, fmt.Sprintf("missing %s", field))
		}
		return &domain.CredentialValidation{IsValid: false, Environment: env, Errors: errs}, nil
	}

	creds := &gateway.ResolvedCredentials{Bundle: bundle, Environment: env}
	if err := client.ValidateCredentials(ctx, creds); err != nil {
		s.logger.WarnContext(ctx, "credential validation failed",
			slog.String("provider", string(provider)),
			slog.String("environment", string(env)),
			slog.String("error", err.Error()),
		)
		return &domain.CredentialValidation{
			IsValid:     false,
			Environment: env,
			Errors:      []string{err.Error()},
		}, nil
	}

	return &domain.CredentialValidation{IsValid: true, Environment: env, Errors: []string{}}, nil
}

func (s *PaymentService) client(provider domain.Provider) (GatewayClient, error) {
	if !domain.IsValidProvider(provider) {
		return nil, gateway.NewError(provider, gateway.KindValidationError,
			fmt.Sprintf("unknown payment provider %q", provider))
	}
	client, ok := s.clients[provider]
	if !ok {
		return nil, gateway.NewError(provider, gateway.KindConfigurationMissing,
			fmt.Sprintf("no gateway client configured for provider %s", provider))
	}
	return client, nil
}

// attemptStatus maps a flow status to its audit-trail spelling.
func attemptStatus(flowStatus string) string {
	switch flowStatus {
	case domain.FlowStatusCompleted:
		return domain.AttemptStatusCompleted
	case domain.FlowStatusVerificationRequired:
		return domain.AttemptStatusVerificationRequired
	default:
		return domain.AttemptStatusInitiated
	}
}

// recordAttempt writes one audit row. Audit failures are logged, never
// surfaced: the payment outcome is already decided.
func (s *PaymentService) recordAttempt(ctx context.Context, provider domain.Provider, env domain.Environment, status string, req *domain.PaymentRequest, kind, reason string) string {
	attempt := &domain.PaymentAttempt{
		Provider:      provider,
		Environment:   env,
		Status:        status,
		Amount:        req.Amount,
		Currency:      req.Currency,
		FailureKind:   kind,
		FailureReason: reason,
	}
	if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
		s.logger.ErrorContext(ctx, "failed to record payment attempt",
			slog.String("provider", string(provider)),
			slog.String("status", status),
			slog.String("error", err.Error()),
		)
	}
	return attempt.ID
}

func (s *PaymentService) recordFailure(ctx context.Context, provider domain.Provider, env domain.Environment, req *domain.PaymentRequest, cause error) {
	pe := gateway.Classify(provider, cause)
	attemptID := s.recordAttempt(ctx, provider, env, domain.AttemptStatusFailed, req, string(pe.Kind), pe.Message)
	paymentAttemptsTotal.WithLabelValues(string(provider), domain.AttemptStatusFailed).Inc()

	if s.events != nil {
		if err := s.events.PublishPaymentFailed(ctx, attemptID, provider, env, req, string(pe.Kind), pe.Message); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish payment.failed event",
				slog.String("provider", string(provider)),
				slog.String("error", err.Error()),
			)
		}
	}
}
