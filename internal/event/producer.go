package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AndresDevelopers/purvita-payments/internal/domain"
	pkgkafka "github.com/AndresDevelopers/purvita-payments/pkg/kafka"
)

// Kafka topic constants for gateway domain events.
const (
	TopicPaymentInitiated           = "purvita.payment.initiated"
	TopicPaymentCompleted           = "purvita.payment.completed"
	TopicPaymentVerificationPending = "purvita.payment.verification_pending"
	TopicPaymentFailed              = "purvita.payment.failed"
	TopicEnvironmentFallback        = "purvita.gateway.environment_fallback"
)

// Aggregate type constant.
const AggregateTypePayment = "payment"

// Source identifier for events originating from this service.
const SourceGatewayService = "payment-gateway-service"

// PaymentFlowData is the payload for payment lifecycle events.
type PaymentFlowData struct {
	AttemptID   string `json:"attempt_id"`
	Provider    string `json:"provider"`
	Environment string `json:"environment"`
	Status      string `json:"status"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// PaymentFailedData is the payload for a payment.failed event.
type PaymentFailedData struct {
	AttemptID   string `json:"attempt_id"`
	Provider    string `json:"provider"`
	Environment string `json:"environment"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	ErrorKind   string `json:"error_kind"`
	Reason      string `json:"reason"`
}

// EnvironmentFallbackData is the payload for the fallback alert. Operations
// subscribes to this topic: a live request served with test credentials is a
// configuration incident, not routine traffic.
type EnvironmentFallbackData struct {
	Provider string `json:"provider"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// Producer publishes gateway domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the gateway service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// topicForStatus maps a flow status onto its lifecycle topic.
func topicForStatus(status string) string {
	switch status {
	case domain.FlowStatusCompleted:
		return TopicPaymentCompleted
	case domain.FlowStatusVerificationRequired:
		return TopicPaymentVerificationPending
	default:
		return TopicPaymentInitiated
	}
}

// PublishPaymentFlow publishes the lifecycle event matching the attempt's
// normalized status.
func (p *Producer) PublishPaymentFlow(ctx context.Context, attemptID string, result *domain.PaymentFlowResult, req *domain.PaymentRequest) error {
	topic := topicForStatus(result.Status)
	data := PaymentFlowData{
		AttemptID:   attemptID,
		Provider:    string(result.Provider),
		Environment: string(result.EffectiveEnvironment),
		Status:      result.Status,
		Amount:      req.Amount,
		Currency:    req.Currency,
	}

	event, err := pkgkafka.NewEvent(topic, attemptID, AggregateTypePayment, SourceGatewayService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published payment flow event",
		slog.String("topic", topic),
		slog.String("attempt_id", attemptID),
		slog.String("provider", string(result.Provider)),
		slog.String("status", result.Status),
	)

	return nil
}

// PublishPaymentFailed publishes a payment.failed event.
func (p *Producer) PublishPaymentFailed(ctx context.Context, attemptID string, provider domain.Provider, env domain.Environment, req *domain.PaymentRequest, kind, reason string) error {
	data := PaymentFailedData{
		AttemptID:   attemptID,
		Provider:    string(provider),
		Environment: string(env),
		Amount:      req.Amount,
		Currency:    req.Currency,
		ErrorKind:   kind,
		Reason:      reason,
	}

	event, err := pkgkafka.NewEvent(TopicPaymentFailed, attemptID, AggregateTypePayment, SourceGatewayService, data)
	if err != nil {
		return fmt.Errorf("create payment.failed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPaymentFailed, event); err != nil {
		return fmt.Errorf("publish payment.failed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published payment.failed event",
		slog.String("attempt_id", attemptID),
		slog.String("provider", string(provider)),
		slog.String("error_kind", kind),
	)

	return nil
}

// PublishEnvironmentFallback publishes the gateway.environment_fallback
// alert. It satisfies the credential resolver's notifier interface.
func (p *Producer) PublishEnvironmentFallback(ctx context.Context, provider domain.Provider, from, to domain.Environment) error {
	data := EnvironmentFallbackData{
		Provider: string(provider),
		From:     string(from),
		To:       string(to),
	}

	event, err := pkgkafka.NewEvent(TopicEnvironmentFallback, string(provider), "gateway", SourceGatewayService, data)
	if err != nil {
		return fmt.Errorf("create environment_fallback event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicEnvironmentFallback, event); err != nil {
		return fmt.Errorf("publish environment_fallback event: %w", err)
	}

	p.logger.WarnContext(ctx, "published environment fallback event",
		slog.String("provider", string(provider)),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)

	return nil
}
