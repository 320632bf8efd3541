package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AndresDevelopers/purvita-payments/internal/domain"
)

// CredentialBundle holds the secrets for one provider in one environment.
// Not every provider uses every field.
type CredentialBundle struct {
	ClientID       string
	PublishableKey string
	SecretKey      string
	WebhookSecret  string
}

// Complete reports whether the bundle has everything the provider needs to
// make live API calls. The wallet is internal and needs no credentials.
func (b CredentialBundle) Complete(provider domain.Provider) bool {
	switch provider {
	case domain.ProviderPayPal:
		return b.ClientID != "" && b.SecretKey != ""
	case domain.ProviderStripe:
		return b.SecretKey != "" && b.PublishableKey != ""
	case domain.ProviderWallet:
		return true
	default:
		return false
	}
}

// MissingFields lists which required fields are absent, for validation
// reporting. Empty for a complete bundle.
func (b CredentialBundle) MissingFields(provider domain.Provider) []string {
	var missing []string
	switch provider {
	case domain.ProviderPayPal:
		if b.ClientID == "" {
			missing = append(missing, "client_id")
		}
		if b.SecretKey == "" {
			missing = append(missing, "secret_key")
		}
	case domain.ProviderStripe:
		if b.SecretKey == "" {
			missing = append(missing, "secret_key")
		}
		if b.PublishableKey == "" {
			missing = append(missing, "publishable_key")
		}
	}
	return missing
}

// MaskSecret renders a secret safe for logs: last 4 characters only.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", 4) + s[len(s)-4:]
}

// ResolvedCredentials pairs a complete bundle with the environment it belongs
// to. Environment here is always effective: live or test, never auto.
type ResolvedCredentials struct {
	Bundle      CredentialBundle
	Environment domain.Environment
}

// CredentialSource supplies raw bundles per provider and environment.
// Implemented by the config package over process env vars.
type CredentialSource interface {
	Bundle(provider domain.Provider, env domain.Environment) CredentialBundle
}

// SettingsReader is the slice of the settings store the resolver needs.
type SettingsReader interface {
	Get(ctx context.Context, provider domain.Provider) (*domain.GatewaySettingsRecord, error)
}

// FallbackNotifier receives the out-of-band alert when a live request is
// silently served with test credentials. Implemented by the event producer.
type FallbackNotifier interface {
	PublishEnvironmentFallback(ctx context.Context, provider domain.Provider, from, to domain.Environment) error
}

// CredentialResolver picks the credential bundle for a payment attempt.
// Settings are read fresh on every call so an admin toggle takes effect
// immediately.
type CredentialResolver struct {
	settings SettingsReader
	source   CredentialSource
	notifier FallbackNotifier
	logger   *slog.Logger
}

// NewCredentialResolver creates a resolver. notifier may be nil when no event
// bus is wired (tests).
func NewCredentialResolver(settings SettingsReader, source CredentialSource, notifier FallbackNotifier, logger *slog.Logger) *CredentialResolver {
	return &CredentialResolver{
		settings: settings,
		source:   source,
		notifier: notifier,
		logger:   logger,
	}
}

// Resolve returns the credentials to use for provider given the requested
// environment. EnvironmentAuto defers to the settings record's mode. When the
// preferred environment is live but the live bundle is incomplete and the
// test bundle is complete, the test bundle is used and the switch is reported
// loudly: warning log, counter, and a fallback event.
func (r *CredentialResolver) Resolve(ctx context.Context, provider domain.Provider, requested domain.Environment) (*ResolvedCredentials, error) {
	record, err := r.settings.Get(ctx, provider)
	if err != nil {
		return nil, NewError(provider, KindConfigurationMissing,
			fmt.Sprintf("no gateway settings for provider %s", provider)).
			WithCause(err).
			WithScenario("resolve_credentials")
	}
	if !record.IsActive {
		return nil, NewError(provider, KindConfigurationMissing,
			fmt.Sprintf("gateway %s is disabled", provider)).
			WithScenario("resolve_credentials")
	}

	preferred := requested
	if preferred == domain.EnvironmentAuto || preferred == "" {
		preferred = record.Mode
	}
	if !domain.IsValidEnvironment(preferred) {
		preferred = domain.EnvironmentTest
	}

	bundle := r.source.Bundle(provider, preferred)
	if bundle.Complete(provider) {
		return &ResolvedCredentials{Bundle: bundle, Environment: preferred}, nil
	}

	if preferred == domain.EnvironmentLive {
		testBundle := r.source.Bundle(provider, domain.EnvironmentTest)
		if testBundle.Complete(provider) {
			r.reportFallback(ctx, provider)
			return &ResolvedCredentials{Bundle: testBundle, Environment: domain.EnvironmentTest}, nil
		}
	}

	return nil, NewError(provider, KindConfigurationMissing,
		fmt.Sprintf("no complete %s credential bundle for provider %s (missing: %s)",
			preferred, provider, strings.Join(bundle.MissingFields(provider), ", "))).
		WithScenario("resolve_credentials")
}

func (r *CredentialResolver) reportFallback(ctx context.Context, provider domain.Provider) {
	environmentFallbacks.WithLabelValues(string(provider)).Inc()
	r.logger.WarnContext(ctx, "live credentials incomplete, falling back to test environment",
		slog.String("provider", string(provider)),
		slog.String("from", string(domain.EnvironmentLive)),
		slog.String("to", string(domain.EnvironmentTest)),
	)
	if r.notifier == nil {
		return
	}
	if err := r.notifier.PublishEnvironmentFallback(ctx, provider, domain.EnvironmentLive, domain.EnvironmentTest); err != nil {
		r.logger.ErrorContext(ctx, "failed to publish environment fallback event",
			slog.String("provider", string(provider)),
			slog.String("error", err.Error()),
		)
	}
}
