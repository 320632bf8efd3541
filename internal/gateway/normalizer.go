package gateway

import (
	"github.com/AndresDevelopers/purvita-payments/internal/domain"
)

// walletSuccessStatuses are the provider-side spellings that all mean the
// debit went through.
var walletSuccessStatuses = map[string]struct{}{
	"completed":        {},
	"wallet_confirmed": {},
	"success":          {},
}

// NormalizeGatewayResponse maps a provider's raw payment response onto the
// canonical three-state result. Redirect providers (paypal, stripe) must
// supply a redirect link; the wallet must report a recognized success or
// verification status. Anything else is a failure, never a silent success.
func NormalizeGatewayResponse(provider domain.Provider, raw *RawResponse, effectiveEnv domain.Environment) (*domain.PaymentFlowResult, error) {
	return normalize(provider, raw, effectiveEnv)
}

// NormalizeSubscriptionResponse applies the same contract to subscription
// checkout responses: the flow shape is identical, only the upstream endpoint
// differed.
func NormalizeSubscriptionResponse(provider domain.Provider, raw *RawResponse, effectiveEnv domain.Environment) (*domain.PaymentFlowResult, error) {
	return normalize(provider, raw, effectiveEnv)
}

func normalize(provider domain.Provider, raw *RawResponse, effectiveEnv domain.Environment) (*domain.PaymentFlowResult, error) {
	if raw == nil {
		return nil, NewError(provider, KindProviderError, "provider returned no response").
			WithScenario("normalize")
	}

	if provider == domain.ProviderWallet {
		return normalizeWallet(raw, effectiveEnv)
	}

	redirect := raw.RedirectURL()
	if redirect == "" {
		return nil, NewError(provider, KindProviderError, "Missing payment redirect URL").
			WithScenario("normalize")
	}

	return &domain.PaymentFlowResult{
		Provider:             provider,
		Status:               domain.FlowStatusRequiresAction,
		EffectiveEnvironment: effectiveEnv,
		RedirectURL:          redirect,
	}, nil
}

func normalizeWallet(raw *RawResponse, effectiveEnv domain.Environment) (*domain.PaymentFlowResult, error) {
	if raw.Status == domain.FlowStatusVerificationRequired {
		return &domain.PaymentFlowResult{
			Provider:             domain.ProviderWallet,
			Status:               domain.FlowStatusVerificationRequired,
			EffectiveEnvironment: effectiveEnv,
			VerificationRequired: true,
			VerificationMessage:  raw.Message,
		}, nil
	}

	if _, ok := walletSuccessStatuses[raw.Status]; ok {
		return &domain.PaymentFlowResult{
			Provider:             domain.ProviderWallet,
			Status:               domain.FlowStatusCompleted,
			EffectiveEnvironment: effectiveEnv,
		}, nil
	}

	return nil, NewError(domain.ProviderWallet, KindProviderError,
		"Wallet payment did not complete successfully.").
		WithScenario("normalize")
}
