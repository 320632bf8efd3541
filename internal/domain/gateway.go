package domain

import (
	"time"
)

// Provider identifies an external payment backend.
type Provider string

// Known payment providers.
const (
	ProviderPayPal       Provider = "paypal"
	ProviderStripe       Provider = "stripe"
	ProviderWallet       Provider = "wallet"
	ProviderManual       Provider = "manual"
	ProviderAuthorizeNet Provider = "authorize_net"
	ProviderPayoneer     Provider = "payoneer"
)

// ValidProviders returns all recognized provider identities.
func ValidProviders() []Provider {
	return []Provider{
		ProviderPayPal,
		ProviderStripe,
		ProviderWallet,
		ProviderManual,
		ProviderAuthorizeNet,
		ProviderPayoneer,
	}
}

// IsValidProvider checks whether the given value is a recognized provider.
func IsValidProvider(p Provider) bool {
	for _, v := range ValidProviders() {
		if v == p {
			return true
		}
	}
	return false
}

// Environment selects which credential bundle is used for a provider.
// It is orthogonal to the provider identity.
type Environment string

const (
	EnvironmentLive Environment = "live"
	EnvironmentTest Environment = "test"

	// EnvironmentAuto is a request-side value only: the preferred environment
	// is taken from the gateway settings record. It is never an effective
	// environment.
	EnvironmentAuto Environment = "auto"
)

// IsValidEnvironment checks whether the given value is a usable effective
// environment (live or test).
func IsValidEnvironment(e Environment) bool {
	return e == EnvironmentLive || e == EnvironmentTest
}

// Flow statuses for the canonical payment result.
const (
	FlowStatusRequiresAction       = "requires_action"
	FlowStatusCompleted            = "completed"
	FlowStatusVerificationRequired = "verification_required"
)

// GatewaySettingsRecord is the persisted configuration for one provider.
// Mode records the preferred environment; the environment actually used may
// differ when credential auto-fallback triggers.
type GatewaySettingsRecord struct {
	Provider      Provider    `json:"provider"`
	IsActive      bool        `json:"is_active"`
	Functionality string      `json:"functionality"`
	Mode          Environment `json:"mode"`
	LiveAvailable bool        `json:"live_available"`
	TestAvailable bool        `json:"test_available"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// LineItem is a single cart entry attached to a payment request.
type LineItem struct {
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
	Quantity int    `json:"quantity"`
}

// PaymentRequest is the input for a payment or subscription checkout attempt.
// Amounts are in minor currency units (cents). The request is immutable per
// call.
type PaymentRequest struct {
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	TestMode    bool              `json:"test_mode"`
	SuccessURL  string            `json:"success_url"`
	CancelURL   string            `json:"cancel_url"`
	OriginURL   string            `json:"origin_url"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	LineItems   []LineItem        `json:"line_items,omitempty"`
}

// PaymentFlowResult is the canonical outcome of a payment attempt. It is the
// only contract callers outside the gateway core should depend on.
//
// Invariants:
//   - Status == requires_action implies a non-empty RedirectURL.
//   - Status == completed implies an empty RedirectURL.
type PaymentFlowResult struct {
	Provider             Provider    `json:"provider"`
	Status               string      `json:"status"`
	EffectiveEnvironment Environment `json:"effective_environment"`
	RedirectURL          string      `json:"redirect_url,omitempty"`
	VerificationRequired bool        `json:"verification_required,omitempty"`
	VerificationMessage  string      `json:"verification_message,omitempty"`
}

// CredentialValidation is the outcome of an admin "Verify" action against a
// provider credential bundle.
type CredentialValidation struct {
	IsValid     bool        `json:"is_valid"`
	Environment Environment `json:"environment"`
	Errors      []string    `json:"errors"`
}

// Payment attempt statuses recorded in the audit trail.
const (
	AttemptStatusInitiated            = "initiated"
	AttemptStatusCompleted            = "completed"
	AttemptStatusVerificationRequired = "verification_required"
	AttemptStatusFailed               = "failed"
)

// PaymentAttempt is one row of the gateway audit trail: a single call into an
// external provider and its outcome.
type PaymentAttempt struct {
	ID            string      `json:"id"`
	Provider      Provider    `json:"provider"`
	Environment   Environment `json:"environment"`
	Status        string      `json:"status"`
	Amount        int64       `json:"amount"`
	Currency      string      `json:"currency"`
	FailureKind   string      `json:"failure_kind,omitempty"`
	FailureReason string      `json:"failure_reason,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}
