package gateway

import (
	"context"
	"log/slog"

	"github.com/AndresDevelopers/purvita-payments/internal/domain"
	"github.com/AndresDevelopers/purvita-payments/internal/wallet"
)

const breakerKeyWallet = "wallet-ledger"

// walletVerificationMessage is surfaced to the user when a debit needs manual
// review before it can proceed.
const walletVerificationMessage = "Additional verification is required for this amount."

// WalletLedger is the slice of the wallet store the client needs.
type WalletLedger interface {
	Debit(ctx context.Context, accountID, currency string, amount int64, reference string) (*wallet.DebitResult, error)
	Ping(ctx context.Context) error
}

// WalletClient debits the internal wallet ledger synchronously. There is no
// redirect: the payment either completes in this call or it does not.
type WalletClient struct {
	ledger   WalletLedger
	breakers *BreakerRegistry
	retryer  *Retryer
	logger   *slog.Logger

	// verifyThreshold: debits at or above this amount (minor units) are held
	// for verification instead of executed. 0 disables the hold.
	verifyThreshold int64
}

// NewWalletClient creates a wallet gateway client.
func NewWalletClient(ledger WalletLedger, breakers *BreakerRegistry, retryer *Retryer, verifyThreshold int64, logger *slog.Logger) *WalletClient {
	return &WalletClient{
		ledger:          ledger,
		breakers:        breakers,
		retryer:         retryer,
		logger:          logger,
		verifyThreshold: verifyThreshold,
	}
}

// Name returns the provider identity.
func (c *WalletClient) Name() domain.Provider {
	return domain.ProviderWallet
}

// CreatePayment debits the requesting user's wallet. The account comes from
// the user_id request metadata.
func (c *WalletClient) CreatePayment(ctx context.Context, req *domain.PaymentRequest, creds *ResolvedCredentials) (*RawResponse, error) {
	return c.debit(ctx, req, "payment")
}

// CreateSubscription debits the first billing cycle from the wallet; renewal
// scheduling is the caller's concern.
func (c *WalletClient) CreateSubscription(ctx context.Context, req *domain.PaymentRequest, creds *ResolvedCredentials) (*RawResponse, error) {
	return c.debit(ctx, req, "subscription")
}

func (c *WalletClient) debit(ctx context.Context, req *domain.PaymentRequest, reference string) (*RawResponse, error) {
	accountID := req.Metadata["user_id"]
	if accountID == "" {
		return nil, NewError(domain.ProviderWallet, KindValidationError,
			"wallet payment request is missing user_id metadata").
			WithScenario("wallet_debit")
	}

	if c.verifyThreshold > 0 && req.Amount >= c.verifyThreshold {
		c.logger.InfoContext(ctx, "wallet debit held for verification",
			slog.String("account_id", accountID),
			slog.Int64("amount", req.Amount),
			slog.Int64("threshold", c.verifyThreshold),
		)
		return &RawResponse{
			Status:  domain.FlowStatusVerificationRequired,
			Message: walletVerificationMessage,
		}, nil
	}

	return c.breakers.Execute(domain.ProviderWallet, breakerKeyWallet, func() (*RawResponse, error) {
		return c.retryer.Run(ctx, domain.ProviderWallet, func(ctx context.Context) (*RawResponse, error) {
			result, err := c.ledger.Debit(ctx, accountID, req.Currency, req.Amount, reference)
			if err != nil {
				return nil, NewError(domain.ProviderWallet, KindNetworkError,
					"wallet ledger unavailable").
					WithCause(err).
					WithScenario("wallet_debit")
			}

			switch result.Status {
			case wallet.DebitCompleted:
				c.logger.InfoContext(ctx, "wallet debit completed",
					slog.String("account_id", accountID),
					slog.Int64("amount", req.Amount),
					slog.Int64("balance", result.Balance),
				)
				return &RawResponse{Status: "wallet_confirmed"}, nil
			default:
				// Declines are results for the normalizer, not transport
				// failures: retrying a debit that was refused cannot help.
				return &RawResponse{Status: string(result.Status)}, nil
			}
		})
	})
}

// ExtractRedirectURL always returns "": wallet payments never redirect.
func (c *WalletClient) ExtractRedirectURL(raw *RawResponse) string {
	return ""
}

// ValidateCredentials checks the ledger backend is reachable. The wallet has
// no credential bundle; reachability is what "valid" means here.
func (c *WalletClient) ValidateCredentials(ctx context.Context, creds *ResolvedCredentials) error {
	if err := c.ledger.Ping(ctx); err != nil {
		return NewError(domain.ProviderWallet, KindNetworkError,
			"wallet ledger unavailable").
			WithCause(err).
			WithScenario("validate_credentials")
	}
	return nil
}
