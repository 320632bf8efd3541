package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AndresDevelopers/purvita-payments/internal/domain"
	"github.com/AndresDevelopers/purvita-payments/internal/wallet"
)

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Debit(ctx context.Context, accountID, currency string, amount int64, reference string) (*wallet.DebitResult, error) {
	args := m.Called(ctx, accountID, currency, amount, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.DebitResult), args.Error(1)
}

func (m *mockLedger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func testWalletClient(t *testing.T, ledger WalletLedger, threshold int64) *WalletClient {
	t.Helper()
	return NewWalletClient(
		ledger,
		testBreakerRegistry(t, time.Minute),
		NewRetryer(fastRetryConfig(2), testLogger()),
		threshold,
		testLogger(),
	)
}

func walletRequest(amount int64) *domain.PaymentRequest {
	return &domain.PaymentRequest{
		Amount:   amount,
		Currency: "USD",
		Metadata: map[string]string{"user_id": "u-42"},
	}
}

func TestWalletClient_CreatePayment_Confirmed(t *testing.T) {
	ledger := new(mockLedger)
	ledger.On("Debit", mock.Anything, "u-42", "USD", int64(2500), "payment").
		Return(&wallet.DebitResult{Status: wallet.DebitCompleted, Balance: 7500}, nil)

	client := testWalletClient(t, ledger, 0)
	raw, err := client.CreatePayment(context.Background(), walletRequest(2500), nil)

	require.NoError(t, err)
	assert.Equal(t, "wallet_confirmed", raw.Status)
	assert.Empty(t, client.ExtractRedirectURL(raw))
	ledger.AssertExpectations(t)
}

func TestWalletClient_CreatePayment_InsufficientBalance(t *testing.T) {
	ledger := new(mockLedger)
	ledger.On("Debit", mock.Anything, "u-42", "USD", int64(2500), "payment").
		Return(&wallet.DebitResult{Status: wallet.DebitInsufficientBalance}, nil)

	client := testWalletClient(t, ledger, 0)
	raw, err := client.CreatePayment(context.Background(), walletRequest(2500), nil)

	// A refused debit is a result, not an error. The normalizer turns it
	// into the failure the caller sees.
	require.NoError(t, err)
	assert.Equal(t, "insufficient_balance", raw.Status)
	ledger.AssertNumberOfCalls(t, "Debit", 1)
}

func TestWalletClient_CreatePayment_VerificationHold(t *testing.T) {
	ledger := new(mockLedger)

	client := testWalletClient(t, ledger, 100000)
	raw, err := client.CreatePayment(context.Background(), walletRequest(100000), nil)

	require.NoError(t, err)
	assert.Equal(t, domain.FlowStatusVerificationRequired, raw.Status)
	assert.Equal(t, "Additional verification is required for this amount.", raw.Message)
	// The hold happens before the ledger is ever touched.
	ledger.AssertNotCalled(t, "Debit")
}

func TestWalletClient_CreatePayment_BelowThresholdDebitsNormally(t *testing.T) {
	ledger := new(mockLedger)
	ledger.On("Debit", mock.Anything, "u-42", "USD", int64(99999), "payment").
		Return(&wallet.DebitResult{Status: wallet.DebitCompleted, Balance: 1}, nil)

	client := testWalletClient(t, ledger, 100000)
	raw, err := client.CreatePayment(context.Background(), walletRequest(99999), nil)

	require.NoError(t, err)
	assert.Equal(t, "wallet_confirmed", raw.Status)
}

func TestWalletClient_CreatePayment_MissingUserID(t *testing.T) {
	ledger := new(mockLedger)

	client := testWalletClient(t, ledger, 0)
	_, err := client.CreatePayment(context.Background(), &domain.PaymentRequest{
		Amount:   2500,
		Currency: "USD",
	}, nil)

	require.Error(t, err)
	pe, ok := AsPaymentError(err)
	require.True(t, ok)
	assert.Equal(t, KindValidationError, pe.Kind)
	ledger.AssertNotCalled(t, "Debit")
}

func TestWalletClient_CreatePayment_LedgerErrorRetried(t *testing.T) {
	ledger := new(mockLedger)
	ledger.On("Debit", mock.Anything, "u-42", "USD", int64(2500), "payment").
		Return(nil, assert.AnError).Twice()
	ledger.On("Debit", mock.Anything, "u-42", "USD", int64(2500), "payment").
		Return(&wallet.DebitResult{Status: wallet.DebitCompleted, Balance: 500}, nil).Once()

	client := testWalletClient(t, ledger, 0)
	raw, err := client.CreatePayment(context.Background(), walletRequest(2500), nil)

	require.NoError(t, err)
	assert.Equal(t, "wallet_confirmed", raw.Status)
	ledger.AssertNumberOfCalls(t, "Debit", 3)
}

func TestWalletClient_CreateSubscription_UsesSubscriptionReference(t *testing.T) {
	ledger := new(mockLedger)
	ledger.On("Debit", mock.Anything, "u-42", "USD", int64(999), "subscription").
		Return(&wallet.DebitResult{Status: wallet.DebitCompleted, Balance: 1}, nil)

	client := testWalletClient(t, ledger, 0)
	raw, err := client.CreateSubscription(context.Background(), walletRequest(999), nil)

	require.NoError(t, err)
	assert.Equal(t, "wallet_confirmed", raw.Status)
	ledger.AssertExpectations(t)
}

func TestWalletClient_ValidateCredentials(t *testing.T) {
	t.Run("reachable ledger", func(t *testing.T) {
		ledger := new(mockLedger)
		ledger.On("Ping", mock.Anything).Return(nil)

		client := testWalletClient(t, ledger, 0)
		assert.NoError(t, client.ValidateCredentials(context.Background(), nil))
	})

	t.Run("unreachable ledger", func(t *testing.T) {
		ledger := new(mockLedger)
		ledger.On("Ping", mock.Anything).Return(assert.AnError)

		client := testWalletClient(t, ledger, 0)
		err := client.ValidateCredentials(context.Background(), nil)
		require.Error(t, err)
		pe, ok := AsPaymentError(err)
		require.True(t, ok)
		assert.Equal(t, KindNetworkError, pe.Kind)
	})
}
