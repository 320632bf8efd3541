package gateway

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndresDevelopers/purvita-payments/internal/domain"
)

func testBreakerRegistry(t *testing.T, timeout time.Duration) *BreakerRegistry {
	t.Helper()
	return NewBreakerRegistry(BreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          timeout,
	}, testLogger())
}

func failingOp(calls *int) func() (*RawResponse, error) {
	return func() (*RawResponse, error) {
		*calls++
		return nil, errors.New("provider down")
	}
}

func succeedingOp(calls *int) func() (*RawResponse, error) {
	return func() (*RawResponse, error) {
		*calls++
		return &RawResponse{Status: "ok"}, nil
	}
}

func TestBreakerRegistry_OpensAfterConsecutiveFailures(t *testing.T) {
	r := testBreakerRegistry(t, time.Minute)

	calls := 0
	for i := 0; i < 3; i++ {
		_, err := r.Execute(domain.ProviderPayPal, "paypal-api", failingOp(&calls))
		require.Error(t, err)
	}

	assert.Equal(t, 3, calls)
	assert.Equal(t, gobreaker.StateOpen, r.State("paypal-api"))
}

func TestBreakerRegistry_OpenRejectsWithoutInvokingOperation(t *testing.T) {
	r := testBreakerRegistry(t, time.Minute)

	calls := 0
	for i := 0; i < 3; i++ {
		_, _ = r.Execute(domain.ProviderPayPal, "paypal-api", failingOp(&calls))
	}
	require.Equal(t, gobreaker.StateOpen, r.State("paypal-api"))

	_, err := r.Execute(domain.ProviderPayPal, "paypal-api", failingOp(&calls))
	require.Error(t, err)
	// Fast-fail: the operation never ran.
	assert.Equal(t, 3, calls)

	pe, ok := AsPaymentError(err)
	require.True(t, ok)
	assert.Equal(t, KindProviderError, pe.Kind)
	assert.False(t, pe.Retryable, "open-circuit rejections must not be retried")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestBreakerRegistry_SuccessesBelowThresholdDoNotOpen(t *testing.T) {
	r := testBreakerRegistry(t, time.Minute)

	calls := 0
	_, _ = r.Execute(domain.ProviderStripe, "stripe-api", failingOp(&calls))
	_, _ = r.Execute(domain.ProviderStripe, "stripe-api", failingOp(&calls))

	// A success resets the consecutive failure count.
	_, err := r.Execute(domain.ProviderStripe, "stripe-api", succeedingOp(&calls))
	require.NoError(t, err)

	_, _ = r.Execute(domain.ProviderStripe, "stripe-api", failingOp(&calls))
	_, _ = r.Execute(domain.ProviderStripe, "stripe-api", failingOp(&calls))
	assert.Equal(t, gobreaker.StateClosed, r.State("stripe-api"))
}

func TestBreakerRegistry_HalfOpenClosesAfterSuccessThreshold(t *testing.T) {
	r := testBreakerRegistry(t, 30*time.Millisecond)

	calls := 0
	for i := 0; i < 3; i++ {
		_, _ = r.Execute(domain.ProviderWallet, "wallet-ledger", failingOp(&calls))
	}
	require.Equal(t, gobreaker.StateOpen, r.State("wallet-ledger"))

	time.Sleep(50 * time.Millisecond)

	// First probe: half-open.
	_, err := r.Execute(domain.ProviderWallet, "wallet-ledger", succeedingOp(&calls))
	require.NoError(t, err)
	assert.Equal(t, gobreaker.StateHalfOpen, r.State("wallet-ledger"))

	// Second success reaches the threshold and closes the breaker.
	_, err = r.Execute(domain.ProviderWallet, "wallet-ledger", succeedingOp(&calls))
	require.NoError(t, err)
	assert.Equal(t, gobreaker.StateClosed, r.State("wallet-ledger"))
}

func TestBreakerRegistry_HalfOpenFailureReopens(t *testing.T) {
	r := testBreakerRegistry(t, 30*time.Millisecond)

	calls := 0
	for i := 0; i < 3; i++ {
		_, _ = r.Execute(domain.ProviderPayPal, "paypal-api", failingOp(&calls))
	}
	require.Equal(t, gobreaker.StateOpen, r.State("paypal-api"))

	time.Sleep(50 * time.Millisecond)

	_, err := r.Execute(domain.ProviderPayPal, "paypal-api", failingOp(&calls))
	require.Error(t, err)
	assert.Equal(t, gobreaker.StateOpen, r.State("paypal-api"))
}

func TestBreakerRegistry_KeysAreIndependent(t *testing.T) {
	r := testBreakerRegistry(t, time.Minute)

	calls := 0
	for i := 0; i < 3; i++ {
		_, _ = r.Execute(domain.ProviderPayPal, "paypal-api", failingOp(&calls))
	}
	require.Equal(t, gobreaker.StateOpen, r.State("paypal-api"))

	// The stripe breaker is untouched.
	assert.Equal(t, gobreaker.StateClosed, r.State("stripe-api"))
	_, err := r.Execute(domain.ProviderStripe, "stripe-api", succeedingOp(&calls))
	assert.NoError(t, err)
}

func TestBreakerRegistry_ClientErrorsDoNotTrip(t *testing.T) {
	r := testBreakerRegistry(t, time.Minute)

	calls := 0
	declineOp := func() (*RawResponse, error) {
		calls++
		return nil, NewError(domain.ProviderStripe, KindValidationError, "card declined")
	}
	rejectOp := func() (*RawResponse, error) {
		calls++
		return nil, NewError(domain.ProviderStripe, KindInvalidCredentials, "bad api key")
	}

	// Deterministic provider rejections keep flowing to the caller but never
	// open the circuit, no matter how many arrive in a row.
	for i := 0; i < 6; i++ {
		_, err := r.Execute(domain.ProviderStripe, "stripe-api", declineOp)
		require.Error(t, err)
		pe, ok := AsPaymentError(err)
		require.True(t, ok)
		assert.Equal(t, KindValidationError, pe.Kind)
	}
	for i := 0; i < 6; i++ {
		_, err := r.Execute(domain.ProviderStripe, "stripe-api", rejectOp)
		require.Error(t, err)
	}

	assert.Equal(t, 12, calls, "every call must reach the provider")
	assert.Equal(t, gobreaker.StateClosed, r.State("stripe-api"))

	// Transport-class failures still trip as before.
	failCalls := 0
	for i := 0; i < 3; i++ {
		_, _ = r.Execute(domain.ProviderStripe, "stripe-api", func() (*RawResponse, error) {
			failCalls++
			return nil, NewError(domain.ProviderStripe, KindNetworkError, "connection refused")
		})
	}
	assert.Equal(t, gobreaker.StateOpen, r.State("stripe-api"))
}

func TestBreakerRegistry_UnknownKeyIsClosed(t *testing.T) {
	r := testBreakerRegistry(t, time.Minute)
	assert.Equal(t, gobreaker.StateClosed, r.State("never-used"))
}
