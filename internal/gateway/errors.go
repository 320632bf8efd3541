package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AndresDevelopers/purvita-payments/internal/domain"
)

// ErrorKind classifies a payment failure into one of the stable categories the
// rest of the platform keys on.
type ErrorKind string

const (
	KindConfigurationMissing ErrorKind = "CONFIGURATION_MISSING"
	KindInvalidCredentials   ErrorKind = "INVALID_CREDENTIALS"
	KindNetworkError         ErrorKind = "NETWORK_ERROR"
	KindValidationError      ErrorKind = "VALIDATION_ERROR"
	KindProviderError        ErrorKind = "PROVIDER_ERROR"
	KindTimeoutError         ErrorKind = "TIMEOUT_ERROR"
	KindUnknownError         ErrorKind = "UNKNOWN_ERROR"
)

// PaymentError is the single error type crossing the gateway boundary. Kind
// drives retry decisions and user messaging; Cause preserves the underlying
// error for the chain.
type PaymentError struct {
	Provider  domain.Provider
	Kind      ErrorKind
	Message   string
	Scenario  string
	Retryable bool
	Timestamp time.Time
	Cause     error
}

func (e *PaymentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Provider, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Provider, e.Kind, e.Message)
}

func (e *PaymentError) Unwrap() error {
	return e.Cause
}

// NewError builds a PaymentError with the default retryability for its kind.
func NewError(provider domain.Provider, kind ErrorKind, message string) *PaymentError {
	return &PaymentError{
		Provider:  provider,
		Kind:      kind,
		Message:   message,
		Retryable: kind == KindNetworkError || kind == KindTimeoutError,
		Timestamp: time.Now().UTC(),
	}
}

// WithCause attaches the underlying error.
func (e *PaymentError) WithCause(cause error) *PaymentError {
	e.Cause = cause
	return e
}

// WithScenario tags the error with the operation it occurred in, e.g.
// "create_order" or "validate_credentials".
func (e *PaymentError) WithScenario(scenario string) *PaymentError {
	e.Scenario = scenario
	return e
}

// WithRetryable overrides the kind's default retryability. Used for transient
// provider failures (429, 5xx) which are retryable PROVIDER_ERRORs.
func (e *PaymentError) WithRetryable(retryable bool) *PaymentError {
	e.Retryable = retryable
	return e
}

// AsPaymentError unwraps err to a *PaymentError if one is in the chain.
func AsPaymentError(err error) (*PaymentError, bool) {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsRetryable reports whether the error is safe to retry. Errors outside the
// taxonomy are conservatively not retried.
func IsRetryable(err error) bool {
	if pe, ok := AsPaymentError(err); ok {
		return pe.Retryable
	}
	return false
}

// ClassifyHTTPStatus maps a non-2xx provider response to a PaymentError.
// Structured classification by status code; the body is kept as context only.
func ClassifyHTTPStatus(provider domain.Provider, status int, body string) *PaymentError {
	detail := truncateDetail(strings.TrimSpace(body))

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewError(provider, KindInvalidCredentials,
			fmt.Sprintf("provider rejected credentials (status %d): %s", status, detail))
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return NewError(provider, KindValidationError,
			fmt.Sprintf("provider rejected request (status %d): %s", status, detail))
	case status == http.StatusTooManyRequests:
		return NewError(provider, KindProviderError,
			fmt.Sprintf("provider rate limited request (status %d): %s", status, detail)).
			WithRetryable(true)
	case status >= 500:
		return NewError(provider, KindProviderError,
			fmt.Sprintf("provider returned server error (status %d): %s", status, detail)).
			WithRetryable(true)
	default:
		return NewError(provider, KindProviderError,
			fmt.Sprintf("provider returned unexpected status %d: %s", status, detail))
	}
}

// WrapTransportError maps a failed outbound call (no HTTP response at all) to
// a PaymentError. Timeouts and context deadlines become TIMEOUT_ERROR; other
// network failures become NETWORK_ERROR. Caller cancellation is not retryable.
func WrapTransportError(provider domain.Provider, err error) *PaymentError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewError(provider, KindTimeoutError, "request timed out").WithCause(err)
	case errors.Is(err, context.Canceled):
		return NewError(provider, KindNetworkError, "request canceled").
			WithRetryable(false).WithCause(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewError(provider, KindTimeoutError, "request timed out").WithCause(err)
	}

	return NewError(provider, KindNetworkError, "request failed").WithCause(err)
}

// Classify is the last-resort fallback for errors that carry no structure.
// It sniffs the message for well-known markers; anything unrecognized is
// UNKNOWN_ERROR. Prefer ClassifyHTTPStatus / WrapTransportError wherever the
// call site still has the response or transport error in hand.
func Classify(provider domain.Provider, err error) *PaymentError {
	if pe, ok := AsPaymentError(err); ok {
		return pe
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "not configured", "configuration", "missing settings"):
		return NewError(provider, KindConfigurationMissing, err.Error()).WithCause(err)
	case containsAny(msg, "credential", "unauthorized", "authentication", "invalid api key"):
		return NewError(provider, KindInvalidCredentials, err.Error()).WithCause(err)
	case containsAny(msg, "timeout", "timed out", "deadline exceeded"):
		return NewError(provider, KindTimeoutError, err.Error()).WithCause(err)
	case containsAny(msg, "network", "connection refused", "connection reset", "no such host", "broken pipe", "eof"):
		return NewError(provider, KindNetworkError, err.Error()).WithCause(err)
	case containsAny(msg, "validation", "invalid request", "bad request"):
		return NewError(provider, KindValidationError, err.Error()).WithCause(err)
	default:
		return NewError(provider, KindUnknownError, err.Error()).WithCause(err)
	}
}

const maxDetailBytes = 512

// truncateDetail caps a provider error body, backing off to the previous rune
// boundary so a multi-byte sequence is never split.
func truncateDetail(detail string) string {
	if len(detail) <= maxDetailBytes {
		return detail
	}
	cut := maxDetailBytes
	for cut > 0 && !utf8.RuneStart(detail[cut]) {
		cut--
	}
	return detail[:cut]
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// UserMessage returns the customer-safe message for an error kind. Raw
// provider messages never reach end users.
func UserMessage(kind ErrorKind) string {
	switch kind {
	case KindConfigurationMissing:
		return "This payment method is not available right now. Please choose a different one."
	case KindInvalidCredentials:
		return "The payment provider rejected the request. Please try again later."
	case KindNetworkError:
		return "We could not reach the payment provider. Please check your connection and try again."
	case KindTimeoutError:
		return "The payment provider took too long to respond. Please try again."
	case KindValidationError:
		return "The payment request was invalid. Please review your details and try again."
	case KindProviderError:
		return "The payment could not be completed. Please try again or choose a different method."
	default:
		return "Something went wrong while processing your payment. Please try again."
	}
}
