package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/AndresDevelopers/purvita-payments/internal/domain"
	"github.com/AndresDevelopers/purvita-payments/pkg/httpclient"
)

const (
	breakerKeyStripe = "stripe-api"

	stripeBaseURL = "https://api.stripe.com"
)

// StripeClient creates hosted Checkout Sessions. Stripe uses the same API
// host for live and test; the secret key carries the environment, so the
// effective environment only selects which bundle is presented.
type StripeClient struct {
	http     *httpclient.Client
	breakers *BreakerRegistry
	retryer  *Retryer
	logger   *slog.Logger

	baseURL string
}

// NewStripeClient creates a Stripe gateway client against the public API host.
func NewStripeClient(httpClient *httpclient.Client, breakers *BreakerRegistry, retryer *Retryer, logger *slog.Logger) *StripeClient {
	return &StripeClient{
		http:     httpClient,
		breakers: breakers,
		retryer:  retryer,
		logger:   logger,
		baseURL:  stripeBaseURL,
	}
}

// WithBaseURL overrides the API host. An empty string keeps the default.
func (c *StripeClient) WithBaseURL(base string) *StripeClient {
	if base != "" {
		c.baseURL = strings.TrimSuffix(base, "/")
	}
	return c
}

// Name returns the provider identity.
func (c *StripeClient) Name() domain.Provider {
	return domain.ProviderStripe
}

// CreatePayment creates a payment-mode checkout session and returns its id,
// status and hosted URL. The call runs inside the stripe-api breaker with
// retries.
func (c *StripeClient) CreatePayment(ctx context.Context, req *domain.PaymentRequest, creds *ResolvedCredentials) (*RawResponse, error) {
	return c.breakers.Execute(domain.ProviderStripe, breakerKeyStripe, func() (*RawResponse, error) {
		return c.retryer.Run(ctx, domain.ProviderStripe, func(ctx context.Context) (*RawResponse, error) {
			return c.createSession(ctx, req, creds, "payment")
		})
	})
}

// CreateSubscription creates a subscription-mode checkout session. The
// recurring price id comes from request metadata.
func (c *StripeClient) CreateSubscription(ctx context.Context, req *domain.PaymentRequest, creds *ResolvedCredentials) (*RawResponse, error) {
	if req.Metadata["price_id"] == "" {
		return nil, NewError(domain.ProviderStripe, KindValidationError,
			"subscription request is missing price_id metadata").
			WithScenario("create_subscription")
	}

	return c.breakers.Execute(domain.ProviderStripe, breakerKeyStripe, func() (*RawResponse, error) {
		return c.retryer.Run(ctx, domain.ProviderStripe, func(ctx context.Context) (*RawResponse, error) {
			return c.createSession(ctx, req, creds, "subscription")
		})
	})
}

// ExtractRedirectURL returns the hosted checkout URL from a raw response.
func (c *StripeClient) ExtractRedirectURL(raw *RawResponse) string {
	return raw.URL
}

// ValidateCredentials retrieves the account behind the secret key. Backs the
// admin "Verify" action; does not go through the breaker.
func (c *StripeClient) ValidateCredentials(ctx context.Context, creds *ResolvedCredentials) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/account", http.NoBody)
	if err != nil {
		return fmt.Errorf("create account request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.Bundle.SecretKey)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return WrapTransportError(domain.ProviderStripe, err).WithScenario("validate_credentials")
	}
	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return WrapTransportError(domain.ProviderStripe, err).WithScenario("validate_credentials")
	}
	if !httpclient.IsSuccess(resp.StatusCode) {
		return ClassifyHTTPStatus(domain.ProviderStripe, resp.StatusCode, string(body)).
			WithScenario("validate_credentials")
	}
	return nil
}

type stripeSessionResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	URL    string `json:"url"`
}

// sessionForm builds the form-encoded checkout session request. Amounts stay
// in integer minor units, which is what Stripe expects.
func sessionForm(req *domain.PaymentRequest, mode string) url.Values {
	form := url.Values{}
	form.Set("mode", mode)
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)

	switch mode {
	case "subscription":
		form.Set("line_items[0][price]", req.Metadata["price_id"])
		form.Set("line_items[0][quantity]", "1")
	default:
		if len(req.LineItems) > 0 {
			for i, item := range req.LineItems {
				prefix := fmt.Sprintf("line_items[%d]", i)
				form.Set(prefix+"[price_data][currency]", strings.ToLower(req.Currency))
				form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.Amount, 10))
				form.Set(prefix+"[price_data][product_data][name]", item.Name)
				form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
			}
		} else {
			form.Set("line_items[0][price_data][currency]", strings.ToLower(req.Currency))
			form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(req.Amount, 10))
			form.Set("line_items[0][price_data][product_data][name]", req.Description)
			form.Set("line_items[0][quantity]", "1")
		}
	}

	for k, v := range req.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}
	return form
}

func (c *StripeClient) createSession(ctx context.Context, req *domain.PaymentRequest, creds *ResolvedCredentials, mode string) (*RawResponse, error) {
	form := sessionForm(req, mode)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create session request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+creds.Bundle.SecretKey)

	resp, err := c.http.Do(ctx, httpReq)
	if err != nil {
		return nil, WrapTransportError(domain.ProviderStripe, err).WithScenario("create_session")
	}
	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return nil, WrapTransportError(domain.ProviderStripe, err).WithScenario("create_session")
	}
	if !httpclient.IsSuccess(resp.StatusCode) {
		return nil, ClassifyHTTPStatus(domain.ProviderStripe, resp.StatusCode, string(body)).
			WithScenario("create_session")
	}

	var session stripeSessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, NewError(domain.ProviderStripe, KindProviderError,
			"could not decode checkout session response").
			WithCause(err).
			WithScenario("create_session")
	}

	c.logger.InfoContext(ctx, "stripe checkout session created",
		slog.String("session_id", session.ID),
		slog.String("status", session.Status),
		slog.String("mode", mode),
		slog.String("environment", string(creds.Environment)),
	)

	return &RawResponse{
		SessionID: session.ID,
		Status:    session.Status,
		URL:       session.URL,
	}, nil
}
