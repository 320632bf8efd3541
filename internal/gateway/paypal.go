package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/AndresDevelopers/purvita-payments/internal/domain"
	"github.com/AndresDevelopers/purvita-payments/pkg/httpclient"
)

const (
	breakerKeyPayPal = "paypal-api"

	paypalLiveBaseURL    = "https://api-m.paypal.com"
	paypalSandboxBaseURL = "https://api-m.sandbox.paypal.com"
)

// PayPalClient creates checkout orders against the PayPal REST v2 API. The
// buyer completes payment on PayPal's side, so every successful creation
// yields an approval link and the flow ends in requires_action.
type PayPalClient struct {
	http     *httpclient.Client
	breakers *BreakerRegistry
	retryer  *Retryer
	logger   *slog.Logger

	liveURL string
	testURL string
}

// NewPayPalClient creates a PayPal gateway client using the public API hosts.
func NewPayPalClient(httpClient *httpclient.Client, breakers *BreakerRegistry, retryer *Retryer, logger *slog.Logger) *PayPalClient {
	return &PayPalClient{
		http:     httpClient,
		breakers: breakers,
		retryer:  retryer,
		logger:   logger,
		liveURL:  paypalLiveBaseURL,
		testURL:  paypalSandboxBaseURL,
	}
}

// WithBaseURLs overrides the API hosts. Empty strings keep the defaults.
func (c *PayPalClient) WithBaseURLs(live, test string) *PayPalClient {
	if live != "" {
		c.liveURL = strings.TrimSuffix(live, "/")
	}
	if test != "" {
		c.testURL = strings.TrimSuffix(test, "/")
	}
	return c
}

// Name returns the provider identity.
func (c *PayPalClient) Name() domain.Provider {
	return domain.ProviderPayPal
}

func (c *PayPalClient) baseURL(env domain.Environment) string {
	if env == domain.EnvironmentLive {
		return c.liveURL
	}
	return c.testURL
}

// CreatePayment creates a CAPTURE-intent order and returns its id, status and
// approval link. The call runs inside the paypal-api breaker with retries.
func (c *PayPalClient) CreatePayment(ctx context.Context, req *domain.PaymentRequest, creds *ResolvedCredentials) (*RawResponse, error) {
	return c.breakers.Execute(domain.ProviderPayPal, breakerKeyPayPal, func() (*RawResponse, error) {
		return c.retryer.Run(ctx, domain.ProviderPayPal, func(ctx context.Context) (*RawResponse, error) {
			return c.createOrder(ctx, req, creds)
		})
	})
}

// CreateSubscription creates a billing subscription from the plan id carried
// in request metadata and returns its approval link.
func (c *PayPalClient) CreateSubscription(ctx context.Context, req *domain.PaymentRequest, creds *ResolvedCredentials) (*RawResponse, error) {
	planID := req.Metadata["plan_id"]
	if planID == "" {
		return nil, NewError(domain.ProviderPayPal, KindValidationError,
			"subscription request is missing plan_id metadata").
			WithScenario("create_subscription")
	}

	return c.breakers.Execute(domain.ProviderPayPal, breakerKeyPayPal, func() (*RawResponse, error) {
		return c.retryer.Run(ctx, domain.ProviderPayPal, func(ctx context.Context) (*RawResponse, error) {
			return c.createSubscription(ctx, planID, req, creds)
		})
	})
}

// ExtractRedirectURL returns the buyer approval link from a raw response.
func (c *PayPalClient) ExtractRedirectURL(raw *RawResponse) string {
	return raw.ApprovalURL
}

// ValidateCredentials performs an OAuth token fetch with the given bundle.
// This backs the admin "Verify" action and does not go through the breaker:
// a failed verification must not poison the payment path.
func (c *PayPalClient) ValidateCredentials(ctx context.Context, creds *ResolvedCredentials) error {
	_, err := c.fetchAccessToken(ctx, creds)
	return err
}

type paypalTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *PayPalClient) fetchAccessToken(ctx context.Context, creds *ResolvedCredentials) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	endpoint := c.baseURL(creds.Environment) + "/v1/oauth2/token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(creds.Bundle.ClientID, creds.Bundle.SecretKey)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return "", WrapTransportError(domain.ProviderPayPal, err).WithScenario("oauth_token")
	}
	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return "", WrapTransportError(domain.ProviderPayPal, err).WithScenario("oauth_token")
	}
	if !httpclient.IsSuccess(resp.StatusCode) {
		return "", ClassifyHTTPStatus(domain.ProviderPayPal, resp.StatusCode, string(body)).
			WithScenario("oauth_token")
	}

	var token paypalTokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", NewError(domain.ProviderPayPal, KindProviderError,
			"could not decode oauth token response").
			WithCause(err).
			WithScenario("oauth_token")
	}
	if token.AccessToken == "" {
		return "", NewError(domain.ProviderPayPal, KindInvalidCredentials,
			"oauth token response contained no access token").
			WithScenario("oauth_token")
	}
	return token.AccessToken, nil
}

type paypalLink struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

type paypalOrderResponse struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Links  []paypalLink `json:"links"`
}

// approvalLink finds the buyer-facing link: rel "approve" for orders,
// "payer-action" on some order variants.
func approvalLink(links []paypalLink) string {
	for _, l := range links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			return l.Href
		}
	}
	return ""
}

func (c *PayPalClient) createOrder(ctx context.Context, req *domain.PaymentRequest, creds *ResolvedCredentials) (*RawResponse, error) {
	token, err := c.fetchAccessToken(ctx, creds)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{
				"amount": map[string]string{
					"currency_code": strings.ToUpper(req.Currency),
					"value":         FormatDecimalAmount(req.Amount),
				},
				"description": req.Description,
			},
		},
		"application_context": map[string]string{
			"return_url":  req.SuccessURL,
			"cancel_url":  req.CancelURL,
			"user_action": "PAY_NOW",
		},
	}

	var order paypalOrderResponse
	if err := c.postJSON(ctx, creds.Environment, "/v2/checkout/orders", token, payload, &order, "create_order"); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "paypal order created",
		slog.String("order_id", order.ID),
		slog.String("status", order.Status),
		slog.String("environment", string(creds.Environment)),
	)

	return &RawResponse{
		OrderID:     order.ID,
		Status:      order.Status,
		ApprovalURL: approvalLink(order.Links),
	}, nil
}

func (c *PayPalClient) createSubscription(ctx context.Context, planID string, req *domain.PaymentRequest, creds *ResolvedCredentials) (*RawResponse, error) {
	token, err := c.fetchAccessToken(ctx, creds)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"plan_id": planID,
		"application_context": map[string]string{
			"return_url":  req.SuccessURL,
			"cancel_url":  req.CancelURL,
			"user_action": "SUBSCRIBE_NOW",
		},
	}

	var sub paypalOrderResponse
	if err := c.postJSON(ctx, creds.Environment, "/v1/billing/subscriptions", token, payload, &sub, "create_subscription"); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "paypal subscription created",
		slog.String("subscription_id", sub.ID),
		slog.String("status", sub.Status),
		slog.String("environment", string(creds.Environment)),
	)

	return &RawResponse{
		OrderID:     sub.ID,
		Status:      sub.Status,
		ApprovalURL: approvalLink(sub.Links),
	}, nil
}

func (c *PayPalClient) postJSON(ctx context.Context, env domain.Environment, path, token string, payload any, out any, scenario string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", scenario, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL(env)+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", scenario, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return WrapTransportError(domain.ProviderPayPal, err).WithScenario(scenario)
	}
	respBody, err := httpclient.ReadBody(resp)
	if err != nil {
		return WrapTransportError(domain.ProviderPayPal, err).WithScenario(scenario)
	}
	if !httpclient.IsSuccess(resp.StatusCode) {
		return ClassifyHTTPStatus(domain.ProviderPayPal, resp.StatusCode, string(respBody)).
			WithScenario(scenario)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return NewError(domain.ProviderPayPal, KindProviderError,
			fmt.Sprintf("could not decode %s response", scenario)).
			WithCause(err).
			WithScenario(scenario)
	}
	return nil
}

// FormatDecimalAmount renders a minor-unit amount as the decimal string
// PayPal expects: always two fraction digits, e.g. 2500 -> "25.00".
func FormatDecimalAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
