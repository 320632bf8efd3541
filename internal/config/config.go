package config

import (
	"fmt"
	"time"

	"github.com/AndresDevelopers/purvita-payments/internal/domain"
	"github.com/AndresDevelopers/purvita-payments/internal/gateway"
	pkgconfig "github.com/AndresDevelopers/purvita-payments/pkg/config"
)

// Config holds all configuration for the payment gateway service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"GATEWAY_HTTP_PORT" envDefault:"8007"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"purvita"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"purvita_secret"`
	PostgresDB   string `env:"GATEWAY_DB_NAME" envDefault:"gateway_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis (wallet ledger)
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Pprof debug endpoints are restricted to these CIDRs.
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32,::1/128" envSeparator:","`

	// Tracing
	TracingEnabled    bool    `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Outbound provider calls
	ProviderHTTPTimeout time.Duration `env:"PROVIDER_HTTP_TIMEOUT" envDefault:"30s"`

	// Retry executor
	RetryMaxRetries   int           `env:"RETRY_MAX_RETRIES" envDefault:"3"`
	RetryInitialDelay time.Duration `env:"RETRY_INITIAL_DELAY" envDefault:"1s"`
	RetryMaxDelay     time.Duration `env:"RETRY_MAX_DELAY" envDefault:"10s"`
	RetryJitter       float64       `env:"RETRY_JITTER" envDefault:"0.5"`

	// Circuit breaker
	BreakerFailureThreshold uint32        `env:"BREAKER_FAILURE_THRESHOLD" envDefault:"5"`
	BreakerSuccessThreshold uint32        `env:"BREAKER_SUCCESS_THRESHOLD" envDefault:"2"`
	BreakerTimeout          time.Duration `env:"BREAKER_TIMEOUT" envDefault:"60s"`

	// Wallet: debits at or above this amount (minor units) are held for
	// verification. 0 disables the hold.
	WalletVerifyThreshold int64 `env:"WALLET_VERIFY_THRESHOLD" envDefault:"100000"`

	// Provider API base URLs. Empty values keep each client's public default;
	// overridden in development to point at stubs.
	PayPalLiveBaseURL string `env:"PAYPAL_LIVE_BASE_URL" envDefault:""`
	PayPalTestBaseURL string `env:"PAYPAL_TEST_BASE_URL" envDefault:""`
	StripeBaseURL     string `env:"STRIPE_BASE_URL" envDefault:""`

	// PayPal credential bundles
	PayPalLiveClientID string `env:"PAYPAL_LIVE_CLIENT_ID" envDefault:""`
	PayPalLiveSecret   string `env:"PAYPAL_LIVE_SECRET" envDefault:""`
	PayPalTestClientID string `env:"PAYPAL_TEST_CLIENT_ID" envDefault:""`
	PayPalTestSecret   string `env:"PAYPAL_TEST_SECRET" envDefault:""`

	// Stripe credential bundles
	StripeLiveSecretKey      string `env:"STRIPE_LIVE_SECRET_KEY" envDefault:""`
	StripeLivePublishableKey string `env:"STRIPE_LIVE_PUBLISHABLE_KEY" envDefault:""`
	StripeLiveWebhookSecret  string `env:"STRIPE_LIVE_WEBHOOK_SECRET" envDefault:""`
	StripeTestSecretKey      string `env:"STRIPE_TEST_SECRET_KEY" envDefault:""`
	StripeTestPublishableKey string `env:"STRIPE_TEST_PUBLISHABLE_KEY" envDefault:""`
	StripeTestWebhookSecret  string `env:"STRIPE_TEST_WEBHOOK_SECRET" envDefault:""`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load gateway config: %w", err)
	}
	return cfg, nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}

// Credentials returns the env-backed credential source the resolver reads.
func (c *Config) Credentials() gateway.CredentialSource {
	return &envCredentials{cfg: c}
}

// envCredentials exposes the provider credential env vars as bundles.
type envCredentials struct {
	cfg *Config
}

func (e *envCredentials) Bundle(provider domain.Provider, env domain.Environment) gateway.CredentialBundle {
	live := env == domain.EnvironmentLive

	switch provider {
	case domain.ProviderPayPal:
		if live {
			return gateway.CredentialBundle{
				ClientID:  e.cfg.PayPalLiveClientID,
				SecretKey: e.cfg.PayPalLiveSecret,
			}
		}
		return gateway.CredentialBundle{
			ClientID:  e.cfg.PayPalTestClientID,
			SecretKey: e.cfg.PayPalTestSecret,
		}
	case domain.ProviderStripe:
		if live {
			return gateway.CredentialBundle{
				SecretKey:      e.cfg.StripeLiveSecretKey,
				PublishableKey: e.cfg.StripeLivePublishableKey,
				WebhookSecret:  e.cfg.StripeLiveWebhookSecret,
			}
		}
		return gateway.CredentialBundle{
			SecretKey:      e.cfg.StripeTestSecretKey,
			PublishableKey: e.cfg.StripeTestPublishableKey,
			WebhookSecret:  e.cfg.StripeTestWebhookSecret,
		}
	default:
		return gateway.CredentialBundle{}
	}
}
