package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/furnhaus/furnhaus-backend/pkg/config"
	"github.com/furnhaus/furnhaus-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"

	defaultCallTimeout = 15 * time.Second
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errSecretRequired   = errors.New("stripe webhook secret is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

// Client wraps Stripe's API client plus env-specific metadata. It is an
// injected dependency with an explicit lifetime; nothing here relies on
// process-wide mutable state.
type Client struct {
	api             *stripe.Client
	environment     string
	signingSecret   string
	callTimeout     time.Duration
	allowUnverified bool
}

// NewClient initializes the Stripe client with the configured secrets and env.
// Running without a webhook signing secret is only permitted when the
// AllowUnverifiedWebhooks gate is set, and never in prod.
func NewClient(ctx context.Context, cfg config.StripeConfig, appEnv config.AppConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	signingSecret := strings.TrimSpace(cfg.WebhookSecret)
	allowUnverified := false
	if signingSecret == "" {
		if !cfg.AllowUnverifiedWebhooks || appEnv.IsProd() {
			return nil, errSecretRequired
		}
		allowUnverified = true
		if logg != nil {
			logg.Warn(ctx, "STRIPE WEBHOOK SIGNATURE VERIFICATION DISABLED: no signing secret configured and the unverified-webhooks gate is on; never run this configuration outside development")
		}
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	api := stripe.NewClient(apiKey)

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe client initialized (%s)", env))
	}

	return &Client{
		api:             api,
		environment:     env,
		signingSecret:   signingSecret,
		callTimeout:     timeout,
		allowUnverified: allowUnverified,
	}, nil
}

// CreatePaymentIntent creates a payment intent with a bounded call timeout.
func (c *Client) CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error) {
	ctx, cancel := c.boundedContext(ctx)
	defer cancel()
	return c.api.V1PaymentIntents.Create(ctx, params)
}

// GetPaymentIntent retrieves the current processor-side state of an intent.
func (c *Client) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	ctx, cancel := c.boundedContext(ctx)
	defer cancel()
	return c.api.V1PaymentIntents.Retrieve(ctx, id, nil)
}

// CreateRefund issues a refund against a payment intent.
func (c *Client) CreateRefund(ctx context.Context, params *stripe.RefundCreateParams) (*stripe.Refund, error) {
	ctx, cancel := c.boundedContext(ctx)
	defer cancel()
	return c.api.V1Refunds.Create(ctx, params)
}

func (c *Client) boundedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := c.callTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the webhook signing secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

// AllowUnverifiedWebhooks reports whether the dev-mode unverified path is on.
func (c *Client) AllowUnverifiedWebhooks() bool {
	if c == nil {
		return false
	}
	return c.allowUnverified
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
