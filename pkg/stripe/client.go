package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/hydrus-backend/pkg/config"
	"github.com/angelmondragon/hydrus-backend/pkg/logger"
)

type mode string

const (
	modeTest mode = "test"
	modeLive mode = "live"
)

// keyPrefixes lists the secret and restricted key prefixes each mode accepts.
var keyPrefixes = map[mode][]string{
	modeTest: {"sk_test_", "rk_test_"},
	modeLive: {"sk_live_", "rk_live_"},
}

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errSecretRequired   = errors.New("stripe webhook secret is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", modeTest, modeLive)
)

// Client owns a Stripe API client; the global stripe.Key is never set.
type Client struct {
	api           *stripe.Client
	mode          mode
	signingSecret string
	usageMeterID  string
}

// NewClient refuses to start when the key does not belong to the configured
// mode, so a test deployment can never hold a live key.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	m, err := parseMode(cfg.Environment())
	if err != nil {
		return nil, err
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	secret := strings.TrimSpace(cfg.WebhookSecret)
	switch {
	case apiKey == "":
		return nil, errAPIKeyRequired
	case secret == "":
		return nil, errSecretRequired
	case !m.accepts(apiKey):
		return nil, fmt.Errorf("stripe environment %q requires one of %s keys", m, strings.Join(keyPrefixes[m], "/"))
	}

	backendCfg := &stripe.BackendConfig{}
	if cfg.MaxRetries > 0 {
		backendCfg.MaxNetworkRetries = stripe.Int64(cfg.MaxRetries)
	}
	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{"component": "stripe", "stripe_env": string(m)})
		backendCfg.LeveledLogger = logg.Leveled(ctx)
		logg.Info(ctx, "stripe client initialized")
	}

	return &Client{
		api:           stripe.NewClient(apiKey, stripe.WithBackends(stripe.NewBackendsWithConfig(backendCfg))),
		mode:          m,
		signingSecret: secret,
		usageMeterID:  strings.TrimSpace(cfg.UsageMeterID),
	}, nil
}

func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return string(c.mode)
}

func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

func parseMode(raw string) (mode, error) {
	switch m := mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case "":
		return modeTest, nil
	case modeTest, modeLive:
		return m, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func (m mode) accepts(key string) bool {
	for _, prefix := range keyPrefixes[m] {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}
