// Package stripe is a minimal client for the payment-intent confirmation
// endpoint of the hosted payment provider. The checkout flow needs exactly
// one call: confirm an intent by its client secret.
package stripe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultBaseURL = "https://api.stripe.com"

// Terminal intent statuses the checkout flow distinguishes. Anything else is
// treated as a failure.
const (
	StatusSucceeded      = "succeeded"
	StatusRequiresAction = "requires_action"
	StatusFailed         = "failed"
)

// Config holds provider credentials and connection settings.
type Config struct {
	// SecretKey authenticates API calls (sk_...).
	SecretKey string
	// BaseURL overrides the provider endpoint, used in tests.
	BaseURL string
	// Client overrides the default instrumented HTTP client.
	Client *http.Client
}

// Client confirms payment intents.
type Client struct {
	http      *http.Client
	baseURL   string
	secretKey string
}

// New creates a Client.
func New(cfg Config) *Client {
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{http: hc, baseURL: strings.TrimRight(base, "/"), secretKey: cfg.SecretKey}
}

// ConfirmIntent confirms the payment intent identified by clientSecret.
// Declines are not errors: they return StatusFailed with the provider's
// user-facing message. err is reserved for transport and protocol failures.
func (c *Client) ConfirmIntent(ctx context.Context, clientSecret, returnURL string) (status, failureMessage string, err error) {
	intentID, ok := intentIDFromSecret(clientSecret)
	if !ok {
		return "", "", errors.Errorf("malformed client secret")
	}

	form := url.Values{
		"client_secret": []string{clientSecret},
	}
	if returnURL != "" {
		form.Set("return_url", returnURL)
	}

	endpoint := c.baseURL + "/v1/payment_intents/" + intentID + "/confirm"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", "", errors.Wrap(err, "build confirm request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", errors.Wrap(err, "confirm request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", "", errors.Wrap(err, "read confirm response")
	}

	if resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusBadRequest {
		var payload struct {
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if jsonErr := json.Unmarshal(body, &payload); jsonErr == nil && payload.Error.Type == "card_error" {
			return StatusFailed, payload.Error.Message, nil
		}
		return "", "", errors.Errorf("confirm rejected with status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return "", "", errors.Errorf("provider returned status %d", resp.StatusCode)
	}

	var intent struct {
		Status           string `json:"status"`
		LastPaymentError *struct {
			Message string `json:"message"`
		} `json:"last_payment_error"`
	}
	if err := json.Unmarshal(body, &intent); err != nil {
		return "", "", errors.Wrap(err, "decode intent")
	}

	switch intent.Status {
	case StatusSucceeded:
		return StatusSucceeded, "", nil
	case StatusRequiresAction, "requires_source_action":
		return StatusRequiresAction, "", nil
	default:
		msg := ""
		if intent.LastPaymentError != nil {
			msg = intent.LastPaymentError.Message
		}
		return StatusFailed, msg, nil
	}
}

// intentIDFromSecret extracts the intent identifier from a client secret of
// the form "pi_xxx_secret_yyy".
func intentIDFromSecret(secret string) (string, bool) {
	id, _, found := strings.Cut(secret, "_secret")
	if !found || id == "" {
		return "", false
	}
	return id, true
}
