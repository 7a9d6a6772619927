// Package commerce is a typed HTTP client for the store API of the commerce
// backend. It owns every cart, region, fulfillment, payment, and order call
// the checkout flow makes; callers never see raw HTTP.
package commerce

import (
	"bytes"
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

// Config holds the connection settings for the commerce backend.
type Config struct {
	// BaseURL is the backend root, e.g. https://backend.example.com.
	BaseURL string
	// PublishableKey is sent as x-publishable-api-key on every request.
	PublishableKey string
	// Client overrides the default instrumented HTTP client.
	Client *http.Client
}

// Client talks to the commerce backend store API.
type Client struct {
	http           *http.Client
	baseURL        string
	publishableKey string
}

// New creates a Client. The default transport is instrumented with otelhttp.
func New(cfg Config) *Client {
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		http:           hc,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		publishableKey: cfg.PublishableKey,
	}
}

// Ping checks backend reachability. Used by the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return errors.Wrap(err, "build health request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "health request")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 400 {
		return errors.Errorf("backend unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// do performs a store API request. body (when non-nil) is JSON encoded; the
// response body is decoded into out (when non-nil). Non-2xx responses become
// *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.doHeaders(ctx, method, path, query, nil, body, out)
}

func (c *Client) doHeaders(ctx context.Context, method, path string, query url.Values, headers http.Header, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.publishableKey != "" {
		req.Header.Set("x-publishable-api-key", c.publishableKey)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s %s response", method, path)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var payload struct {
		Code    string `json:"code"`
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload); err == nil {
		apiErr.Message = payload.Message
		apiErr.Code = payload.Code
		if apiErr.Code == "" {
			apiErr.Code = payload.Type
		}
	}
	return apiErr
}
