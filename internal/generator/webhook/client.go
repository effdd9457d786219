// Package webhook calls an external workflow webhook that turns trip
// preferences into an itinerary document.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripforge/tripforge/internal/generator"
	"github.com/tripforge/tripforge/internal/itinerary"
	"github.com/tripforge/tripforge/internal/provider/resilience"
)

const (
	// ProducerName identifies this producer.
	ProducerName = "webhook"

	// DefaultTimeout matches the time workflow engines usually need for an LLM round trip.
	DefaultTimeout = 60 * time.Second

	// DefaultSecretHeader carries the shared secret when one is configured.
	DefaultSecretHeader = "X-Webhook-Secret"

	maxBodyBytes = 4 << 20
)

// ClientConfig holds configuration for the webhook client.
type ClientConfig struct {
	// URL is the webhook endpoint (required).
	URL string

	// Secret is sent in SecretHeader when non-empty.
	Secret string

	// SecretHeader defaults to DefaultSecretHeader.
	SecretHeader string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client without retries.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client posts preferences to the webhook and returns the raw response body.
type Client struct {
	url          string
	secret       string
	secretHeader string
	httpClient   *resilience.Client
	logger       zerolog.Logger
}

// NewClient creates a new webhook client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		rc := resilience.DefaultClientConfig(ProducerName)
		rc.Timeout = DefaultTimeout
		rc.MaxRetries = 0
		httpClient = resilience.NewClient(rc)
	}

	secretHeader := cfg.SecretHeader
	if secretHeader == "" {
		secretHeader = DefaultSecretHeader
	}

	return &Client{
		url:          cfg.URL,
		secret:       cfg.Secret,
		secretHeader: secretHeader,
		httpClient:   httpClient,
		logger:       cfg.Logger,
	}
}

// Name returns the producer name.
func (c *Client) Name() string {
	return ProducerName
}

// Generate forwards prefs as JSON and returns the response body untouched.
func (c *Client) Generate(ctx context.Context, prefs *generator.Preferences) ([]byte, error) {
	payload, err := json.Marshal(prefs)
	if err != nil {
		return nil, fmt.Errorf("encoding preferences: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.secret != "" {
		req.Header.Set(c.secretHeader, c.secret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		c.logger.Warn().Int("status", resp.StatusCode).Msg("webhook request failed")
		return nil, &itinerary.UpstreamStatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if resilience.IsTimeout(err) {
			return nil, c.transportError(err)
		}
		return nil, fmt.Errorf("%w: reading body: %v", itinerary.ErrMalformedUpstreamResponse, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: webhook responded with empty body", itinerary.ErrMalformedUpstreamResponse)
	}

	c.logger.Debug().Int("bytes", len(body)).Msg("webhook responded")
	return body, nil
}

func (c *Client) transportError(err error) error {
	switch {
	case resilience.IsTimeout(err):
		return fmt.Errorf("%w: webhook request timed out after %s", itinerary.ErrUpstreamTimeout, c.httpClient.Timeout())
	case errors.Is(err, resilience.ErrCircuitOpen):
		return fmt.Errorf("%w: %w", itinerary.ErrUpstreamUnavailable, err)
	default:
		return fmt.Errorf("%w: executing request: %v", itinerary.ErrUpstreamUnavailable, err)
	}
}
