// Package gateway is the REST client for the external order submission
// service. The service is a black box: it accepts a serialized draft and
// responds exactly once with either a confirmation identifier or a failure
// message.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quantfold/orderpad/internal/domain"
)

// defaultTimeout bounds a submission call when no timeout is configured.
// There is no automatic retry; retrying is the caller's responsibility.
const defaultTimeout = 30 * time.Second

// Config holds the gateway connection parameters.
type Config struct {
	// BaseURL is the service root, e.g. "https://orders.example.com".
	BaseURL string
	// APIKey is sent in the X-API-Key header when non-empty.
	APIKey string
	// Timeout bounds each submission call. Zero means defaultTimeout.
	Timeout time.Duration
}

// SubmitError is a rejection from the submission service. Error returns the
// service's human-readable message so it can be surfaced to the user as-is.
type SubmitError struct {
	StatusCode int
	Message    string
}

func (e *SubmitError) Error() string { return e.Message }

// Client submits orders to the gateway over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a gateway client from the given config.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// submitResponse is the success body returned by the service.
type submitResponse struct {
	ConfirmationID string `json:"confirmation_id"`
}

// errorResponse is the failure body returned by the service.
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Submit posts the draft to the service and returns the confirmation
// identifier. Service rejections come back as *SubmitError carrying the
// service's message; transport failures are wrapped transport errors.
func (c *Client) Submit(ctx context.Context, draft domain.DraftOrder) (string, error) {
	body, err := json.Marshal(draft)
	if err != nil {
		return "", fmt.Errorf("gateway: marshal draft: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gateway: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway: submit order: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gateway: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &SubmitError{
			StatusCode: resp.StatusCode,
			Message:    rejectionMessage(resp.StatusCode, respBody),
		}
	}

	var result submitResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("gateway: decode response: %w", err)
	}
	if result.ConfirmationID == "" {
		return "", fmt.Errorf("gateway: response missing confirmation id")
	}

	return result.ConfirmationID, nil
}

// rejectionMessage extracts the human-readable failure reason from an error
// body, falling back to the HTTP status text for opaque responses.
func rejectionMessage(status int, body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		if er.Message != "" {
			return er.Message
		}
		if er.Error != "" {
			return er.Error
		}
	}
	return http.StatusText(status)
}
