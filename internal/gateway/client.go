// internal/gateway/client.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/urbanthreads/storefront-backend/internal/config"
)

// Client talks to a Paystack-compatible redirect payment provider over its
// transaction initialize/verify REST API. All calls carry the caller's context;
// the injected http.Client enforces the request timeout, and a timed-out call
// is a retryable failure, never a success.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// ErrProviderUnavailable wraps transport-level failures (timeouts included) so
// callers can distinguish "provider unreachable" from "payment declined".
var ErrProviderUnavailable = errors.New("payment provider unavailable")

type Metadata struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
}

type InitializeRequest struct {
	Email     string   `json:"email"`
	Amount    int64    `json:"amount"` // in the settlement currency's minor units
	Currency  string   `json:"currency"`
	Reference string   `json:"reference"`
	Metadata  Metadata `json:"metadata"`
}

type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type VerifyResponse struct {
	Status    string   `json:"status"` // "success", "failed", "abandoned"
	Reference string   `json:"reference"`
	Amount    int64    `json:"amount"`
	Currency  string   `json:"currency"`
	PaidAt    string   `json:"paid_at"`
	Channel   string   `json:"channel"`
	Metadata  Metadata `json:"metadata"`
}

// envelope is the provider's response wrapper. Status reports whether the API
// call itself succeeded; the transaction outcome lives in Data.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func NewClient(cfg config.PaymentConfig, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    cfg.ProviderBaseURL,
		secretKey:  cfg.ProviderSecretKey,
		httpClient: httpClient,
	}
}

func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode initialize request: %w", err)
	}

	data, err := c.do(ctx, http.MethodPost, "/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var resp InitializeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode initialize response: %w", err)
	}

	return &resp, nil
}

func (c *Client) Verify(ctx context.Context, reference string) (*VerifyResponse, error) {
	path := "/transaction/verify/" + url.PathEscape(reference)
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var resp VerifyResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode verify response: %w", err)
	}

	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrProviderUnavailable, err)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("failed to decode provider response (HTTP %d): %w", httpResp.StatusCode, err)
	}

	if httpResp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrProviderUnavailable, httpResp.StatusCode, env.Message)
	}

	if httpResp.StatusCode >= 400 || !env.Status {
		return nil, fmt.Errorf("provider rejected request (HTTP %d): %s", httpResp.StatusCode, env.Message)
	}

	return env.Data, nil
}
