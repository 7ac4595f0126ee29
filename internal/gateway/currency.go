// internal/gateway/currency.go
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// CurrencyClient looks up a display-to-settlement conversion rate from an
// external exchange-rate API. Callers fall back to a fixed rate when the
// lookup fails; a checkout never depends on this API being up.
type CurrencyClient struct {
	apiURL     string
	httpClient *http.Client
}

func NewCurrencyClient(apiURL string, httpClient *http.Client) *CurrencyClient {
	return &CurrencyClient{
		apiURL:     apiURL,
		httpClient: httpClient,
	}
}

// Rate returns how many units of the `to` currency one unit of `from` buys.
func (c *CurrencyClient) Rate(ctx context.Context, from, to string) (float64, error) {
	if c.apiURL == "" {
		return 0, fmt.Errorf("currency API not configured")
	}

	u, err := url.Parse(c.apiURL)
	if err != nil {
		return 0, fmt.Errorf("invalid currency API URL: %w", err)
	}
	q := u.Query()
	q.Set("base", from)
	q.Set("symbols", to)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build currency request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("currency lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("currency API returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("failed to read currency response: %w", err)
	}

	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("failed to decode currency response: %w", err)
	}

	rate, ok := payload.Rates[to]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("currency API returned no rate for %s", to)
	}

	return rate, nil
}
