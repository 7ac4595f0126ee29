// internal/gateway/currency_test.go
package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "USD", r.URL.Query().Get("base"))
		assert.Equal(t, "NGN", r.URL.Query().Get("symbols"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"base": "USD", "rates": {"NGN": 1523.45}}`))
	}))
	defer server.Close()

	client := NewCurrencyClient(server.URL, &http.Client{Timeout: time.Second})

	rate, err := client.Rate(context.Background(), "USD", "NGN")
	require.NoError(t, err)
	assert.Equal(t, 1523.45, rate)
}

func TestRateUnconfigured(t *testing.T) {
	client := NewCurrencyClient("", &http.Client{Timeout: time.Second})

	_, err := client.Rate(context.Background(), "USD", "NGN")
	assert.Error(t, err)
}

func TestRateNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewCurrencyClient(server.URL, &http.Client{Timeout: time.Second})

	_, err := client.Rate(context.Background(), "USD", "NGN")
	assert.Error(t, err)
}

func TestRateMissingSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"base": "USD", "rates": {"EUR": 0.92}}`))
	}))
	defer server.Close()

	client := NewCurrencyClient(server.URL, &http.Client{Timeout: time.Second})

	_, err := client.Rate(context.Background(), "USD", "NGN")
	assert.Error(t, err)
}
