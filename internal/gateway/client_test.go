// internal/gateway/client_test.go
package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanthreads/storefront-backend/internal/config"
)

func newTestClient(serverURL string, timeout time.Duration) *Client {
	return NewClient(config.PaymentConfig{
		ProviderBaseURL:   serverURL,
		ProviderSecretKey: "sk_test_secret",
	}, &http.Client{Timeout: timeout})
}

func TestInitializeSuccess(t *testing.T) {
	var gotAuth, gotContentType, gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotPath = r.URL.Path

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": true,
			"message": "Authorization URL created",
			"data": {
				"authorization_url": "https://checkout.example.com/abc123",
				"access_code": "abc123",
				"reference": "ut_reference_1"
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Second)

	resp, err := client.Initialize(context.Background(), InitializeRequest{
		Email:     "shopper@example.com",
		Amount:    17250000,
		Currency:  "NGN",
		Reference: "ut_reference_1",
		Metadata:  Metadata{OrderID: "order-1", UserID: "user-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk_test_secret", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "/transaction/initialize", gotPath)
	assert.Equal(t, "https://checkout.example.com/abc123", resp.AuthorizationURL)
	assert.Equal(t, "ut_reference_1", resp.Reference)
}

func TestVerifySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/ut_reference_2", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": true,
			"message": "Verification successful",
			"data": {
				"status": "success",
				"reference": "ut_reference_2",
				"amount": 17250000,
				"currency": "NGN",
				"paid_at": "2026-08-21T10:00:00.000Z",
				"channel": "card",
				"metadata": {"order_id": "order-2", "user_id": "user-2"}
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Second)

	resp, err := client.Verify(context.Background(), "ut_reference_2")
	require.NoError(t, err)

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, int64(17250000), resp.Amount)
	assert.Equal(t, "order-2", resp.Metadata.OrderID)
	assert.Equal(t, "user-2", resp.Metadata.UserID)
}

func TestVerifyReportsFailedTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": true,
			"message": "Verification successful",
			"data": {"status": "failed", "reference": "ut_reference_3"}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Second)

	resp, err := client.Verify(context.Background(), "ut_reference_3")
	require.NoError(t, err)

	// The API call succeeded; the transaction outcome is the caller's problem.
	assert.Equal(t, "failed", resp.Status)
}

func TestTimeoutIsProviderUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 20*time.Millisecond)

	_, err := client.Verify(context.Background(), "ut_reference_4")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestServerErrorIsProviderUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status": false, "message": "maintenance"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Second)

	_, err := client.Verify(context.Background(), "ut_reference_5")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestRejectionIsNotProviderUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status": false, "message": "Invalid key"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Second)

	_, err := client.Verify(context.Background(), "ut_reference_6")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "Invalid key")
}

func TestCancelledContextIsProviderUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Verify(ctx, "ut_reference_7")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}
