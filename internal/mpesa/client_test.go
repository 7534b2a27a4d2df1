package mpesa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodipay/kodipay/internal/payment"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(Config{
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		ShortCode:      "174379",
		Passkey:        "passkey",
		CallbackURL:    "https://example.com/api/v1/payments/callback",
		Environment:    "sandbox",
	})
	c.http.SetBaseURL(server.URL)
	c.http.SetRetryCount(0)

	return c
}

func tokenHandler(t *testing.T, w http.ResponseWriter, r *http.Request) {
	t.Helper()

	user, pass, ok := r.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "key", user)
	assert.Equal(t, "secret", pass)
	assert.Equal(t, "client_credentials", r.URL.Query().Get("grant_type"))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"access_token": "test-token",
		"expires_in":   "3599",
	})
}

func TestClient_STKPush(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
			tokenHandler(t, w, r)
		})
		mux.HandleFunc("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

			var req stkPushRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "174379", req.BusinessShortCode)
			assert.Equal(t, "254712345678", req.PhoneNumber)
			assert.Equal(t, "254712345678", req.PartyA)
			assert.Equal(t, int64(5000), req.Amount)
			assert.Equal(t, "CustomerPayBillOnline", req.TransactionType)
			assert.NotEmpty(t, req.Password)

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{
				"MerchantRequestID":   "29115-34620561-1",
				"CheckoutRequestID":   "ws_CO_191220191020363925",
				"ResponseCode":        "0",
				"ResponseDescription": "Success. Request accepted for processing",
			})
		})

		c := testClient(t, mux)

		handle, err := c.STKPush(context.Background(), "0712345678", 5000, "Unit 1", "Rent Payment for Unit 1")
		require.NoError(t, err)
		assert.Equal(t, "ws_CO_191220191020363925", handle.CorrelationKey)
	})

	t.Run("InvalidPhoneNeverReachesGateway", func(t *testing.T) {
		c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected request to %s", r.URL.Path)
		}))

		_, err := c.STKPush(context.Background(), "12345", 5000, "Unit 1", "Rent")
		assert.ErrorIs(t, err, payment.ErrInvalidPhone)
	})

	t.Run("TokenExchangeFailure", func(t *testing.T) {
		c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))

		_, err := c.STKPush(context.Background(), "0712345678", 5000, "Unit 1", "Rent")
		assert.ErrorIs(t, err, payment.ErrGatewayUnavailable)
	})

	t.Run("PushRejected", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
			tokenHandler(t, w, r)
		})
		mux.HandleFunc("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		c := testClient(t, mux)

		_, err := c.STKPush(context.Background(), "0712345678", 5000, "Unit 1", "Rent")
		assert.ErrorIs(t, err, payment.ErrGatewayUnavailable)
	})
}

func TestClient_TokenCaching(t *testing.T) {
	tokenCalls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		tokenHandler(t, w, r)
	})
	mux.HandleFunc("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"CheckoutRequestID": "ws_CO_1", "ResponseCode": "0"})
	})

	c := testClient(t, mux)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.STKPush(context.Background(), "0712345678", 5000, "Unit 1", "Rent")
	require.NoError(t, err)
	_, err = c.STKPush(context.Background(), "0712345678", 5000, "Unit 1", "Rent")
	require.NoError(t, err)
	assert.Equal(t, 1, tokenCalls)

	// Past expiry the token is fetched again.
	now = now.Add(time.Hour)

	_, err = c.STKPush(context.Background(), "0712345678", 5000, "Unit 1", "Rent")
	require.NoError(t, err)
	assert.Equal(t, 2, tokenCalls)
}

func TestClient_Confirm(t *testing.T) {
	t.Run("Completed", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
			tokenHandler(t, w, r)
		})
		mux.HandleFunc("/mpesa/stkpushquery/v1/query", func(w http.ResponseWriter, r *http.Request) {
			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "ws_CO_123", req["CheckoutRequestID"])

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{
				"ResponseCode": "0",
				"ResultCode":   "0",
				"ResultDesc":   "The service request is processed successfully.",
			})
		})

		c := testClient(t, mux)

		out, err := c.Confirm(context.Background(), "ws_CO_123")
		require.NoError(t, err)
		assert.True(t, out.Success)
		assert.Equal(t, "ws_CO_123", out.CorrelationKey)
	})

	t.Run("Cancelled", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
			tokenHandler(t, w, r)
		})
		mux.HandleFunc("/mpesa/stkpushquery/v1/query", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{
				"ResponseCode": "0",
				"ResultCode":   "1032",
				"ResultDesc":   "Request cancelled by user",
			})
		})

		c := testClient(t, mux)

		out, err := c.Confirm(context.Background(), "ws_CO_123")
		require.NoError(t, err)
		assert.False(t, out.Success)
		assert.Equal(t, "Request cancelled by user", out.Reason)
	})

	t.Run("StillProcessing", func(t *testing.T) {
		// A query ack without a ResultCode means the push has not resolved
		// on the handset. That must not come back as a failed outcome, or
		// reconciliation would settle a payment that later completes.
		mux := http.NewServeMux()
		mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
			tokenHandler(t, w, r)
		})
		mux.HandleFunc("/mpesa/stkpushquery/v1/query", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{
				"ResponseCode":        "0",
				"ResponseDescription": "The service request has been accepted successfully",
			})
		})

		c := testClient(t, mux)

		_, err := c.Confirm(context.Background(), "ws_CO_123")
		assert.ErrorIs(t, err, payment.ErrStillProcessing)
	})
}
