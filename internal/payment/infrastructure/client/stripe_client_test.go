package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/aromastore/internal/payment/domain"
	"github.com/wyfcoding/aromastore/pkg/metrics"
)

func TestCreateIntentSendsFormAndIdempotencyKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.Equal(t, "key-1", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "3299", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "7", r.PostForm.Get("metadata[user_id]"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","client_secret":"pi_1_secret","amount":3299,"currency":"usd","status":"requires_payment_method"}`))
	}))
	defer srv.Close()

	c := NewStripeClient(StripeConfig{BaseURL: srv.URL, SecretKey: "sk_test"}, metrics.New("payment-test"))
	intent, err := c.CreateIntent(context.Background(), domain.CreateIntentRequest{
		Amount:         decimal.RequireFromString("32.99"),
		Currency:       "usd",
		IdempotencyKey: "key-1",
		Metadata:       map[string]string{"user_id": "7"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)
	assert.Equal(t, domain.StatusRequiresPaymentMethod, intent.Status)
}

func TestCardErrorIsDeclinedAndDoesNotTripBreaker(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
	}))
	defer srv.Close()

	c := NewStripeClient(StripeConfig{BaseURL: srv.URL, SecretKey: "sk_test"}, metrics.New("payment-test"))
	for i := 0; i < 6; i++ {
		_, err := c.ChargeOffSession(context.Background(), domain.ChargeRequest{Amount: decimal.NewFromInt(10), Currency: "usd", PaymentMethodID: "pm_x"})
		assert.ErrorIs(t, err, domain.ErrPaymentDeclined)
	}
	assert.Equal(t, int32(6), atomic.LoadInt32(&calls))
}

func TestServerErrorsOpenBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	m := metrics.New("payment-test")
	c := NewStripeClient(StripeConfig{BaseURL: srv.URL, SecretKey: "sk_test"}, m)
	c.http.SetRetryCount(0)
	for i := 0; i < 5; i++ {
		_, err := c.GetIntent(context.Background(), "pi_1")
		require.Error(t, err)
	}
	_, err := c.GetIntent(context.Background(), "pi_1")
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `circuit_breaker_state{name="payment-gateway"} 2`)
}

func TestGetIntentNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such payment_intent"}}`))
	}))
	defer srv.Close()

	_, err := NewStripeClient(StripeConfig{BaseURL: srv.URL}, nil).GetIntent(context.Background(), "pi_missing")
	assert.ErrorIs(t, err, domain.ErrIntentNotFound)
}

func TestFakeGatewayIdempotentAndDeclines(t *testing.T) {
	g := NewFakeGateway(false)
	ctx := context.Background()

	a, err := g.CreateIntent(ctx, domain.CreateIntentRequest{Amount: decimal.NewFromInt(5), Currency: "usd", IdempotencyKey: "k"})
	require.NoError(t, err)
	b, err := g.CreateIntent(ctx, domain.CreateIntentRequest{Amount: decimal.NewFromInt(5), Currency: "usd", IdempotencyKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.False(t, a.Succeeded())

	g.Succeed(a.ID)
	got, err := g.GetIntent(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Succeeded())

	_, err = g.ChargeOffSession(ctx, domain.ChargeRequest{Amount: decimal.NewFromInt(5), PaymentMethodID: DeclinedPaymentMethod})
	assert.ErrorIs(t, err, domain.ErrPaymentDeclined)

	_, err = g.Refund(ctx, a.ID, "")
	require.NoError(t, err)
	assert.True(t, g.Refunded(a.ID))
}
