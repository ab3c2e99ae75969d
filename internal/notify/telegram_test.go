package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rateengine/internal/httpx"
	"rateengine/internal/order"
)

func TestTelegramSendsNewOrderMessage(t *testing.T) {
	got := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.True(t, strings.HasPrefix(r.URL.Path, "/bottoken-123/sendMessage"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		got <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewTelegram("token-123", 987, httpx.New(2*time.Second), nil)
	n.apiBase = srv.URL

	n.NotifyNewOrder(context.Background(), &order.Order{
		ID:         "ord-1",
		UserID:     42,
		Username:   "trader",
		Direction:  "crypto_to_fiat",
		FromAsset:  "ETH",
		ToAsset:    "TRY",
		AmountFrom: 2,
		AmountTo:   178200,
		Rate:       90000,
		RatePath:   "ETH->USDC->TRY",
		FeePct:     1,
	})

	select {
	case payload := <-got:
		require.Equal(t, float64(987), payload["chat_id"])
		text, _ := payload["text"].(string)
		require.Contains(t, text, "ord-1")
		require.Contains(t, text, "ETH->USDC->TRY")
	case <-time.After(2 * time.Second):
		t.Fatal("no telegram request received")
	}
}

func TestTelegramSwallowsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewTelegram("token-123", 987, httpx.New(2*time.Second), nil)
	n.apiBase = srv.URL

	// must not panic or block
	n.NotifyStatusChange(context.Background(), &order.Order{ID: "ord-2", Status: order.StatusDone}, order.StatusProcessing)
}
