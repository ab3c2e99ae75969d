package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"rateengine/internal/httpx"
	"rateengine/internal/order"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram posts admin notifications to a Telegram chat through the Bot
// API sendMessage method. Delivery is best effort; failures are logged
// and never propagated to the order flow.
type Telegram struct {
	client      *httpx.Client
	apiBase     string
	botToken    string
	adminChatID int64
	log         *zap.Logger
}

func NewTelegram(botToken string, adminChatID int64, hc *httpx.Client, log *zap.Logger) *Telegram {
	if log == nil {
		log = zap.NewNop()
	}
	if hc == nil {
		hc = httpx.New(10 * time.Second)
	}
	return &Telegram{
		client:      hc,
		apiBase:     telegramAPIBase,
		botToken:    botToken,
		adminChatID: adminChatID,
		log:         log,
	}
}

func (t *Telegram) NotifyNewOrder(ctx context.Context, o *order.Order) {
	text := fmt.Sprintf(
		"New order %s\n%s %g %s -> %g %s\nrate %g via %s, fee %g%%\nuser @%s (%d)",
		o.ID, o.Direction, o.AmountFrom, o.FromAsset, o.AmountTo, o.ToAsset,
		o.Rate, o.RatePath, o.FeePct, o.Username, o.UserID,
	)
	t.send(ctx, text)
}

func (t *Telegram) NotifyStatusChange(ctx context.Context, o *order.Order, old order.Status) {
	text := fmt.Sprintf("Order %s: %s -> %s", o.ID, old, o.Status)
	t.send(ctx, text)
}

func (t *Telegram) send(ctx context.Context, text string) {
	payload := map[string]any{
		"chat_id": t.adminChatID,
		"text":    text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.log.Warn("telegram marshal failed", zap.Error(err))
		return
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		t.log.Warn("telegram request build failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(ctx, req)
	if err != nil {
		t.log.Warn("telegram send failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		t.log.Warn("telegram send returned status", zap.Int("status", resp.StatusCode))
	}
}

// Noop discards all notifications.
type Noop struct{}

func (Noop) NotifyNewOrder(context.Context, *order.Order)                 {}
func (Noop) NotifyStatusChange(context.Context, *order.Order, order.Status) {}
