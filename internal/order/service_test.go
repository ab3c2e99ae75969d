package order

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rateengine/internal/engine"
)

type fakeBackend struct {
	quote engine.Quote
	err   error
	calls int
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Quote(ctx context.Context, from, to string, feePct *float64) (engine.Quote, error) {
	f.calls++
	return f.quote, f.err
}

type fakeRepo struct {
	mu     sync.Mutex
	orders map[string]*Order
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: make(map[string]*Order)}
}

func (r *fakeRepo) CreateOrder(ctx context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeRepo) GetOrderByID(ctx context.Context, id string) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, context.Canceled
	}
	cp := *o
	return &cp, nil
}

func (r *fakeRepo) UpdateOrderStatus(ctx context.Context, id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[id].Status = status
	return nil
}

func (r *fakeRepo) AttachProof(ctx context.Context, id, proofType, proofValue, proofFileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.orders[id]
	o.ProofType = proofType
	o.ProofValue = proofValue
	o.ProofFileID = proofFileID
	return nil
}

func (r *fakeRepo) ListOrdersByUser(ctx context.Context, userID int64, limit int) ([]*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Order
	for _, o := range r.orders {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListOrdersByStatus(ctx context.Context, status Status, limit int) ([]*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Order
	for _, o := range r.orders {
		if o.Status == status {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	created chan *Order
	changed chan *Order
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		created: make(chan *Order, 8),
		changed: make(chan *Order, 8),
	}
}

func (n *fakeNotifier) NotifyNewOrder(ctx context.Context, o *Order) { n.created <- o }

func (n *fakeNotifier) NotifyStatusChange(ctx context.Context, o *Order, old Status) {
	n.changed <- o
}

func waitOrder(t *testing.T, ch chan *Order) *Order {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return nil
	}
}

func TestCreateOrderFixesRateAndDeductsFee(t *testing.T) {
	backend := &fakeBackend{quote: engine.Quote{
		From: "ETH", To: "TRY", Rate: 90000, Path: "ETH->USDC->TRY", Source: "market",
	}}
	repo := newFakeRepo()
	notifier := newFakeNotifier()
	svc := NewService(backend, repo, notifier, 2.5, nil)

	fee := 1.0
	o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:     42,
		Username:   "trader",
		Direction:  "crypto_to_fiat",
		FromAsset:  "ETH",
		ToAsset:    "TRY",
		AmountFrom: 2,
		FeePct:     &fee,
	})
	require.NoError(t, err)
	require.NotEmpty(t, o.ID)
	require.Equal(t, StatusCreated, o.Status)
	require.Equal(t, 90000.0, o.Rate)
	require.Equal(t, "ETH->USDC->TRY", o.RatePath)
	// 2 * 90000 * (1 - 1/100)
	require.InDelta(t, 178200.0, o.AmountTo, 1e-9)

	got := waitOrder(t, notifier.created)
	require.Equal(t, o.ID, got.ID)

	stored, err := svc.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, o.AmountTo, stored.AmountTo)
}

func TestCreateOrderDefaultFee(t *testing.T) {
	backend := &fakeBackend{quote: engine.Quote{From: "USDC", To: "TRY", Rate: 30, Source: "manual"}}
	svc := NewService(backend, newFakeRepo(), nil, 2.5, nil)

	o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID: 1, FromAsset: "USDC", ToAsset: "TRY", AmountFrom: 100,
	})
	require.NoError(t, err)
	require.Equal(t, 2.5, o.FeePct)
	// 100 * 30 * (1 - 2.5/100)
	require.InDelta(t, 2925.0, o.AmountTo, 1e-9)
}

func TestCreateOrderHidesRoutingErrors(t *testing.T) {
	backend := &fakeBackend{err: &engine.NoRouteError{From: "USDC", To: "SOL", Leg: "USDC->SOL"}}
	svc := NewService(backend, newFakeRepo(), nil, 2.5, nil)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID: 1, FromAsset: "USDC", ToAsset: "SOL", AmountFrom: 10,
	})
	require.ErrorIs(t, err, ErrQuoteUnavailable)
}

func TestOrderLifecycle(t *testing.T) {
	backend := &fakeBackend{quote: engine.Quote{From: "BTC", To: "USDC", Rate: 60000, Source: "market"}}
	repo := newFakeRepo()
	notifier := newFakeNotifier()
	svc := NewService(backend, repo, notifier, 2.5, nil)

	o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID: 7, FromAsset: "BTC", ToAsset: "USDC", AmountFrom: 0.5,
	})
	require.NoError(t, err)
	waitOrder(t, notifier.created)

	o, err = svc.AttachProof(context.Background(), o.ID, "txid", "0xabc", "")
	require.NoError(t, err)
	require.Equal(t, StatusAwaitingProof, o.Status)
	require.Equal(t, "0xabc", o.ProofValue)

	o, err = svc.AdvanceStatus(context.Background(), o.ID, StatusProcessing)
	require.NoError(t, err)
	require.Equal(t, StatusProcessing, o.Status)
	waitOrder(t, notifier.changed)

	o, err = svc.AdvanceStatus(context.Background(), o.ID, StatusDone)
	require.NoError(t, err)
	require.Equal(t, StatusDone, o.Status)
	waitOrder(t, notifier.changed)

	// terminal status rejects further transitions
	_, err = svc.AdvanceStatus(context.Background(), o.ID, StatusCancelled)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, StatusDone, invalid.From)
}

func TestAdvanceStatusRejectsSkippingSteps(t *testing.T) {
	backend := &fakeBackend{quote: engine.Quote{From: "BTC", To: "USDC", Rate: 60000, Source: "market"}}
	repo := newFakeRepo()
	svc := NewService(backend, repo, nil, 2.5, nil)

	o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID: 7, FromAsset: "BTC", ToAsset: "USDC", AmountFrom: 1,
	})
	require.NoError(t, err)

	_, err = svc.AdvanceStatus(context.Background(), o.ID, StatusDone)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
}
