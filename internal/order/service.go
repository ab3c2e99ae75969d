package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rateengine/internal/engine"
)

// ErrQuoteUnavailable hides routing detail from order callers; the
// underlying engine error is logged, not returned.
var ErrQuoteUnavailable = errors.New("quote unavailable for pair")

type CreateOrderRequest struct {
	UserID     int64
	Username   string
	Lang       string
	Direction  string
	FromAsset  string
	ToAsset    string
	AmountFrom float64
	FeePct     *float64
}

type Service struct {
	backend    engine.Backend
	repo       Repository
	notifier   Notifier
	defaultFee float64
	log        *zap.Logger
}

func NewService(backend engine.Backend, repo Repository, notifier Notifier, defaultFee float64, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		backend:    backend,
		repo:       repo,
		notifier:   notifier,
		defaultFee: defaultFee,
		log:        log,
	}
}

// CreateOrder quotes the pair once and persists the order with the
// amounts fixed at that rate. The receive amount is the sent amount
// converted at the quoted rate minus the percentage fee.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	fee := s.defaultFee
	if req.FeePct != nil {
		fee = *req.FeePct
	}

	q, err := s.backend.Quote(ctx, req.FromAsset, req.ToAsset, &fee)
	if err != nil {
		s.log.Warn("order quote failed",
			zap.String("from", req.FromAsset),
			zap.String("to", req.ToAsset),
			zap.Error(err))
		return nil, ErrQuoteUnavailable
	}

	now := time.Now().UTC()
	o := &Order{
		ID:         uuid.New().String(),
		UserID:     req.UserID,
		Username:   req.Username,
		Lang:       req.Lang,
		Direction:  req.Direction,
		FromAsset:  q.From,
		ToAsset:    q.To,
		AmountFrom: req.AmountFrom,
		AmountTo:   req.AmountFrom * q.Rate * (1 - fee/100),
		Rate:       q.Rate,
		RatePath:   q.Path,
		FeePct:     fee,
		Status:     StatusCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		go s.notifier.NotifyNewOrder(context.WithoutCancel(ctx), o)
	}
	return o, nil
}

// AdvanceStatus moves the order through its lifecycle, rejecting
// transitions the lifecycle does not allow.
func (s *Service) AdvanceStatus(ctx context.Context, id string, next Status) (*Order, error) {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(o.Status, next) {
		return nil, &InvalidTransitionError{From: o.Status, To: next}
	}

	old := o.Status
	if err := s.repo.UpdateOrderStatus(ctx, id, next); err != nil {
		return nil, err
	}
	o.Status = next
	o.UpdatedAt = time.Now().UTC()

	if s.notifier != nil {
		go s.notifier.NotifyStatusChange(context.WithoutCancel(ctx), o, old)
	}
	return o, nil
}

// AttachProof stores the payment proof and moves the order to
// awaiting_proof review.
func (s *Service) AttachProof(ctx context.Context, id, proofType, proofValue, proofFileID string) (*Order, error) {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, StatusAwaitingProof) && o.Status != StatusAwaitingProof {
		return nil, &InvalidTransitionError{From: o.Status, To: StatusAwaitingProof}
	}

	if err := s.repo.AttachProof(ctx, id, proofType, proofValue, proofFileID); err != nil {
		return nil, err
	}
	if o.Status != StatusAwaitingProof {
		if err := s.repo.UpdateOrderStatus(ctx, id, StatusAwaitingProof); err != nil {
			return nil, err
		}
		o.Status = StatusAwaitingProof
	}
	o.ProofType = proofType
	o.ProofValue = proofValue
	o.ProofFileID = proofFileID
	return o, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*Order, error) {
	return s.repo.GetOrderByID(ctx, id)
}

func (s *Service) ListUserOrders(ctx context.Context, userID int64, limit int) ([]*Order, error) {
	return s.repo.ListOrdersByUser(ctx, userID, limit)
}
