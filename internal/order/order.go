package order

import (
	"context"
	"fmt"
	"time"
)

type Status string

const (
	StatusCreated       Status = "created"
	StatusAwaitingProof Status = "awaiting_proof"
	StatusProcessing    Status = "processing"
	StatusDone          Status = "done"
	StatusCancelled     Status = "cancelled"
)

// transitions lists the allowed next statuses for each status.
var transitions = map[Status][]Status{
	StatusCreated:       {StatusAwaitingProof, StatusCancelled},
	StatusAwaitingProof: {StatusProcessing, StatusCancelled},
	StatusProcessing:    {StatusDone, StatusCancelled},
	StatusDone:          {},
	StatusCancelled:     {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Order struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	Lang        string    `json:"lang"`
	Direction   string    `json:"direction"`
	FromAsset   string    `json:"from_asset"`
	ToAsset     string    `json:"to_asset"`
	AmountFrom  float64   `json:"amount_from"`
	AmountTo    float64   `json:"amount_to"`
	Rate        float64   `json:"rate"`
	RatePath    string    `json:"rate_path"`
	FeePct      float64   `json:"fee_pct"`
	Status      Status    `json:"status"`
	ProofType   string    `json:"proof_type,omitempty"`
	ProofValue  string    `json:"proof_value,omitempty"`
	ProofFileID string    `json:"proof_file_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Repository interface {
	CreateOrder(ctx context.Context, o *Order) error
	GetOrderByID(ctx context.Context, id string) (*Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status Status) error
	AttachProof(ctx context.Context, id, proofType, proofValue, proofFileID string) error
	ListOrdersByUser(ctx context.Context, userID int64, limit int) ([]*Order, error)
	ListOrdersByStatus(ctx context.Context, status Status, limit int) ([]*Order, error)
}

type Notifier interface {
	NotifyNewOrder(ctx context.Context, o *Order)
	NotifyStatusChange(ctx context.Context, o *Order, old Status)
}

// InvalidTransitionError is returned when a status change is not allowed.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order transition %s -> %s", e.From, e.To)
}
