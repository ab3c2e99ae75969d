package engine

import (
    "context"
    "time"
)

// Quote is the normalized result returned by all pricing backends.
// Rate is "1 unit of From = Rate units of To". Path is advisory text for
// admin auditing and is never parsed by callers.
type Quote struct {
    From     string    `json:"from"`
    To       string    `json:"to"`
    Rate     float64   `json:"rate"`
    Path     string    `json:"path"`
    Source   string    `json:"source"`
    QuotedAt time.Time `json:"quoted_at"`
}

// Backend is the shared quote contract. The live-market router and the
// manual tier table both implement it and are interchangeable behind it.
// feePct is optional; nil selects the backend's default tier where tiers
// apply and is ignored otherwise.
type Backend interface {
    Name() string
    Quote(ctx context.Context, from, to string, feePct *float64) (Quote, error)
}
