package ratelimit

import (
    "context"
    "sync"
    "time"

    "rateengine/internal/engine"
)

// MinInterval wraps a backend and enforces a minimum time between quotes.
// Concurrent calls wait until the interval has elapsed since the last call,
// or return early if the context is canceled. Used to keep upstream traffic
// inside the exchange's public API limits.
type MinInterval struct {
    B        engine.Backend
    Interval time.Duration
    mu       sync.Mutex
    last     time.Time
}

func (m *MinInterval) Name() string { return m.B.Name() }

func (m *MinInterval) Quote(ctx context.Context, from, to string, feePct *float64) (engine.Quote, error) {
    if m.Interval > 0 {
        // simple gate: ensure at least Interval since last
        m.mu.Lock()
        wait := time.Until(m.last.Add(m.Interval))
        m.mu.Unlock()
        if wait > 0 {
            t := time.NewTimer(wait)
            defer t.Stop()
            select {
            case <-ctx.Done():
                return engine.Quote{}, ctx.Err()
            case <-t.C:
            }
        }
    }
    q, err := m.B.Quote(ctx, from, to, feePct)
    if m.Interval > 0 {
        m.mu.Lock()
        m.last = time.Now()
        m.mu.Unlock()
    }
    return q, err
}
