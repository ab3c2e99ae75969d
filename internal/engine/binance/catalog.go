package binance

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "net/url"
    "sync"
    "time"

    "golang.org/x/sync/singleflight"
    "go.uber.org/zap"

    "rateengine/internal/httpx"
)

// Catalog holds the set of tradable pair codes on the exchange, refreshed at
// most once per interval. An empty set is a valid state ("fallback mode"):
// unknown pairs are then attempted blindly rather than rejected. Refresh
// failures never surface; they clear the set and flip fallback mode on.
type Catalog struct {
    client   *httpx.Client
    url      string
    interval time.Duration
    log      *zap.Logger

    mu        sync.RWMutex
    symbols   map[string]struct{}
    fetchedAt time.Time

    // coalesce concurrent refreshes
    sf singleflight.Group
}

func NewCatalog(endpoint string, interval time.Duration, hc *httpx.Client, log *zap.Logger) *Catalog {
    if endpoint == "" { endpoint = "https://api.binance.com/api/v3/exchangeInfo" }
    if log == nil { log = zap.NewNop() }
    return &Catalog{client: hc, url: endpoint, interval: interval, log: log}
}

// Refresh fetches the tradable-symbol list when the current one is stale.
// No-op within the refresh interval.
func (c *Catalog) Refresh(ctx context.Context) {
    c.mu.RLock()
    fresh := !c.fetchedAt.IsZero() && time.Since(c.fetchedAt) < c.interval
    c.mu.RUnlock()
    if fresh {
        return
    }

    _, _, _ = c.sf.Do("refresh", func() (any, error) {
        symbols, err := c.fetch(ctx)
        c.mu.Lock()
        if err != nil {
            // Deliberately enter fallback mode: clear set and timestamp so
            // the next call retries immediately.
            c.symbols = nil
            c.fetchedAt = time.Time{}
        } else {
            c.symbols = symbols
            c.fetchedAt = time.Now()
        }
        c.mu.Unlock()
        if err != nil {
            c.log.Warn("symbol catalog refresh failed, entering fallback mode", zap.Error(err))
        }
        return nil, nil
    })
}

// Known reports whether a pair code is tradable. With an empty catalog it
// conservatively returns true so blind fetches are attempted.
func (c *Catalog) Known(pairCode string) bool {
    c.mu.RLock()
    defer c.mu.RUnlock()
    if len(c.symbols) == 0 {
        return true
    }
    _, ok := c.symbols[pairCode]
    return ok
}

// Empty reports fallback mode.
func (c *Catalog) Empty() bool {
    c.mu.RLock()
    defer c.mu.RUnlock()
    return len(c.symbols) == 0
}

// Symbols returns a snapshot of the catalog, for diagnostics.
func (c *Catalog) Symbols() []string {
    c.mu.RLock()
    defer c.mu.RUnlock()
    out := make([]string, 0, len(c.symbols))
    for s := range c.symbols {
        out = append(out, s)
    }
    return out
}

type exchangeInfoResponse struct {
    Symbols []symbolInfo `json:"symbols"`
}

type symbolInfo struct {
    Symbol string `json:"symbol"`
    Status string `json:"status"`
}

func (c *Catalog) fetch(ctx context.Context) (map[string]struct{}, error) {
    u, err := url.Parse(c.url)
    if err != nil { return nil, err }
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
    if err != nil { return nil, err }
    req.Header.Set("Accept", "application/json")
    resp, err := c.client.Do(ctx, req)
    if err != nil { return nil, err }
    defer resp.Body.Close()
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        return nil, fmt.Errorf("GET %s -> %d", u.String(), resp.StatusCode)
    }
    var body exchangeInfoResponse
    if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
        return nil, fmt.Errorf("decode: %w", err)
    }
    out := make(map[string]struct{}, len(body.Symbols))
    for _, s := range body.Symbols {
        if s.Status == "TRADING" {
            out[s.Symbol] = struct{}{}
        }
    }
    return out, nil
}
