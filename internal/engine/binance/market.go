package binance

import (
    "context"
    "encoding/json"
    "fmt"
    "math"
    "net/http"
    "net/url"
    "strconv"
    "time"

    "go.uber.org/zap"

    "rateengine/internal/engine/cache"
    "rateengine/internal/httpx"
)

// Config controls the market price adapter.
type Config struct {
    TickerURL  string // single-symbol ticker-price endpoint
    CatalogURL string // tradable-symbols listing endpoint
    RefreshInterval time.Duration
    CacheTTL        time.Duration
}

// Market fetches single-pair spot prices from the exchange, consulting the
// pair cache and the symbol catalog first. All failures degrade to "absent";
// Price never returns an error.
type Market struct {
    cfg     Config
    client  *httpx.Client
    catalog *Catalog
    cache   *cache.Store
    log     *zap.Logger
}

func New(cfg Config, hc *httpx.Client, log *zap.Logger) *Market {
    if cfg.TickerURL == "" { cfg.TickerURL = "https://api.binance.com/api/v3/ticker/price" }
    if log == nil { log = zap.NewNop() }
    return &Market{
        cfg:     cfg,
        client:  hc,
        catalog: NewCatalog(cfg.CatalogURL, cfg.RefreshInterval, hc, log),
        cache:   cache.New(cfg.CacheTTL),
        log:     log,
    }
}

// Catalog exposes the symbol catalog for diagnostics tooling.
func (m *Market) Catalog() *Catalog { return m.catalog }

// Price returns "1 base = r quote" or absent.
// Order: identity, cache, direct ticker, inverse ticker. In fallback mode
// both tickers are attempted regardless of catalog membership.
func (m *Market) Price(ctx context.Context, base, quote string) (float64, bool) {
    if base == quote {
        return 1.0, true
    }
    if r, ok := m.cache.Get(base, quote); ok {
        return r, true
    }

    m.catalog.Refresh(ctx)
    blind := m.catalog.Empty()

    if blind || m.catalog.Known(base+quote) {
        if r, err := m.fetchTicker(ctx, base+quote); err == nil {
            m.cache.Put(base, quote, r)
            return r, true
        } else {
            m.log.Debug("ticker fetch failed", zap.String("symbol", base+quote), zap.Error(err))
        }
    }
    if blind || m.catalog.Known(quote+base) {
        if r, err := m.fetchTicker(ctx, quote+base); err == nil {
            inv := 1 / r // fetchTicker guarantees r > 0
            m.cache.Put(base, quote, inv)
            return inv, true
        } else {
            m.log.Debug("inverse ticker fetch failed", zap.String("symbol", quote+base), zap.Error(err))
        }
    }
    return 0, false
}

type tickerResponse struct {
    Symbol string `json:"symbol"`
    Price  string `json:"price"`
}

func (m *Market) fetchTicker(ctx context.Context, symbol string) (float64, error) {
    u, err := url.Parse(m.cfg.TickerURL)
    if err != nil { return 0, err }
    q := u.Query()
    q.Set("symbol", symbol)
    u.RawQuery = q.Encode()

    req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
    if err != nil { return 0, err }
    req.Header.Set("Accept", "application/json")
    resp, err := m.client.Do(ctx, req)
    if err != nil { return 0, err }
    defer resp.Body.Close()
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        return 0, fmt.Errorf("GET %s -> %d", u.String(), resp.StatusCode)
    }
    var body tickerResponse
    if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
        return 0, fmt.Errorf("decode: %w", err)
    }
    r, err := strconv.ParseFloat(body.Price, 64)
    if err != nil {
        return 0, fmt.Errorf("parse price %q: %w", body.Price, err)
    }
    if r <= 0 || math.IsInf(r, 0) || math.IsNaN(r) {
        return 0, fmt.Errorf("unusable price %v for %s", r, symbol)
    }
    return r, nil
}
