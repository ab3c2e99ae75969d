package main

import (
    "compress/gzip"
    "context"
    "io"
    "log"
    "net/http"
    "os/signal"
    "strings"
    "sync"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/prometheus/client_golang/prometheus/promhttp"
    "go.uber.org/zap"

    "rateengine/internal/asset"
    "rateengine/internal/config"
    "rateengine/internal/engine"
    "rateengine/internal/engine/binance"
    "rateengine/internal/engine/fxref"
    "rateengine/internal/engine/manual"
    "rateengine/internal/engine/metrics"
    "rateengine/internal/engine/ratelimit"
    "rateengine/internal/engine/recent"
    "rateengine/internal/engine/router"
    "rateengine/internal/httpx"
    "rateengine/internal/logging"
    "rateengine/internal/notify"
    "rateengine/internal/order"
    orderpg "rateengine/internal/order/postgres"
)

func main() {
    // Config
    godotenv.Load()
    cfg := config.MustLoad()

    logger, err := logging.New(cfg.Env)
    if err != nil { log.Fatalf("logger: %v", err) }
    defer logger.Sync()

    timeout := time.Duration(cfg.HTTPServer.RequestTimeoutSec) * time.Second
    httpClient := httpx.New(timeout)

    backend := buildBackend(cfg, httpClient, logger)
    if cfg.Exchange.QuotesPerSecond > 0 {
        burst := cfg.Exchange.QuotesBurst
        if burst <= 0 { burst = 1 }
        backend = &ratelimit.TokenBucketBackend{B: backend, TB: ratelimit.NewTokenBucket(cfg.Exchange.QuotesPerSecond, burst)}
    }
    backend = &metrics.Backend{B: backend, M: metrics.NewQuoteMetrics()}

    var orderSvc *order.Service
    if cfg.OrderDB.Dsn != "" {
        db := orderpg.MustInitDB(cfg.OrderDB.Dsn)
        repo := orderpg.NewDefaultOrderRepository(db)

        var notifier order.Notifier = notify.Noop{}
        if cfg.Telegram.Enabled {
            notifier = notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.AdminChatID, httpClient, logger)
        }
        orderSvc = order.NewService(backend, repo, notifier, cfg.Pricing.DefaultFeePct, logger)
    } else {
        logger.Info("order db dsn not set; order endpoints disabled")
    }

    s := &server{
        backend: backend,
        board:   recent.NewBoard(),
        orders:  orderSvc,
        timeout: timeout,
        log:     logger,
    }

    mux := http.NewServeMux()
    mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusOK)
        _, _ = w.Write([]byte("ok"))
    })
    mux.Handle("/metrics", promhttp.Handler())
    mux.HandleFunc("/api/quote", s.handleQuote)
    mux.HandleFunc("/api/quotes/recent", s.handleRecent)
    mux.HandleFunc("/api/orders", s.handleOrders)
    mux.HandleFunc("/api/orders/", s.handleOrderByID)

    srv := &http.Server{
        Addr:              cfg.HTTPServer.Addr,
        Handler:           withJSONHeaders(withGzip(recoverPanic(limitBody(mux, cfg.HTTPServer.MaxBodyBytes)))),
        ReadHeaderTimeout: 5 * time.Second,
        ReadTimeout:       15 * time.Second,
        WriteTimeout:      20 * time.Second,
        IdleTimeout:       60 * time.Second,
    }

    go func() {
        logger.Info("server listening", zap.String("addr", cfg.HTTPServer.Addr), zap.String("mode", cfg.Pricing.Mode))
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            logger.Fatal("server", zap.Error(err))
        }
    }()

    // graceful shutdown
    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    _ = srv.Shutdown(shutdownCtx)
}

func buildBackend(cfg *config.EngineConfig, hc *httpx.Client, logger *zap.Logger) engine.Backend {
    if cfg.Pricing.Mode == "manual" {
        return manual.New(cfg.Pricing.ManualRates, cfg.Pricing.DefaultFeePct, cfg.Pricing.BridgeAsset)
    }

    market := binance.New(binance.Config{
        TickerURL:       cfg.Exchange.TickerEndpoint,
        CatalogURL:      cfg.Exchange.SymbolsEndpoint,
        RefreshInterval: time.Duration(cfg.Exchange.CatalogRefreshSec) * time.Second,
        CacheTTL:        time.Duration(cfg.Exchange.CacheTTLSec) * time.Second,
    }, hc, logger)

    fx := fxref.NewClient(
        fxref.WithBaseURL(cfg.FiatReference.Endpoint),
        fxref.WithHTTPClient(hc.HTTP),
    )

    assets := asset.NewRegistry(cfg.Pricing.CryptoAssets, cfg.Pricing.FiatAssets)
    return router.New(market, fx, assets, cfg.Pricing.BridgeAsset, cfg.Pricing.AnchorFiat)
}

func withJSONHeaders(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json; charset=utf-8")
        w.Header().Set("Access-Control-Allow-Origin", "*")
        w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
        w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
        if r.Method == http.MethodOptions {
            w.WriteHeader(http.StatusNoContent)
            return
        }
        next.ServeHTTP(w, r)
    })
}

// withGzip compresses response when client supports gzip.
func withGzip(next http.Handler) http.Handler {
    var gzPool = sync.Pool{New: func() any {
        w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
        return w
    }}
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
            next.ServeHTTP(w, r)
            return
        }
        gz := gzPool.Get().(*gzip.Writer)
        gz.Reset(w)
        defer func() {
            _ = gz.Close()
            gz.Reset(io.Discard)
            gzPool.Put(gz)
        }()
        w.Header().Set("Content-Encoding", "gzip")
        w.Header().Add("Vary", "Accept-Encoding")
        gw := gzipResponseWriter{ResponseWriter: w, Writer: gz}
        next.ServeHTTP(gw, r)
    })
}

type gzipResponseWriter struct {
    http.ResponseWriter
    Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
    return g.Writer.Write(b)
}

// limitBody caps request body size to avoid memory abuse.
func limitBody(next http.Handler, maxBody int64) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if r.Method == http.MethodPost && r.Body != nil && maxBody > 0 {
            r.Body = http.MaxBytesReader(w, r.Body, maxBody)
        }
        next.ServeHTTP(w, r)
    })
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        defer func() {
            if rec := recover(); rec != nil {
                http.Error(w, "internal server error", http.StatusInternalServerError)
            }
        }()
        next.ServeHTTP(w, r)
    })
}
