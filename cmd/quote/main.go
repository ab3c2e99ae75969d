package main

import (
    "context"
    "encoding/json"
    "flag"
    "log"
    "os"
    "time"

    "github.com/joho/godotenv"
    "go.uber.org/zap"

    "rateengine/internal/asset"
    "rateengine/internal/config"
    "rateengine/internal/engine"
    "rateengine/internal/engine/binance"
    "rateengine/internal/engine/fxref"
    "rateengine/internal/engine/manual"
    "rateengine/internal/engine/router"
    "rateengine/internal/httpx"
)

func main() {
    var from string
    var to string
    var fee float64
    var mode string
    var configPath string
    var timeout int

    flag.StringVar(&from, "from", "", "asset to convert from (e.g. ETH)")
    flag.StringVar(&to, "to", "", "asset to convert to (e.g. TRY)")
    flag.Float64Var(&fee, "fee", -1, "fee percent for manual mode (negative = config default)")
    flag.StringVar(&mode, "mode", "", "pricing mode override (market|manual)")
    flag.StringVar(&configPath, "config", os.Getenv("RATE_ENGINE_CONFIG_PATH"), "path to config.yml (optional)")
    flag.IntVar(&timeout, "timeout", 15, "request timeout seconds")
    flag.Parse()

    if from == "" || to == "" {
        log.Fatal("usage: quote -from ETH -to TRY [-fee 1.0] [-mode manual]")
    }

    godotenv.Load()
    cfg, err := config.Load(configPath)
    if err != nil { log.Fatalf("config: %v", err) }
    if mode != "" { cfg.Pricing.Mode = mode }

    httpClient := httpx.New(time.Duration(timeout) * time.Second)

    var backend engine.Backend
    if cfg.Pricing.Mode == "manual" {
        backend = manual.New(cfg.Pricing.ManualRates, cfg.Pricing.DefaultFeePct, cfg.Pricing.BridgeAsset)
    } else {
        market := binance.New(binance.Config{
            TickerURL:       cfg.Exchange.TickerEndpoint,
            CatalogURL:      cfg.Exchange.SymbolsEndpoint,
            RefreshInterval: time.Duration(cfg.Exchange.CatalogRefreshSec) * time.Second,
            CacheTTL:        time.Duration(cfg.Exchange.CacheTTLSec) * time.Second,
        }, httpClient, zap.NewNop())
        fx := fxref.NewClient(
            fxref.WithBaseURL(cfg.FiatReference.Endpoint),
            fxref.WithHTTPClient(httpClient.HTTP),
        )
        assets := asset.NewRegistry(cfg.Pricing.CryptoAssets, cfg.Pricing.FiatAssets)
        backend = router.New(market, fx, assets, cfg.Pricing.BridgeAsset, cfg.Pricing.AnchorFiat)
    }

    ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
    defer cancel()

    var feePct *float64
    if fee >= 0 { feePct = &fee }

    q, err := backend.Quote(ctx, from, to, feePct)
    if err != nil { log.Fatalf("quote: %v", err) }

    enc := json.NewEncoder(os.Stdout)
    enc.SetEscapeHTML(false)
    enc.SetIndent("", "  ")
    enc.Encode(q)
}
