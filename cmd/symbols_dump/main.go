package main

import (
    "context"
    "encoding/json"
    "flag"
    "log"
    "os"
    "time"

    "go.uber.org/zap"

    "rateengine/internal/config"
    "rateengine/internal/engine/binance"
    "rateengine/internal/httpx"
)

// Dumps the tradable symbol catalog to a JSON file for offline inspection.
func main() {
    var outPath string
    var cfgPath string
    var timeoutSec int

    flag.StringVar(&outPath, "out", "symbols.json", "output JSON file path")
    flag.StringVar(&cfgPath, "config", os.Getenv("RATE_ENGINE_CONFIG_PATH"), "path to config.yml (optional)")
    flag.IntVar(&timeoutSec, "timeout", 20, "HTTP timeout seconds")
    flag.Parse()

    cfg, err := config.Load(cfgPath)
    if err != nil { log.Fatalf("config: %v", err) }

    httpClient := httpx.New(time.Duration(timeoutSec) * time.Second)
    catalog := binance.NewCatalog(cfg.Exchange.SymbolsEndpoint, time.Minute, httpClient, zap.NewNop())

    ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
    defer cancel()

    catalog.Refresh(ctx)
    if catalog.Empty() {
        log.Fatal("catalog fetch failed; no symbols")
    }
    symbols := catalog.Symbols()

    f, err := os.Create(outPath)
    if err != nil { log.Fatalf("create %s: %v", outPath, err) }
    defer f.Close()

    enc := json.NewEncoder(f)
    enc.SetIndent("", "  ")
    if err := enc.Encode(symbols); err != nil { log.Fatalf("encode: %v", err) }

    log.Printf("wrote %d symbols to %s", len(symbols), outPath)
}
