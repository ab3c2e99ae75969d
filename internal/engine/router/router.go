package router

import (
    "context"
    "math"
    "strings"
    "time"

    "rateengine/internal/asset"
    "rateengine/internal/engine"
)

// MarketSource is the spot-price lookup ("1 base = r quote" or absent).
type MarketSource interface {
    Price(ctx context.Context, base, quote string) (float64, bool)
}

// ReferenceSource is the fiat reference-rate lookup.
type ReferenceSource interface {
    Rate(ctx context.Context, base, quote string) (float64, bool)
}

// Router is the live-market quotation backend. It tries a direct market
// price first, then composes legs through the stable bridge asset and, for
// fiat hops, the reference anchor currency. A direct market price always
// wins over a bridged computation: freshness outranks path simplicity.
type Router struct {
    market MarketSource
    fx     ReferenceSource
    assets *asset.Registry
    bridge string // stable bridge asset (canonical), e.g. USDC
    anchor string // fiat anchor for reference hops, e.g. USD
}

func New(market MarketSource, fx ReferenceSource, assets *asset.Registry, bridge, anchor string) *Router {
    if bridge == "" { bridge = "USDC" }
    if anchor == "" { anchor = "USD" }
    return &Router{
        market: market,
        fx:     fx,
        assets: assets,
        bridge: asset.Normalize(bridge),
        anchor: asset.Normalize(anchor),
    }
}

func (r *Router) Name() string { return "market" }

// Quote implements engine.Backend. feePct does not influence live-market
// pricing; the caller applies its fee on top.
func (r *Router) Quote(ctx context.Context, from, to string, _ *float64) (engine.Quote, error) {
    f := asset.Normalize(from)
    t := asset.Normalize(to)
    fShow := asset.Display(from)
    tShow := asset.Display(to)

    if f == t {
        q := r.quote(fShow, tShow, 1.0, nil)
        q.Path = fShow + "->" + tShow
        return q, nil
    }

    // Direct market price, including the inverse symbol, before any
    // class-based bridging.
    if rate, ok := r.market.Price(ctx, f, t); ok {
        return r.quote(fShow, tShow, rate, []string{fShow, tShow}), nil
    }

    fc, fKnown := r.assets.ClassOf(f)
    tc, tKnown := r.assets.ClassOf(t)
    if !fKnown || !tKnown {
        return engine.Quote{}, &engine.UnsupportedPairError{From: f, To: t}
    }

    switch {
    case fc == asset.Crypto && tc == asset.Crypto:
        leg1, ok := r.market.Price(ctx, f, r.bridge)
        if !ok {
            return engine.Quote{}, &engine.NoRouteError{From: f, To: t, Leg: f + "->" + r.bridge}
        }
        leg2, ok := r.market.Price(ctx, r.bridge, t)
        if !ok {
            return engine.Quote{}, &engine.NoRouteError{From: f, To: t, Leg: r.bridge + "->" + t}
        }
        return r.compose(f, t, fShow, tShow, leg1*leg2, []string{fShow, r.bridge, tShow})

    case fc == asset.Crypto && tc == asset.Fiat:
        leg1, ok := r.market.Price(ctx, f, r.bridge)
        if !ok {
            return engine.Quote{}, &engine.NoRouteError{From: f, To: t, Leg: f + "->" + r.bridge}
        }
        leg2, viaAnchor, ok := r.bridgeToFiat(ctx, t)
        if !ok {
            return engine.Quote{}, &engine.NoRouteError{From: f, To: t, Leg: r.bridge + "->" + t}
        }
        hops := []string{fShow, r.bridge}
        if viaAnchor { hops = append(hops, r.anchor) }
        hops = append(hops, tShow)
        return r.compose(f, t, fShow, tShow, leg1*leg2, hops)

    case fc == asset.Fiat && tc == asset.Crypto:
        toBridge, viaAnchor, ok := r.fiatToBridge(ctx, f)
        if !ok {
            return engine.Quote{}, &engine.NoRouteError{From: f, To: t, Leg: f + "->" + r.bridge}
        }
        leg2, ok := r.market.Price(ctx, r.bridge, t)
        if !ok {
            return engine.Quote{}, &engine.NoRouteError{From: f, To: t, Leg: r.bridge + "->" + t}
        }
        hops := []string{fShow}
        if viaAnchor { hops = append(hops, r.anchor) }
        hops = append(hops, r.bridge, tShow)
        return r.compose(f, t, fShow, tShow, toBridge*leg2, hops)

    case fc == asset.Fiat && tc == asset.Fiat:
        if rate, ok := r.fx.Rate(ctx, f, t); ok {
            return r.quote(fShow, tShow, rate, []string{fShow, tShow}), nil
        }
        toBridge, _, ok := r.fiatToBridge(ctx, f)
        if !ok {
            return engine.Quote{}, &engine.NoRouteError{From: f, To: t, Leg: f + "->" + r.bridge}
        }
        fromBridge, _, ok := r.bridgeToFiat(ctx, t)
        if !ok {
            return engine.Quote{}, &engine.NoRouteError{From: f, To: t, Leg: r.bridge + "->" + t}
        }
        return r.compose(f, t, fShow, tShow, toBridge*fromBridge, []string{fShow, r.bridge, tShow})
    }

    return engine.Quote{}, &engine.UnsupportedPairError{From: f, To: t}
}

// bridgeToFiat prices "1 bridge = r fiat": the exchange's own fiat market
// when listed, otherwise the reference rate from the anchor, with the stable
// bridge taken at par with the anchor for that hop.
func (r *Router) bridgeToFiat(ctx context.Context, fiat string) (rate float64, viaAnchor bool, ok bool) {
    if rate, ok := r.market.Price(ctx, r.bridge, fiat); ok {
        return rate, false, true
    }
    if rate, ok := r.fx.Rate(ctx, r.anchor, fiat); ok {
        return rate, fiat != r.anchor, true
    }
    return 0, false, false
}

// fiatToBridge is the reciprocal leg, with the zero guard on inversion.
func (r *Router) fiatToBridge(ctx context.Context, fiat string) (rate float64, viaAnchor bool, ok bool) {
    fwd, viaAnchor, ok := r.bridgeToFiat(ctx, fiat)
    if !ok || fwd == 0 {
        return 0, false, false
    }
    return 1 / fwd, viaAnchor, true
}

// compose validates a multiplied rate before returning it; a non-finite or
// non-positive product reads as a missing route, never as Inf/NaN.
func (r *Router) compose(f, t, fShow, tShow string, rate float64, hops []string) (engine.Quote, error) {
    if rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
        return engine.Quote{}, &engine.NoRouteError{From: f, To: t, Leg: f + "->" + t}
    }
    return r.quote(fShow, tShow, rate, hops), nil
}

func (r *Router) quote(fShow, tShow string, rate float64, hops []string) engine.Quote {
    return engine.Quote{
        From:     fShow,
        To:       tShow,
        Rate:     rate,
        Path:     joinHops(hops),
        Source:   r.Name(),
        QuotedAt: time.Now().UTC(),
    }
}

// joinHops renders "A->B->C", dropping consecutive duplicates so an anchor
// hop that coincides with an endpoint does not repeat.
func joinHops(hops []string) string {
    out := hops[:0:0]
    for _, h := range hops {
        if len(out) > 0 && out[len(out)-1] == h {
            continue
        }
        out = append(out, h)
    }
    return strings.Join(out, "->")
}
