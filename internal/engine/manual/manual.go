package manual

import (
    "context"
    "fmt"
    "sort"
    "strconv"
    "strings"
    "time"

    "rateengine/internal/asset"
    "rateengine/internal/engine"
)

// Table is the offline pricing backend: administrator-entered rate tables
// keyed by fee tier. It serves the same quote contract as the live-market
// router and is interchangeable with it. Immutable after construction.
//
// Pair codes are "BASE_QUOTE": "USDC_TRY" means 1 USDC = X TRY.
type Table struct {
    bridge     string
    defaultFee float64
    tiers      map[float64]map[string]float64
}

// New parses the configured tier tables. Tier keys are fee percentages,
// tolerating a trailing percent sign ("1.5%" == "1.5"); unparseable keys are
// skipped. If the default fee has no tier, the nearest configured one is
// adopted instead.
func New(ratesByFee map[string]map[string]float64, defaultFee float64, bridge string) *Table {
    if bridge == "" { bridge = "USDC" }
    t := &Table{
        bridge:     asset.Normalize(bridge),
        defaultFee: defaultFee,
        tiers:      make(map[float64]map[string]float64, len(ratesByFee)),
    }
    for key, table := range ratesByFee {
        fee, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(key), "%"), 64)
        if err != nil {
            continue
        }
        pairs := make(map[string]float64, len(table))
        for code, rate := range table {
            pairs[strings.ToUpper(strings.TrimSpace(code))] = rate
        }
        t.tiers[fee] = pairs
    }
    if _, ok := t.tiers[t.defaultFee]; !ok && len(t.tiers) > 0 {
        t.defaultFee = t.selectTier(t.defaultFee)
    }
    return t
}

func (m *Table) Name() string { return "manual" }

// Tiers returns the configured tier values, ascending. For admin display.
func (m *Table) Tiers() []float64 {
    out := make([]float64, 0, len(m.tiers))
    for fee := range m.tiers {
        out = append(out, fee)
    }
    sort.Float64s(out)
    return out
}

// selectTier picks the tier for a requested fee: exact match, else minimum
// absolute distance. Equidistant tiers resolve to the lower value, so
// selection is deterministic.
func (m *Table) selectTier(fee float64) float64 {
    if _, ok := m.tiers[fee]; ok {
        return fee
    }
    tiers := m.Tiers()
    if len(tiers) == 0 {
        return fee
    }
    best := tiers[0]
    for _, v := range tiers[1:] {
        if abs(v-fee) < abs(best-fee) {
            best = v
        }
    }
    return best
}

func abs(v float64) float64 { if v < 0 { return -v }; return v }

// Quote implements engine.Backend against the selected tier's table:
// direct pair, then inverse, then one hop through the bridge asset.
func (m *Table) Quote(_ context.Context, from, to string, feePct *float64) (engine.Quote, error) {
    fee := m.defaultFee
    if feePct != nil {
        fee = *feePct
    }
    tier := m.selectTier(fee)
    table := m.tiers[tier]

    f := asset.Normalize(from)
    t := asset.Normalize(to)
    fShow := asset.Display(from)
    tShow := asset.Display(to)

    if len(table) == 0 {
        return engine.Quote{}, &engine.MissingManualRateError{Tier: tier, Pair: f + "_" + t}
    }

    if rate, ok := lookup(table, f, t); ok {
        return m.quote(fShow, tShow, rate, fmt.Sprintf("%s->%s (manual tier %g%%)", fShow, tShow, tier)), nil
    }

    toBridge, ok := lookup(table, f, m.bridge)
    if !ok {
        return engine.Quote{}, &engine.MissingManualRateError{
            Tier: tier,
            Pair: fmt.Sprintf("%s_%s or %s_%s", f, m.bridge, m.bridge, f),
        }
    }
    fromBridge, ok := lookup(table, m.bridge, t)
    if !ok {
        return engine.Quote{}, &engine.MissingManualRateError{
            Tier: tier,
            Pair: fmt.Sprintf("%s_%s or %s_%s", m.bridge, t, t, m.bridge),
        }
    }
    rate := toBridge * fromBridge
    return m.quote(fShow, tShow, rate, fmt.Sprintf("%s->%s->%s (manual tier %g%%)", fShow, m.bridge, tShow, tier)), nil
}

// lookup resolves "1 a = X b" from a direct A_B entry or an inverted B_A
// entry, guarding the reciprocal against zero.
func lookup(table map[string]float64, a, b string) (float64, bool) {
    if a == b {
        return 1.0, true
    }
    if r, ok := table[a+"_"+b]; ok {
        return r, true
    }
    if r, ok := table[b+"_"+a]; ok && r != 0 {
        return 1 / r, true
    }
    return 0, false
}

func (m *Table) quote(fShow, tShow string, rate float64, path string) engine.Quote {
    return engine.Quote{
        From:     fShow,
        To:       tShow,
        Rate:     rate,
        Path:     path,
        Source:   m.Name(),
        QuotedAt: time.Now().UTC(),
    }
}
