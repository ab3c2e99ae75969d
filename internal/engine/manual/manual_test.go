package manual

import (
    "context"
    "errors"
    "testing"

    "github.com/stretchr/testify/require"

    "rateengine/internal/engine"
)

func fee(v float64) *float64 { return &v }

func TestSelectTier_NearestAndTies(t *testing.T) {
    tbl := New(map[string]map[string]float64{
        "1":   {"USDC_TRY": 30},
        "1.5": {"USDC_TRY": 29.9},
        "2":   {"USDC_TRY": 29.8},
        "2.5": {"USDC_TRY": 29.7},
    }, 2.5, "USDC")

    cases := []struct {
        requested float64
        want      float64
    }{
        {1.0, 1.0},  // exact
        {1.2, 1.0},  // distance 0.2 beats 0.3
        {1.4, 1.5},
        {1.25, 1.0}, // equidistant: prefer the lower tier
        {9.0, 2.5},  // beyond range clamps to nearest
    }
    for _, c := range cases {
        require.Equal(t, c.want, tbl.selectTier(c.requested), "fee %v", c.requested)
    }
}

func TestNew_ParsesPercentSuffixAndSkipsGarbage(t *testing.T) {
    tbl := New(map[string]map[string]float64{
        "1.5%":    {"usdc_try": 30},
        "  2 ":    {"USDC_TRY": 29},
        "premium": {"USDC_TRY": 28}, // unparseable key, ignored
    }, 2, "USDC")

    require.Equal(t, []float64{1.5, 2}, tbl.Tiers())

    q, err := tbl.Quote(context.Background(), "USDC", "TRY", fee(1.5))
    require.NoError(t, err)
    require.Equal(t, 30.0, q.Rate)
}

func TestQuote_DirectInverseAndBridge(t *testing.T) {
    tbl := New(map[string]map[string]float64{
        "1": {"USDC_TRY": 30.0, "ETH_USDC": 3000},
    }, 1, "USDC")
    ctx := context.Background()

    direct, err := tbl.Quote(ctx, "ETH", "USDC", fee(1))
    require.NoError(t, err)
    require.Equal(t, 3000.0, direct.Rate)

    inverse, err := tbl.Quote(ctx, "TRY", "USDC", fee(1))
    require.NoError(t, err)
    require.Equal(t, 1.0/30.0, inverse.Rate)

    bridged, err := tbl.Quote(ctx, "ETH", "TRY", fee(1))
    require.NoError(t, err)
    require.Equal(t, 90000.0, bridged.Rate)
    require.Equal(t, "ETH->USDC->TRY (manual tier 1%)", bridged.Path)
}

func TestQuote_NormalizesStables(t *testing.T) {
    tbl := New(map[string]map[string]float64{
        "1": {"USDC_TRY": 30.0},
    }, 1, "USDC")

    q, err := tbl.Quote(context.Background(), "USDT", "TRY", nil)
    require.NoError(t, err)
    require.Equal(t, 30.0, q.Rate)
    require.Equal(t, "USDT (priced as USDC)->TRY (manual tier 1%)", q.Path)
}

func TestQuote_DefaultFeeTier(t *testing.T) {
    tbl := New(map[string]map[string]float64{
        "1":   {"USDC_TRY": 30},
        "2.5": {"USDC_TRY": 28},
    }, 2.5, "USDC")

    q, err := tbl.Quote(context.Background(), "USDC", "TRY", nil)
    require.NoError(t, err)
    require.Equal(t, 28.0, q.Rate)
}

func TestQuote_MissingRateNamesTierAndLeg(t *testing.T) {
    tbl := New(map[string]map[string]float64{
        "1": {"ETH_USDC": 3000},
    }, 1, "USDC")

    _, err := tbl.Quote(context.Background(), "ETH", "TRY", fee(1))
    var missing *engine.MissingManualRateError
    require.True(t, errors.As(err, &missing))
    require.Equal(t, 1.0, missing.Tier)
    require.Equal(t, "USDC_TRY or TRY_USDC", missing.Pair)
}

func TestQuote_EmptyTable(t *testing.T) {
    tbl := New(nil, 2.5, "USDC")
    _, err := tbl.Quote(context.Background(), "ETH", "TRY", nil)
    var missing *engine.MissingManualRateError
    require.True(t, errors.As(err, &missing))
}

func TestQuote_ZeroRateEntryIsNotInverted(t *testing.T) {
    tbl := New(map[string]map[string]float64{
        "1": {"USDC_TRY": 0},
    }, 1, "USDC")
    _, err := tbl.Quote(context.Background(), "TRY", "USDC", fee(1))
    require.Error(t, err)
}
