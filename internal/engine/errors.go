package engine

import "fmt"

// Upstream failures are absorbed by the adapters and never reach callers;
// only the three error kinds below surface from a backend.

// NoRouteError means no direct, inverse, or bridged composition produced a
// price. Leg names the first hop that could not be priced.
type NoRouteError struct {
    From string
    To   string
    Leg  string
}

func (e *NoRouteError) Error() string {
    return fmt.Sprintf("no route from %s to %s: leg %s unavailable", e.From, e.To, e.Leg)
}

// UnsupportedPairError means the asset-class combination has no routing rule,
// typically because one side is not a registered asset.
type UnsupportedPairError struct {
    From string
    To   string
}

func (e *UnsupportedPairError) Error() string {
    return fmt.Sprintf("unsupported pair %s/%s", e.From, e.To)
}

// MissingManualRateError means the selected manual tier has no entry for the
// pair (or a bridge leg of it), in either direction.
type MissingManualRateError struct {
    Tier float64
    Pair string
}

func (e *MissingManualRateError) Error() string {
    return fmt.Sprintf("missing manual rate in %g%% tier for %s", e.Tier, e.Pair)
}
