package asset

import "strings"

// Class groups assets by how they are routed: crypto pairs price on the
// exchange, fiat pairs price against the reference source.
type Class string

const (
    Crypto Class = "crypto"
    Fiat   Class = "fiat"
)

// canonical folds tickers that are priced identically onto one pricing
// symbol. USDT quotes are indistinguishable from USDC for our purposes.
var canonical = map[string]string{
    "USDT": "USDC",
}

// Normalize upper-cases a ticker and folds economically-equivalent symbols
// onto their canonical pricing symbol. Idempotent.
func Normalize(symbol string) string {
    s := strings.ToUpper(strings.TrimSpace(symbol))
    if c, ok := canonical[s]; ok {
        return c
    }
    return s
}

// Display renders a ticker for path/audit text, annotating it when
// normalization changed the pricing symbol: "USDT (priced as USDC)".
func Display(symbol string) string {
    s := strings.ToUpper(strings.TrimSpace(symbol))
    if n := Normalize(s); n != s {
        return s + " (priced as " + n + ")"
    }
    return s
}

var defaultClasses = map[string]Class{
    "BTC":  Crypto,
    "ETH":  Crypto,
    "SOL":  Crypto,
    "TRX":  Crypto,
    "BNB":  Crypto,
    "XRP":  Crypto,
    "LTC":  Crypto,
    "TON":  Crypto,
    "DOGE": Crypto,
    "USDC": Crypto,
    "USDT": Crypto,

    "USD": Fiat,
    "EUR": Fiat,
    "GBP": Fiat,
    "TRY": Fiat,
    "PLN": Fiat,
    "UAH": Fiat,
    "RUB": Fiat,
    "KZT": Fiat,
    "AED": Fiat,
    "CHF": Fiat,
}

// Registry maps tickers to their routing class. The built-in set covers the
// assets the desk actually trades; config may extend it.
type Registry struct {
    classes map[string]Class
}

func NewRegistry(extraCrypto, extraFiat []string) *Registry {
    classes := make(map[string]Class, len(defaultClasses)+len(extraCrypto)+len(extraFiat))
    for k, v := range defaultClasses {
        classes[k] = v
    }
    for _, s := range extraCrypto {
        classes[strings.ToUpper(strings.TrimSpace(s))] = Crypto
    }
    for _, s := range extraFiat {
        classes[strings.ToUpper(strings.TrimSpace(s))] = Fiat
    }
    return &Registry{classes: classes}
}

// ClassOf reports the class of a symbol. Lookup uses the raw upper-cased
// ticker, so folded symbols classify the same as their canonical form.
func (r *Registry) ClassOf(symbol string) (Class, bool) {
    c, ok := r.classes[strings.ToUpper(strings.TrimSpace(symbol))]
    return c, ok
}
