package asset

import "testing"

func TestNormalize_Idempotent(t *testing.T) {
    for _, s := range []string{"usdt", "USDT", "USDC", "eth", "TRY", "xyz", " btc "} {
        once := Normalize(s)
        if twice := Normalize(once); twice != once {
            t.Fatalf("normalize(%q) not idempotent: %q -> %q", s, once, twice)
        }
    }
}

func TestNormalize_FoldsStables(t *testing.T) {
    if got := Normalize("usdt"); got != "USDC" {
        t.Fatalf("USDT should price as USDC, got %q", got)
    }
    if got := Normalize("ETH"); got != "ETH" {
        t.Fatalf("ETH should pass through, got %q", got)
    }
}

func TestDisplay_AnnotatesFoldedSymbols(t *testing.T) {
    if got := Display("usdt"); got != "USDT (priced as USDC)" {
        t.Fatalf("unexpected display: %q", got)
    }
    if got := Display("eth"); got != "ETH" {
        t.Fatalf("unexpected display: %q", got)
    }
}

func TestRegistry_ClassOf(t *testing.T) {
    r := NewRegistry([]string{"pepe"}, []string{"mxn"})

    cases := []struct {
        sym   string
        class Class
        known bool
    }{
        {"ETH", Crypto, true},
        {"usdt", Crypto, true},
        {"TRY", Fiat, true},
        {"PEPE", Crypto, true},
        {"MXN", Fiat, true},
        {"ZZZ", "", false},
    }
    for _, c := range cases {
        got, ok := r.ClassOf(c.sym)
        if ok != c.known || got != c.class {
            t.Fatalf("ClassOf(%q) = (%q, %v), want (%q, %v)", c.sym, got, ok, c.class, c.known)
        }
    }
}
