package cache

import (
    "testing"
    "time"
)

func TestStore_HitWithinTTL(t *testing.T) {
    s := New(30 * time.Second)
    s.Put("ETH", "USDC", 3000)

    got, ok := s.Get("ETH", "USDC")
    if !ok || got != 3000 {
        t.Fatalf("want hit 3000, got (%v, %v)", got, ok)
    }
    if _, ok := s.Get("USDC", "ETH"); ok {
        t.Fatal("reverse pair should not hit")
    }
}

func TestStore_ExpiryReadsAsAbsent(t *testing.T) {
    base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
    now := base
    s := New(30 * time.Second)
    s.now = func() time.Time { return now }

    s.Put("ETH", "USDC", 3000)

    now = base.Add(29 * time.Second)
    if _, ok := s.Get("ETH", "USDC"); !ok {
        t.Fatal("entry should still be valid just under TTL")
    }

    now = base.Add(30 * time.Second)
    if _, ok := s.Get("ETH", "USDC"); ok {
        t.Fatal("entry at TTL boundary should read as absent")
    }

    // Overwrite refreshes the fetch time.
    s.Put("ETH", "USDC", 3100)
    if got, ok := s.Get("ETH", "USDC"); !ok || got != 3100 {
        t.Fatalf("want refreshed 3100, got (%v, %v)", got, ok)
    }
}

func TestStore_DisabledTTL(t *testing.T) {
    s := New(0)
    s.Put("ETH", "USDC", 3000)
    if _, ok := s.Get("ETH", "USDC"); ok {
        t.Fatal("zero TTL store should never hit")
    }
}
