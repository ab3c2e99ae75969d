package cache

import (
    "sync"
    "time"
)

// entry stores one fetched pair rate with its fetch time.
type entry struct {
    rate      float64
    fetchedAt time.Time
}

// Store caches pair rates for a TTL. Entries are never actively evicted:
// a stale entry reads as absent and is overwritten on the next Put.
type Store struct {
    TTL time.Duration

    // now is swappable for tests; defaults to time.Now.
    now func() time.Time

    mu    sync.RWMutex
    items map[string]entry // key: BASE/QUOTE
}

func New(ttl time.Duration) *Store {
    return &Store{TTL: ttl, now: time.Now, items: make(map[string]entry)}
}

func key(base, quote string) string { return base + "/" + quote }

// Get returns the cached rate for (base, quote) if it is still within TTL.
func (s *Store) Get(base, quote string) (float64, bool) {
    if s == nil || s.TTL <= 0 {
        return 0, false
    }
    s.mu.RLock()
    e, ok := s.items[key(base, quote)]
    s.mu.RUnlock()
    if !ok || s.now().Sub(e.fetchedAt) >= s.TTL {
        return 0, false
    }
    return e.rate, true
}

// Put records a freshly fetched rate, replacing any previous entry.
func (s *Store) Put(base, quote string, rate float64) {
    if s == nil || s.TTL <= 0 {
        return
    }
    s.mu.Lock()
    s.items[key(base, quote)] = entry{rate: rate, fetchedAt: s.now()}
    s.mu.Unlock()
}
