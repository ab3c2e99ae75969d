package recent

import (
    "sort"
    "sync"
    "time"

    "rateengine/internal/engine"
)

// PairKey identifies a quote bucket on the board.
type PairKey struct {
    From   string
    To     string
    Source string
}

// Entry is the latest quote per PairKey.
type Entry struct {
    From     string    `json:"from"`
    To       string    `json:"to"`
    Rate     float64   `json:"rate"`
    Path     string    `json:"path"`
    Source   string    `json:"source"`
    QuotedAt time.Time `json:"quoted_at"`
}

// Board keeps the most recent quote per (From, To, Source).
// For equal timestamps, the later record wins. Zero timestamps are
// replaced with time.Now().UTC().
type Board struct {
    mu      sync.RWMutex
    entries map[PairKey]Entry
}

func NewBoard() *Board {
    return &Board{entries: make(map[PairKey]Entry)}
}

func (b *Board) Record(q engine.Quote) {
    ts := q.QuotedAt
    if ts.IsZero() { ts = time.Now().UTC() }

    key := PairKey{From: q.From, To: q.To, Source: q.Source}
    e := Entry{
        From:     q.From,
        To:       q.To,
        Rate:     q.Rate,
        Path:     q.Path,
        Source:   q.Source,
        QuotedAt: ts,
    }

    b.mu.Lock()
    defer b.mu.Unlock()
    if cur, ok := b.entries[key]; ok && ts.Before(cur.QuotedAt) {
        return
    }
    b.entries[key] = e
}

// Latest returns the board sorted by From, To, Source.
func (b *Board) Latest() []Entry {
    b.mu.RLock()
    out := make([]Entry, 0, len(b.entries))
    for _, v := range b.entries { out = append(out, v) }
    b.mu.RUnlock()

    sort.Slice(out, func(i, j int) bool {
        if out[i].From != out[j].From { return out[i].From < out[j].From }
        if out[i].To != out[j].To { return out[i].To < out[j].To }
        return out[i].Source < out[j].Source
    })
    return out
}
