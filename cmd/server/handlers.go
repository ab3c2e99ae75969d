package main

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "go.uber.org/zap"

    "rateengine/internal/engine"
    "rateengine/internal/engine/recent"
    "rateengine/internal/order"
)

type server struct {
    backend engine.Backend
    board   *recent.Board
    orders  *order.Service
    timeout time.Duration
    log     *zap.Logger
}

type quoteResponse struct {
    Quote engine.Quote `json:"quote"`
}

type recentResponse struct {
    Quotes []recent.Entry `json:"quotes"`
}

func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
        return
    }
    from := strings.TrimSpace(r.URL.Query().Get("from"))
    to := strings.TrimSpace(r.URL.Query().Get("to"))
    if from == "" || to == "" {
        http.Error(w, "missing from/to query params", http.StatusBadRequest)
        return
    }

    var feePct *float64
    if raw := strings.TrimSpace(r.URL.Query().Get("fee")); raw != "" {
        f, err := strconv.ParseFloat(raw, 64)
        if err != nil {
            http.Error(w, "invalid fee query param", http.StatusBadRequest)
            return
        }
        feePct = &f
    }

    ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
    defer cancel()

    q, err := s.backend.Quote(ctx, from, to, feePct)
    if err != nil {
        s.writeQuoteError(w, err)
        return
    }
    s.board.Record(q)

    w.WriteHeader(http.StatusOK)
    enc := json.NewEncoder(w)
    enc.SetEscapeHTML(false)
    enc.Encode(quoteResponse{Quote: q})
}

func (s *server) writeQuoteError(w http.ResponseWriter, err error) {
    var unsupported *engine.UnsupportedPairError
    if errors.As(err, &unsupported) {
        http.Error(w, err.Error(), http.StatusBadRequest)
        return
    }
    var noRoute *engine.NoRouteError
    var missing *engine.MissingManualRateError
    if errors.As(err, &noRoute) || errors.As(err, &missing) {
        http.Error(w, err.Error(), http.StatusNotFound)
        return
    }
    s.log.Error("quote failed", zap.Error(err))
    http.Error(w, "quote backend error", http.StatusBadGateway)
}

func (s *server) handleRecent(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
        return
    }
    w.WriteHeader(http.StatusOK)
    enc := json.NewEncoder(w)
    enc.SetEscapeHTML(false)
    enc.Encode(recentResponse{Quotes: s.board.Latest()})
}

type createOrderBody struct {
    UserID     int64    `json:"user_id"`
    Username   string   `json:"username"`
    Lang       string   `json:"lang"`
    Direction  string   `json:"direction"`
    From       string   `json:"from"`
    To         string   `json:"to"`
    AmountFrom float64  `json:"amount_from"`
    FeePct     *float64 `json:"fee_pct,omitempty"`
}

func (s *server) handleOrders(w http.ResponseWriter, r *http.Request) {
    if s.orders == nil {
        http.Error(w, "orders disabled", http.StatusServiceUnavailable)
        return
    }
    switch r.Method {
    case http.MethodPost:
        s.handleCreateOrder(w, r)
    case http.MethodGet:
        s.handleListOrders(w, r)
    default:
        http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
    }
}

func (s *server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
    var b createOrderBody
    dec := json.NewDecoder(r.Body)
    dec.DisallowUnknownFields()
    if err := dec.Decode(&b); err != nil {
        http.Error(w, "invalid JSON body", http.StatusBadRequest)
        return
    }
    if b.From == "" || b.To == "" || b.AmountFrom <= 0 {
        http.Error(w, "from, to and positive amount_from are required", http.StatusBadRequest)
        return
    }

    ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
    defer cancel()

    o, err := s.orders.CreateOrder(ctx, order.CreateOrderRequest{
        UserID:     b.UserID,
        Username:   b.Username,
        Lang:       b.Lang,
        Direction:  b.Direction,
        FromAsset:  b.From,
        ToAsset:    b.To,
        AmountFrom: b.AmountFrom,
        FeePct:     b.FeePct,
    })
    if err != nil {
        if errors.Is(err, order.ErrQuoteUnavailable) {
            http.Error(w, err.Error(), http.StatusNotFound)
            return
        }
        s.log.Error("create order failed", zap.Error(err))
        http.Error(w, "internal server error", http.StatusInternalServerError)
        return
    }

    w.WriteHeader(http.StatusCreated)
    json.NewEncoder(w).Encode(o)
}

func (s *server) handleListOrders(w http.ResponseWriter, r *http.Request) {
    rawUser := strings.TrimSpace(r.URL.Query().Get("user_id"))
    if rawUser == "" {
        http.Error(w, "missing user_id query param", http.StatusBadRequest)
        return
    }
    userID, err := strconv.ParseInt(rawUser, 10, 64)
    if err != nil {
        http.Error(w, "invalid user_id query param", http.StatusBadRequest)
        return
    }
    limit := 20
    if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
        if n, err := strconv.Atoi(raw); err == nil && n > 0 {
            limit = n
        }
    }

    ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
    defer cancel()

    orders, err := s.orders.ListUserOrders(ctx, userID, limit)
    if err != nil {
        s.log.Error("list orders failed", zap.Error(err))
        http.Error(w, "internal server error", http.StatusInternalServerError)
        return
    }
    if orders == nil { orders = []*order.Order{} }

    w.WriteHeader(http.StatusOK)
    json.NewEncoder(w).Encode(map[string]any{"orders": orders})
}

// handleOrderByID serves /api/orders/{id}, /api/orders/{id}/status and
// /api/orders/{id}/proof.
func (s *server) handleOrderByID(w http.ResponseWriter, r *http.Request) {
    if s.orders == nil {
        http.Error(w, "orders disabled", http.StatusServiceUnavailable)
        return
    }
    rest := strings.TrimPrefix(r.URL.Path, "/api/orders/")
    parts := strings.Split(strings.Trim(rest, "/"), "/")
    if len(parts) == 0 || parts[0] == "" {
        http.Error(w, "missing order id", http.StatusBadRequest)
        return
    }
    id := parts[0]

    ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
    defer cancel()

    switch {
    case len(parts) == 1 && r.Method == http.MethodGet:
        o, err := s.orders.GetOrder(ctx, id)
        if err != nil {
            http.Error(w, "order not found", http.StatusNotFound)
            return
        }
        w.WriteHeader(http.StatusOK)
        json.NewEncoder(w).Encode(o)
    case len(parts) == 2 && parts[1] == "status" && r.Method == http.MethodPost:
        s.handleOrderStatus(ctx, w, r, id)
    case len(parts) == 2 && parts[1] == "proof" && r.Method == http.MethodPost:
        s.handleOrderProof(ctx, w, r, id)
    default:
        http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
    }
}

func (s *server) handleOrderStatus(ctx context.Context, w http.ResponseWriter, r *http.Request, id string) {
    var b struct {
        Status order.Status `json:"status"`
    }
    if err := json.NewDecoder(r.Body).Decode(&b); err != nil || b.Status == "" {
        http.Error(w, "invalid JSON body", http.StatusBadRequest)
        return
    }

    o, err := s.orders.AdvanceStatus(ctx, id, b.Status)
    if err != nil {
        var invalid *order.InvalidTransitionError
        if errors.As(err, &invalid) {
            http.Error(w, err.Error(), http.StatusConflict)
            return
        }
        http.Error(w, "order not found", http.StatusNotFound)
        return
    }

    w.WriteHeader(http.StatusOK)
    json.NewEncoder(w).Encode(o)
}

func (s *server) handleOrderProof(ctx context.Context, w http.ResponseWriter, r *http.Request, id string) {
    var b struct {
        ProofType   string `json:"proof_type"`
        ProofValue  string `json:"proof_value"`
        ProofFileID string `json:"proof_file_id"`
    }
    if err := json.NewDecoder(r.Body).Decode(&b); err != nil || b.ProofType == "" {
        http.Error(w, "invalid JSON body", http.StatusBadRequest)
        return
    }

    o, err := s.orders.AttachProof(ctx, id, b.ProofType, b.ProofValue, b.ProofFileID)
    if err != nil {
        var invalid *order.InvalidTransitionError
        if errors.As(err, &invalid) {
            http.Error(w, err.Error(), http.StatusConflict)
            return
        }
        http.Error(w, "order not found", http.StatusNotFound)
        return
    }

    w.WriteHeader(http.StatusOK)
    json.NewEncoder(w).Encode(o)
}
