package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/ariefcatur/go-shop.git/internal/auth"
	"github.com/ariefcatur/go-shop.git/internal/orders"
	"github.com/ariefcatur/go-shop.git/internal/paging"
	"github.com/ariefcatur/go-shop.git/internal/redisx"
	"github.com/go-chi/chi/v5"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, memberID, itemID int64, qty int) (*orders.Order, error)
	CancelOrder(ctx context.Context, orderID int64) (*orders.Order, error)
	CancelOwnOrder(ctx context.Context, orderID, memberID int64) (*orders.Order, error)
	GetOrder(ctx context.Context, id int64) (*orders.Order, error)
	ListOrders(ctx context.Context, memberID int64, req paging.Request) (paging.Page[orders.Order], error)
}

// Cache is the key/value store behind idempotency keys and the status
// cache; redisx.KV satisfies it.
type Cache interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type OrdersHandler struct {
	Orders OrderService
	Cache  Cache
	Events *OrderEvents
}

type PlaceOrderReq struct {
	ItemID int64 `json:"item_id"`
	Count  int   `json:"count"`
}

type PlaceOrderResp struct {
	OrderID    int64 `json:"order_id"`
	TotalPrice int64 `json:"total_price,omitempty"`
	Idempotent bool  `json:"idempotent"`
}

type OrderView struct {
	orders.Order
	TotalPrice int64 `json:"total_price"`
}

type statusEntry struct {
	OrderID  int64         `json:"order_id"`
	MemberID int64         `json:"member_id"`
	Status   orders.Status `json:"status"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireMember)
		r.Post("/orders", h.placeOrder)
		r.Get("/orders", h.history)
		r.Get("/orders/{id}/status", h.status)
		r.Post("/orders/{id}/cancel", h.cancelOrder)
	})
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ItemID <= 0 {
		writeMsg(w, http.StatusBadRequest, "item_id is required")
		return
	}
	p, _ := auth.PrincipalFrom(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Idempotency-Key: first caller claims the key with a pending marker,
	// repeats get the stored order id back.
	var idemKey string
	if k := strings.TrimSpace(r.Header.Get("Idempotency-Key")); k != "" {
		idemKey = fmt.Sprintf(redisx.KeyIdemOrderPlace, p.MemberID, k)
		claimed, err := h.Cache.SetNX(ctx, idemKey, redisx.IdemPending, redisx.TTLIdemPending)
		if err != nil {
			log.Printf("idempotency claim %s: %v", idemKey, err)
			idemKey = ""
		} else if !claimed {
			h.replay(ctx, w, r, idemKey)
			return
		}
	}

	o, err := h.Orders.PlaceOrder(ctx, p.MemberID, req.ItemID, req.Count)
	if err != nil {
		if idemKey != "" {
			if derr := h.Cache.Del(ctx, idemKey); derr != nil {
				log.Printf("idempotency release %s: %v", idemKey, derr)
			}
		}
		writeError(w, r, err)
		return
	}
	if idemKey != "" {
		if err := h.Cache.Set(ctx, idemKey, strconv.FormatInt(o.ID, 10), redisx.TTLIdempotency); err != nil {
			log.Printf("idempotency record %s order=%d: %v", idemKey, o.ID, err)
		}
	}
	h.cacheStatus(ctx, o)
	h.Events.placed(r, o)

	writeJSON(w, http.StatusCreated, PlaceOrderResp{OrderID: o.ID, TotalPrice: o.TotalPrice()})
}

func (h *OrdersHandler) replay(ctx context.Context, w http.ResponseWriter, r *http.Request, idemKey string) {
	v, found, err := h.Cache.Get(ctx, idemKey)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found || v == redisx.IdemPending {
		writeMsg(w, http.StatusConflict, "order with this idempotency key is in progress")
		return
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		writeError(w, r, fmt.Errorf("idempotency value %q: %w", v, err))
		return
	}
	writeJSON(w, http.StatusOK, PlaceOrderResp{OrderID: id, Idempotent: true})
}

// cancelOrder lets members cancel their own orders; admins may cancel any.
func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeMsg(w, http.StatusBadRequest, "invalid order id")
		return
	}
	p, _ := auth.PrincipalFrom(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var o *orders.Order
	var err error
	if p.IsAdmin() {
		o, err = h.Orders.CancelOrder(ctx, id)
	} else {
		o, err = h.Orders.CancelOwnOrder(ctx, id, p.MemberID)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.cacheStatus(ctx, o)
	h.Events.cancelled(r, o)

	writeJSON(w, http.StatusOK, map[string]any{"order_id": o.ID, "status": o.Status})
}

func (h *OrdersHandler) history(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFrom(r.Context())
	page, err := h.Orders.ListOrders(r.Context(), p.MemberID, pageReq(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]OrderView, 0, len(page.Content))
	for _, o := range page.Content {
		views = append(views, OrderView{Order: o, TotalPrice: o.TotalPrice()})
	}
	writeJSON(w, http.StatusOK, paging.Page[OrderView]{Content: views, Total: page.Total, Number: page.Number, Size: page.Size})
}

func (h *OrdersHandler) status(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeMsg(w, http.StatusBadRequest, "invalid order id")
		return
	}
	p, _ := auth.PrincipalFrom(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) cache
	key := fmt.Sprintf(redisx.KeyOrderStatus, id)
	var entry statusEntry
	if s, found, err := h.Cache.Get(ctx, key); err == nil && found && json.Unmarshal([]byte(s), &entry) == nil {
		h.writeStatus(w, r, p, entry)
		return
	}

	// 2) fallback DB
	o, err := h.Orders.GetOrder(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.cacheStatus(ctx, o)
	h.writeStatus(w, r, p, statusEntry{OrderID: o.ID, MemberID: o.MemberID, Status: o.Status})
}

func (h *OrdersHandler) writeStatus(w http.ResponseWriter, r *http.Request, p auth.Principal, e statusEntry) {
	if e.MemberID != p.MemberID && !p.IsAdmin() {
		writeError(w, r, orders.ErrNotOwner)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order_id": e.OrderID, "status": e.Status})
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, o *orders.Order) {
	b, err := json.Marshal(statusEntry{OrderID: o.ID, MemberID: o.MemberID, Status: o.Status})
	if err != nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	if err := h.Cache.Set(ctx, key, string(b), redisx.TTLStatusCache); err != nil {
		log.Printf("cache order status %d: %v", o.ID, err)
	}
}
