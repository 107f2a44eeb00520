package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/ariefcatur/go-stock-orders/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"net/http"
	"strings"
	"time"
)

const headerIdempotencyKey = "Idempotency-Key"

type OrderService interface {
	ListOrders(ctx context.Context) ([]orders.Order, error)
	GetOrder(ctx context.Context, id string) (orders.Order, error)
	OrderForm(ctx context.Context) (orders.OrderForm, error)
	// PlaceOrder reports replayed=true when in.IdempotencyKey already
	// belongs to a stored order; that order is returned untouched.
	PlaceOrder(ctx context.Context, in orders.CreateOrderInput) (o orders.Order, replayed bool, err error)
	DeleteOrder(ctx context.Context, id string) (orders.Order, error)
}

// OrderCache is the redis shortcut in front of the order endpoints.
// Misses and failures look the same to the handler.
type OrderCache interface {
	GetOrder(ctx context.Context, orderID string) ([]byte, bool)
	PutOrder(ctx context.Context, orderID string, body []byte)
	DropOrder(ctx context.Context, orderID string)
	IdempotentOrderID(ctx context.Context, key string) (string, bool)
	RememberIdempotent(ctx context.Context, key, orderID string)
}

type OrdersHandler struct {
	Service OrderService
	Cache   OrderCache // nil = tanpa redis
	Logger  *logrus.Logger
}

type orderItemResp struct {
	orders.OrderItem
	Subtotal decimal.Decimal `json:"subtotal"`
}

type orderResp struct {
	orders.Order
	Items      []orderItemResp `json:"items"`
	Total      decimal.Decimal `json:"total"`
	Idempotent bool            `json:"idempotent,omitempty"`
}

func toOrderResp(o orders.Order) orderResp {
	items := make([]orderItemResp, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResp{OrderItem: it, Subtotal: it.Subtotal()})
	}
	return orderResp{Order: o, Items: items, Total: o.Total()}
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Get("/orders/new", h.orderForm)
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Delete("/orders/{id}", h.deleteOrder)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Service.ListOrders(ctx)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	out := make([]orderResp, 0, len(list))
	for _, o := range list {
		out = append(out, toOrderResp(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) orderForm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	form, err := h.Service.OrderForm(ctx)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	in, err := decodeCreateOrder(r)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Fast-path via Redis; sumber kebenaran tetap kolom idempotency_key di DB
	idemKey := strings.TrimSpace(r.Header.Get(headerIdempotencyKey))
	if idemKey != "" && h.Cache != nil {
		if orderID, ok := h.Cache.IdempotentOrderID(ctx, idemKey); ok {
			o, err := h.Service.GetOrder(ctx, orderID)
			switch {
			case err == nil:
				resp := toOrderResp(o)
				resp.Idempotent = true
				writeJSON(w, http.StatusOK, resp)
				return
			case !errors.Is(err, orders.ErrOrderNotFound):
				writeServiceError(w, r, h.Logger, err)
				return
			}
		}
	}

	in.IdempotencyKey = idemKey
	o, replayed, err := h.Service.PlaceOrder(ctx, in)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	if idemKey != "" && h.Cache != nil {
		h.Cache.RememberIdempotent(ctx, idemKey, o.ID)
	}
	resp := toOrderResp(o)
	if replayed {
		resp.Idempotent = true
		writeJSON(w, http.StatusOK, resp)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeServiceError(w, r, h.Logger, orders.ErrOrderNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	if h.Cache != nil {
		if b, ok := h.Cache.GetOrder(ctx, id); ok {
			writeJSON(w, http.StatusOK, json.RawMessage(b))
			return
		}
	}

	// 2) fallback DB
	o, err := h.Service.GetOrder(ctx, id)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	resp := toOrderResp(o)
	if h.Cache != nil {
		if b, err := json.Marshal(resp); err == nil {
			h.Cache.PutOrder(ctx, id, b)
			// delete yang jalan barengan bisa DropOrder sebelum PutOrder di atas
			if _, err := h.Service.GetOrder(ctx, id); errors.Is(err, orders.ErrOrderNotFound) {
				h.Cache.DropOrder(ctx, id)
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrdersHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeServiceError(w, r, h.Logger, orders.ErrOrderNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.DeleteOrder(ctx, id)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	if h.Cache != nil {
		h.Cache.DropOrder(ctx, id)
	}
	writeJSON(w, http.StatusOK, toOrderResp(o))
}
