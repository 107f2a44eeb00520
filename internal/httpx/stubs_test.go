package httpx

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/ariefcatur/go-stock-orders/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const (
	testProductID = "0b6c1c1e-4f7a-4d43-9d51-3a5a3c7d8e01"
	testClientID  = "5d2f7e2a-8c1b-4b36-a1f0-6e9b8a7c6d02"
	testOrderID   = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c03"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

func newTestRouter(register ...func(r chi.Router)) http.Handler {
	r := NewRouter(quietLogger())
	for _, reg := range register {
		reg(r)
	}
	return r
}

type stubProductService struct {
	product     orders.Product
	products    []orders.Product
	err         error
	inStockOnly bool
	gotInput    orders.ProductInput
	gotUpdate   orders.ProductUpdate
	gotID       string
}

func (s *stubProductService) ListProducts(_ context.Context, inStockOnly bool) ([]orders.Product, error) {
	s.inStockOnly = inStockOnly
	return s.products, s.err
}

func (s *stubProductService) GetProduct(_ context.Context, id string) (orders.Product, error) {
	s.gotID = id
	return s.product, s.err
}

func (s *stubProductService) CreateProduct(_ context.Context, in orders.ProductInput) (orders.Product, error) {
	s.gotInput = in
	return s.product, s.err
}

func (s *stubProductService) UpdateProduct(_ context.Context, id string, in orders.ProductUpdate) (orders.Product, error) {
	s.gotID = id
	s.gotUpdate = in
	return s.product, s.err
}

func (s *stubProductService) DeleteProduct(_ context.Context, id string) error {
	s.gotID = id
	return s.err
}

type stubClientService struct {
	client   orders.Client
	clients  []orders.Client
	err      error
	gotInput orders.ClientInput
	gotID    string
}

func (s *stubClientService) ListClients(context.Context) ([]orders.Client, error) {
	return s.clients, s.err
}

func (s *stubClientService) GetClient(_ context.Context, id string) (orders.Client, error) {
	s.gotID = id
	return s.client, s.err
}

func (s *stubClientService) CreateClient(_ context.Context, in orders.ClientInput) (orders.Client, error) {
	s.gotInput = in
	return s.client, s.err
}

func (s *stubClientService) UpdateClient(_ context.Context, id string, in orders.ClientInput) (orders.Client, error) {
	s.gotID = id
	s.gotInput = in
	return s.client, s.err
}

func (s *stubClientService) DeleteClient(_ context.Context, id string) error {
	s.gotID = id
	return s.err
}

type stubOrderService struct {
	order       orders.Order
	list        []orders.Order
	form        orders.OrderForm
	err         error
	getErr      error
	gotCreate   orders.CreateOrderInput
	createCalls int
	getCalls    int
	// getAfter, kalau di-set, dipakai untuk GetOrder kedua dan seterusnya
	getAfter error

	mu   sync.Mutex
	keys map[string]bool // idempotency key yang sudah membuat order
}

func (s *stubOrderService) ListOrders(context.Context) ([]orders.Order, error) {
	return s.list, s.err
}

func (s *stubOrderService) GetOrder(context.Context, string) (orders.Order, error) {
	s.getCalls++
	if s.getCalls > 1 && s.getAfter != nil {
		return orders.Order{}, s.getAfter
	}
	if s.getErr != nil {
		return orders.Order{}, s.getErr
	}
	return s.order, s.err
}

func (s *stubOrderService) OrderForm(context.Context) (orders.OrderForm, error) {
	return s.form, s.err
}

func (s *stubOrderService) PlaceOrder(_ context.Context, in orders.CreateOrderInput) (orders.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gotCreate = in
	if s.err != nil {
		return orders.Order{}, false, s.err
	}
	if in.IdempotencyKey != "" {
		if s.keys[in.IdempotencyKey] {
			return s.order, true, nil
		}
		if s.keys == nil {
			s.keys = map[string]bool{}
		}
		s.keys[in.IdempotencyKey] = true
	}
	s.createCalls++
	return s.order, false, nil
}

func (s *stubOrderService) DeleteOrder(context.Context, string) (orders.Order, error) {
	return s.order, s.err
}

type memCache struct {
	mu     sync.Mutex
	orders map[string][]byte
	idem   map[string]string
}

func newMemCache() *memCache {
	return &memCache{orders: map[string][]byte{}, idem: map[string]string{}}
}

func (c *memCache) GetOrder(_ context.Context, id string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.orders[id]
	return b, ok
}

func (c *memCache) PutOrder(_ context.Context, id string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders[id] = body
}

func (c *memCache) DropOrder(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.orders, id)
}

func (c *memCache) IdempotentOrderID(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.idem[key]
	return id, ok
}

func (c *memCache) RememberIdempotent(_ context.Context, key, orderID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.idem[key] = orderID
}
