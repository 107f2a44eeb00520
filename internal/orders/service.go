package orders

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Batas kolom: INTEGER untuk stock/quantity, NUMERIC(12,2) untuk harga.
const (
	maxLineQuantity = math.MaxInt32
	maxStock        = math.MaxInt32
)

var maxPrice = decimal.New(1, 10) // 10^10, eksklusif

// Store is the persistence the service needs. Methods called inside WithTx
// must run on the same transaction; LockProduct and LockOrder hold their row
// until it ends.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Counts(ctx context.Context) (Counts, error)

	ListProducts(ctx context.Context, inStockOnly bool) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	LockProduct(ctx context.Context, id string) (Product, error)
	InsertProduct(ctx context.Context, p Product) error
	UpdateProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, id string) error
	AddStock(ctx context.Context, productID string, delta int) (int, error)

	ListClients(ctx context.Context) ([]Client, error)
	GetClient(ctx context.Context, id string) (Client, error)
	InsertClient(ctx context.Context, c Client) error
	UpdateClient(ctx context.Context, c Client) error
	DeleteClient(ctx context.Context, id string) error

	ListOrders(ctx context.Context) ([]Order, error)
	GetOrder(ctx context.Context, id string) (Order, error)
	LockOrder(ctx context.Context, id string) (Order, error)
	// ClaimIdempotencyKey serializes transactions on key and returns the
	// order already holding it, if any.
	ClaimIdempotencyKey(ctx context.Context, key string) (orderID string, found bool, err error)
	InsertOrder(ctx context.Context, o Order) error
	DeleteOrder(ctx context.Context, id string) error
}

// EventPublisher is satisfied by the kafka producer.
type EventPublisher interface {
	PublishJSON(topic string, key []byte, eventType string, v any)
}

type Service struct {
	Store    Store
	Events   EventPublisher // nil = notifikasi dimatikan
	Logger   *logrus.Logger
	Producer string
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) log() *logrus.Logger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}

func (s *Service) Dashboard(ctx context.Context) (Counts, error) {
	return s.Store.Counts(ctx)
}

// ---- Products ----

func (s *Service) ListProducts(ctx context.Context, inStockOnly bool) ([]Product, error) {
	return s.Store.ListProducts(ctx, inStockOnly)
}

func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	return s.Store.GetProduct(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Product{}, ErrNameRequired
	}
	price, err := normalizePrice(in.Price)
	if err != nil {
		return Product{}, err
	}
	if in.Stock < 0 || in.Stock > maxStock {
		return Product{}, ErrInvalidStock
	}

	now := s.now()
	p := Product{
		ID:        uuid.NewString(),
		Name:      name,
		Price:     price,
		Stock:     in.Stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.InsertProduct(ctx, p); err != nil {
		return Product{}, err
	}
	s.log().WithFields(logrus.Fields{"product_id": p.ID, "stock": p.Stock}).Info("product created")
	return p, nil
}

// UpdateProduct changes name and price. Orders already placed keep their
// price_at_sale.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductUpdate) (Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Product{}, ErrNameRequired
	}
	price, err := normalizePrice(in.Price)
	if err != nil {
		return Product{}, err
	}

	var p Product
	err = s.Store.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		p, err = s.Store.LockProduct(txCtx, id)
		if err != nil {
			return err
		}
		p.Name = name
		p.Price = price
		p.UpdatedAt = s.now()
		return s.Store.UpdateProduct(txCtx, p)
	})
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

// normalizePrice rounds to cents and keeps the result inside NUMERIC(12,2).
func normalizePrice(d decimal.Decimal) (decimal.Decimal, error) {
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidPrice
	}
	d = d.Round(2)
	if d.GreaterThanOrEqual(maxPrice) {
		return decimal.Zero, ErrInvalidPrice
	}
	return d, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.Store.DeleteProduct(ctx, id)
}

// ---- Clients ----

func (s *Service) ListClients(ctx context.Context) ([]Client, error) {
	return s.Store.ListClients(ctx)
}

func (s *Service) GetClient(ctx context.Context, id string) (Client, error) {
	return s.Store.GetClient(ctx, id)
}

func (s *Service) CreateClient(ctx context.Context, in ClientInput) (Client, error) {
	c, err := clientFromInput(in)
	if err != nil {
		return Client{}, err
	}
	c.ID = uuid.NewString()
	c.CreatedAt = s.now()
	if err := s.Store.InsertClient(ctx, c); err != nil {
		return Client{}, err
	}
	return c, nil
}

func (s *Service) UpdateClient(ctx context.Context, id string, in ClientInput) (Client, error) {
	upd, err := clientFromInput(in)
	if err != nil {
		return Client{}, err
	}

	var c Client
	err = s.Store.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		c, err = s.Store.GetClient(txCtx, id)
		if err != nil {
			return err
		}
		c.Name, c.Email = upd.Name, upd.Email
		return s.Store.UpdateClient(txCtx, c)
	})
	if err != nil {
		return Client{}, err
	}
	return c, nil
}

func (s *Service) DeleteClient(ctx context.Context, id string) error {
	return s.Store.DeleteClient(ctx, id)
}

func clientFromInput(in ClientInput) (Client, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Client{}, ErrNameRequired
	}
	c := Client{Name: name}
	if email := strings.TrimSpace(in.Email); email != "" {
		c.Email = &email
	}
	return c, nil
}

// ---- Orders ----

func (s *Service) ListOrders(ctx context.Context) ([]Order, error) {
	return s.Store.ListOrders(ctx)
}

func (s *Service) GetOrder(ctx context.Context, id string) (Order, error) {
	return s.Store.GetOrder(ctx, id)
}

// OrderForm returns the clients and the products that can still be ordered.
func (s *Service) OrderForm(ctx context.Context) (OrderForm, error) {
	clients, err := s.Store.ListClients(ctx)
	if err != nil {
		return OrderForm{}, err
	}
	products, err := s.Store.ListProducts(ctx, true)
	if err != nil {
		return OrderForm{}, err
	}
	return OrderForm{Clients: clients, Products: products}, nil
}

// CreateOrder validates every line against current stock, decrements it and
// persists the order in one transaction. The first line that asks for more
// than is available aborts the whole order with *InsufficientStockError and
// nothing is written. An order whose lines are all zero is kept with no items.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (Order, error) {
	o, _, err := s.PlaceOrder(ctx, in)
	return o, err
}

// PlaceOrder is CreateOrder that also reports a replay: when
// in.IdempotencyKey already belongs to an order, that order is returned with
// replayed=true and nothing is written. The key is claimed inside the order's
// transaction, so concurrent retries with one key create one order.
func (s *Service) PlaceOrder(ctx context.Context, in CreateOrderInput) (Order, bool, error) {
	lines, err := normalizeLines(in.Items)
	if err != nil {
		return Order{}, false, err
	}

	order, replayed, depleted, err := s.placeOrderTx(ctx, in, lines)
	if errors.Is(err, errIdempotencyKeyTaken) {
		// kalah balapan di unique index; ulang sekali, sekarang key sudah terlihat
		order, replayed, depleted, err = s.placeOrderTx(ctx, in, lines)
	}
	if err != nil {
		return Order{}, false, err
	}
	if replayed {
		s.log().WithFields(logrus.Fields{
			"order_id":        order.ID,
			"idempotency_key": in.IdempotencyKey,
		}).Info("order replayed")
		return order, true, nil
	}

	s.log().WithFields(logrus.Fields{
		"order_id":  order.ID,
		"client_id": order.ClientID,
		"items":     len(order.Items),
		"total":     order.Total().StringFixed(2),
	}).Info("order created")

	s.publishOrderPlaced(ctx, order)
	for _, p := range depleted {
		s.publishStock(ctx, TopicStockDepleted, EventStockDepleted, p, order.ID)
	}
	return order, false, nil
}

func (s *Service) placeOrderTx(ctx context.Context, in CreateOrderInput, lines []LineInput) (Order, bool, []Product, error) {
	var (
		order    Order
		replayed bool
		depleted []Product
	)
	err := s.Store.WithTx(ctx, func(txCtx context.Context) error {
		if in.IdempotencyKey != "" {
			orderID, found, err := s.Store.ClaimIdempotencyKey(txCtx, in.IdempotencyKey)
			if err != nil {
				return err
			}
			if found {
				order, err = s.Store.GetOrder(txCtx, orderID)
				replayed = err == nil
				return err
			}
		}

		client, err := s.Store.GetClient(txCtx, in.ClientID)
		if err != nil {
			return err
		}

		order = Order{
			ID:             uuid.NewString(),
			ClientID:       client.ID,
			ClientName:     client.Name,
			IdempotencyKey: in.IdempotencyKey,
			CreatedAt:      s.now(),
			Items:          make([]OrderItem, 0, len(lines)),
		}

		for i, ln := range lines {
			p, err := s.Store.LockProduct(txCtx, ln.ProductID)
			if err != nil {
				return err
			}
			if ln.Quantity > p.Stock {
				return &InsufficientStockError{
					ProductID:   p.ID,
					ProductName: p.Name,
					Requested:   ln.Quantity,
					Available:   p.Stock,
				}
			}
			left, err := s.Store.AddStock(txCtx, p.ID, -ln.Quantity)
			if err != nil {
				return err
			}
			if left == 0 {
				p.Stock = 0
				depleted = append(depleted, p)
			}
			order.Items = append(order.Items, OrderItem{
				ID:          uuid.NewString(),
				OrderID:     order.ID,
				ProductID:   p.ID,
				ProductName: p.Name,
				Position:    i,
				Quantity:    ln.Quantity,
				PriceAtSale: p.Price,
			})
		}

		return s.Store.InsertOrder(txCtx, order)
	})
	if err != nil {
		return Order{}, false, nil, err
	}
	return order, replayed, depleted, nil
}

// DeleteOrder gives every line's quantity back to its product and removes
// the order together with its lines.
func (s *Service) DeleteOrder(ctx context.Context, id string) (Order, error) {
	var (
		order    Order
		restored []Product
	)
	err := s.Store.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.Store.LockOrder(txCtx, id)
		if err != nil {
			return err
		}
		restored = restored[:0]

		for _, it := range order.Items {
			left, err := s.Store.AddStock(txCtx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if left == it.Quantity {
				restored = append(restored, Product{ID: it.ProductID, Name: it.ProductName, Stock: left})
			}
		}
		return s.Store.DeleteOrder(txCtx, id)
	})
	if err != nil {
		return Order{}, err
	}

	s.log().WithFields(logrus.Fields{
		"order_id": order.ID,
		"items":    len(order.Items),
	}).Info("order deleted, stock restored")

	s.publishOrderRemoved(ctx, order)
	for _, p := range restored {
		s.publishStock(ctx, TopicStockRestored, EventStockRestored, p, order.ID)
	}
	return order, nil
}

// normalizeLines drops zero quantities and merges repeated products into the
// first line that mentions them. Quantities are bounded by the INTEGER column,
// merged totals included.
func normalizeLines(items []LineInput) ([]LineInput, error) {
	out := make([]LineInput, 0, len(items))
	idx := make(map[string]int, len(items))
	for _, it := range items {
		if it.Quantity < 0 || it.Quantity > maxLineQuantity {
			return nil, ErrInvalidQuantity
		}
		if it.Quantity == 0 {
			continue
		}
		if i, ok := idx[it.ProductID]; ok {
			if out[i].Quantity > maxLineQuantity-it.Quantity {
				return nil, ErrInvalidQuantity
			}
			out[i].Quantity += it.Quantity
			continue
		}
		idx[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out, nil
}
