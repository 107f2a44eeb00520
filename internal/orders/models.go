package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"` // hanya berubah lewat create/delete order
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Order struct {
	ID             string      `json:"id"`
	ClientID       string      `json:"client_id"`
	ClientName     string      `json:"client_name"`
	IdempotencyKey string      `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	Items          []OrderItem `json:"items"`
}

// Total is the sum of the line subtotals.
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// OrderItem is one line of an order. PriceAtSale is copied from the product
// when the order is created and is never updated afterwards.
type OrderItem struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Position    int             `json:"position"`
	Quantity    int             `json:"quantity"`
	PriceAtSale decimal.Decimal `json:"price_at_sale"`
}

func (it OrderItem) Subtotal() decimal.Decimal {
	return it.PriceAtSale.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

type Counts struct {
	Products int `json:"products"`
	Clients  int `json:"clients"`
	Orders   int `json:"orders"`
}

// Input dari handler (JSON atau form).

type ProductInput struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// ProductUpdate carries the editable fields; stock is not one of them.
type ProductUpdate struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type ClientInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type LineInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderInput is the order request. IdempotencyKey comes from the
// Idempotency-Key header, never from the body.
type CreateOrderInput struct {
	ClientID       string      `json:"client_id"`
	Items          []LineInput `json:"items"`
	IdempotencyKey string      `json:"-"`
}

// OrderForm is what a caller needs to build a new order.
type OrderForm struct {
	Clients  []Client  `json:"clients"`
	Products []Product `json:"products"`
}
