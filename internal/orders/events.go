package orders

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced   = "OrderPlaced"
	EventOrderRemoved  = "OrderRemoved"
	EventStockDepleted = "StockDepleted"
	EventStockRestored = "StockRestored"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"` // e.g., "stock-orders"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id atau product_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload tipe per event ----

type ItemQty struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type ItemPrice struct {
	ProductID string          `json:"product_id"`
	Qty       int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
}

type OrderPlacedPayload struct {
	OrderID  string          `json:"order_id"`
	ClientID string          `json:"client_id"`
	Items    []ItemPrice     `json:"items"`
	Total    decimal.Decimal `json:"total"`
}

type OrderRemovedPayload struct {
	OrderID  string    `json:"order_id"`
	Restored []ItemQty `json:"restored"`
}

type StockLevelPayload struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Stock       int    `json:"stock"`
	OrderID     string `json:"order_id,omitempty"` // order yang memicu perubahan
}
