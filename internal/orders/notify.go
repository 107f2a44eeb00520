package orders

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

type traceKey struct{}

// WithTraceID attaches the request id so published envelopes carry it.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

func traceID(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}

func (s *Service) envelope(ctx context.Context, eventType, correlationID string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    s.now(),
		Producer:      s.Producer,
		TraceID:       traceID(ctx),
		CorrelationID: correlationID,
		Payload:       b,
	}, nil
}

// publish dipanggil setelah commit; gagal publish tidak membatalkan order.
func (s *Service) publish(ctx context.Context, topic, eventType, key string, payload any) {
	if s.Events == nil {
		return
	}
	env, err := s.envelope(ctx, eventType, key, payload)
	if err != nil {
		s.log().WithError(err).WithField("event_type", eventType).Error("encode event")
		return
	}
	s.Events.PublishJSON(topic, PartitionKey(key), eventType, env)
}

func (s *Service) publishOrderPlaced(ctx context.Context, o Order) {
	items := make([]ItemPrice, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemPrice{ProductID: it.ProductID, Qty: it.Quantity, Price: it.PriceAtSale})
	}
	s.publish(ctx, TopicOrderPlaced, EventOrderPlaced, o.ID, OrderPlacedPayload{
		OrderID:  o.ID,
		ClientID: o.ClientID,
		Items:    items,
		Total:    o.Total(),
	})
}

func (s *Service) publishOrderRemoved(ctx context.Context, o Order) {
	items := make([]ItemQty, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemQty{ProductID: it.ProductID, Qty: it.Quantity})
	}
	s.publish(ctx, TopicOrderRemoved, EventOrderRemoved, o.ID, OrderRemovedPayload{
		OrderID:  o.ID,
		Restored: items,
	})
}

func (s *Service) publishStock(ctx context.Context, topic, eventType string, p Product, orderID string) {
	s.publish(ctx, topic, eventType, p.ID, StockLevelPayload{
		ProductID:   p.ID,
		ProductName: p.Name,
		Stock:       p.Stock,
		OrderID:     orderID,
	})
}
