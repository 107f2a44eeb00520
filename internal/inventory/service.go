package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	kafkax "github.com/ariefcatur/go-stock-orders/internal/kafka"
	"github.com/ariefcatur/go-stock-orders/internal/orders"
	"github.com/ariefcatur/go-stock-orders/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Topics the alert worker subscribes to.
var Topics = []string{orders.TopicStockDepleted, orders.TopicStockRestored}

type Service struct {
	Redis       *redis.Client // nil = tanpa dedup
	Logger      *logrus.Logger
	ServiceName string
}

// HandleStockEvent: dipasang sebagai handler consumer. Event yang sama hanya
// diproses sekali (dedup by event_id di Redis).
func (s *Service) HandleStockEvent(ctx context.Context, m kafkago.Message) error {
	// 1) decode envelope
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return kafkax.Permanent(fmt.Errorf("decode envelope: %w", err))
	}
	if env.EventType != orders.EventStockDepleted && env.EventType != orders.EventStockRestored {
		return nil // ignore
	}

	// 2) dedup via Redis
	if s.Redis != nil {
		first, err := redisx.FirstSeen(ctx, s.Redis, s.ServiceName, env.EventID)
		if err != nil {
			return fmt.Errorf("dedup: %w", err)
		}
		if !first {
			s.Logger.WithField("event_id", env.EventID).Debug("duplicate stock event skipped")
			return nil
		}
	}

	// 3) decode payload
	p, err := kafkax.UnwrapPayload[orders.StockLevelPayload](env.Payload)
	if err != nil {
		if s.Redis != nil {
			_ = redisx.Forget(ctx, s.Redis, s.ServiceName, env.EventID)
		}
		return kafkax.Permanent(err)
	}

	entry := s.Logger.WithFields(logrus.Fields{
		"event_id":   env.EventID,
		"product_id": p.ProductID,
		"product":    p.ProductName,
		"stock":      p.Stock,
		"order_id":   p.OrderID,
		"trace_id":   env.TraceID,
	})
	if env.EventType == orders.EventStockDepleted {
		entry.Warn("product out of stock")
	} else {
		entry.Info("product back in stock")
	}
	return nil
}
