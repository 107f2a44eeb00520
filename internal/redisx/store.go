package redisx

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Store wraps the keys the API uses. Redis is a shortcut only; every failure
// is logged and treated as a miss so the database stays the source of truth.
type Store struct {
	rdb    *redis.Client
	logger *logrus.Logger
}

func NewStore(rdb *redis.Client, logger *logrus.Logger) *Store {
	return &Store{rdb: rdb, logger: logger}
}

func (s *Store) get(ctx context.Context, key string) (string, bool) {
	v, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.WithError(err).WithField("key", key).Warn("redis get")
		}
		return "", false
	}
	return v, true
}

func (s *Store) GetOrder(ctx context.Context, orderID string) ([]byte, bool) {
	v, ok := s.get(ctx, fmt.Sprintf(KeyOrder, orderID))
	return []byte(v), ok
}

func (s *Store) PutOrder(ctx context.Context, orderID string, body []byte) {
	if err := s.rdb.Set(ctx, fmt.Sprintf(KeyOrder, orderID), body, TTLOrderCache).Err(); err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Warn("redis cache order")
	}
}

func (s *Store) DropOrder(ctx context.Context, orderID string) {
	if err := s.rdb.Del(ctx, fmt.Sprintf(KeyOrder, orderID)).Err(); err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Warn("redis evict order")
	}
}

func (s *Store) IdempotentOrderID(ctx context.Context, key string) (string, bool) {
	return s.get(ctx, fmt.Sprintf(KeyIdemOrderCreate, key))
}

func (s *Store) RememberIdempotent(ctx context.Context, key, orderID string) {
	if err := s.rdb.Set(ctx, fmt.Sprintf(KeyIdemOrderCreate, key), orderID, TTLIdempotency).Err(); err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Warn("redis idempotency")
	}
}

// FirstSeen marks eventID as processed by service and reports whether this is
// the first time it was seen.
func FirstSeen(ctx context.Context, rdb *redis.Client, service, eventID string) (bool, error) {
	return rdb.SetNX(ctx, fmt.Sprintf(KeyDedup, service, eventID), "1", TTLDedup).Result()
}

// Forget drops the dedup marker so a failed event can be retried.
func Forget(ctx context.Context, rdb *redis.Client, service, eventID string) error {
	return rdb.Del(ctx, fmt.Sprintf(KeyDedup, service, eventID)).Err()
}
