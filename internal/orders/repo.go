package orders

import (
	"context"
	"errors"
	"fmt"
	"github.com/ariefcatur/go-stock-orders/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the Postgres Store.
type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

func (r *Repo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return postgres.WithTx(ctx, r.DB, fn)
}

func (r *Repo) q(ctx context.Context) postgres.Querier { return postgres.Conn(ctx, r.DB) }

func (r *Repo) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := r.q(ctx).QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM products),
		       (SELECT COUNT(*) FROM clients),
		       (SELECT COUNT(*) FROM orders)`).Scan(&c.Products, &c.Clients, &c.Orders)
	if err != nil {
		return Counts{}, fmt.Errorf("counts: %w", err)
	}
	return c, nil
}

// ListOrders returns orders newest first, each with its lines.
func (r *Repo) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT o.id, o.client_id, c.name, COALESCE(o.idempotency_key, ''), o.created_at
		FROM orders o JOIN clients c ON c.id = o.client_id
		ORDER BY o.created_at DESC, o.id`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Order, error) {
		o := Order{Items: []OrderItem{}}
		err := row.Scan(&o.ID, &o.ClientID, &o.ClientName, &o.IdempotencyKey, &o.CreatedAt)
		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(out))
	byID := make(map[string]int, len(out))
	for i, o := range out {
		ids = append(ids, o.ID)
		byID[o.ID] = i
	}
	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		i := byID[it.OrderID]
		out[i].Items = append(out[i].Items, it)
	}
	return out, nil
}

func (r *Repo) GetOrder(ctx context.Context, id string) (Order, error) {
	return r.getOrder(ctx, id, false)
}

// LockOrder loads the order and holds its row until the transaction ends.
func (r *Repo) LockOrder(ctx context.Context, id string) (Order, error) {
	return r.getOrder(ctx, id, true)
}

func (r *Repo) getOrder(ctx context.Context, id string, forUpdate bool) (Order, error) {
	sql := `
		SELECT o.id, o.client_id, c.name, COALESCE(o.idempotency_key, ''), o.created_at
		FROM orders o JOIN clients c ON c.id = o.client_id
		WHERE o.id = $1`
	if forUpdate {
		sql += ` FOR UPDATE OF o`
	}

	var o Order
	err := r.q(ctx).QueryRow(ctx, sql, id).Scan(&o.ID, &o.ClientID, &o.ClientName, &o.IdempotencyKey, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || postgres.IsInvalidText(err) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}

	o.Items, err = r.itemsFor(ctx, []string{o.ID})
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *Repo) itemsFor(ctx context.Context, orderIDs []string) ([]OrderItem, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT i.id, i.order_id, i.product_id, p.name, i.position, i.quantity, i.price_at_sale
		FROM order_items i JOIN products p ON p.id = i.product_id
		WHERE i.order_id = ANY($1::text[]::uuid[])
		ORDER BY i.order_id, i.position`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (OrderItem, error) {
		var it OrderItem
		err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Position, &it.Quantity, &it.PriceAtSale)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return items, nil
}

// ClaimIdempotencyKey takes a transaction-scoped advisory lock on the key, so
// a concurrent request with the same key waits here until the first one
// commits or rolls back, then sees its order. Call it inside WithTx.
func (r *Repo) ClaimIdempotencyKey(ctx context.Context, key string) (string, bool, error) {
	q := r.q(ctx)
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return "", false, fmt.Errorf("lock idempotency key: %w", err)
	}
	var id string
	err := q.QueryRow(ctx, `SELECT id FROM orders WHERE idempotency_key = $1`, key).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find idempotency key: %w", err)
	}
	return id, true, nil
}

// InsertOrder writes the order and its lines; call it inside WithTx.
func (r *Repo) InsertOrder(ctx context.Context, o Order) error {
	q := r.q(ctx)
	_, err := q.Exec(ctx, `
		INSERT INTO orders(id, client_id, idempotency_key, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4)`, o.ID, o.ClientID, o.IdempotencyKey, o.CreatedAt)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return ErrClientNotFound
		}
		if postgres.IsUniqueViolation(err) {
			return errIdempotencyKeyTaken
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		_, err = q.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, position, quantity, price_at_sale)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			it.ID, o.ID, it.ProductID, it.Position, it.Quantity, it.PriceAtSale,
		)
		if err != nil {
			if postgres.IsForeignKeyViolation(err) {
				return ErrProductNotFound
			}
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

// DeleteOrder removes the order; its lines go with it (ON DELETE CASCADE).
func (r *Repo) DeleteOrder(ctx context.Context, id string) error {
	ct, err := r.q(ctx).Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		if postgres.IsInvalidText(err) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("delete order: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}
