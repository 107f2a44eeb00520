package orders

import (
	"context"
	"errors"
	"fmt"
	"github.com/ariefcatur/go-stock-orders/internal/postgres"
	"github.com/jackc/pgx/v5"
)

// LockProduct: lock baris product (FOR UPDATE) sampai transaksi selesai, jadi
// stok yang dibaca tidak berubah sebelum dikurangi.
func (r *Repo) LockProduct(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.q(ctx).QueryRow(ctx, `
		SELECT id, name, price, stock, created_at, updated_at
		FROM products WHERE id = $1 FOR UPDATE`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || postgres.IsInvalidText(err) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("lock product: %w", err)
	}
	return p, nil
}

// AddStock applies delta (negative to take, positive to give back) and
// returns the new stock. An update that would go below zero fails the
// CHECK (stock >= 0) constraint and maps to ErrInsufficientStock.
func (r *Repo) AddStock(ctx context.Context, productID string, delta int) (int, error) {
	var stock int
	err := r.q(ctx).QueryRow(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING stock`, productID, delta).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || postgres.IsInvalidText(err) {
			return 0, ErrProductNotFound
		}
		if postgres.IsCheckViolation(err) {
			return 0, ErrInsufficientStock
		}
		return 0, fmt.Errorf("adjust stock: %w", err)
	}
	return stock, nil
}
