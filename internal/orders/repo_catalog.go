package orders

import (
	"context"
	"errors"
	"fmt"
	"github.com/ariefcatur/go-stock-orders/internal/postgres"
	"github.com/jackc/pgx/v5"
)

func (r *Repo) ListProducts(ctx context.Context, inStockOnly bool) ([]Product, error) {
	sql := `SELECT id, name, price, stock, created_at, updated_at FROM products`
	if inStockOnly {
		sql += ` WHERE stock > 0`
	}
	sql += ` ORDER BY name, id`

	rows, err := r.q(ctx).Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) GetProduct(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.q(ctx).QueryRow(ctx, `
		SELECT id, name, price, stock, created_at, updated_at
		FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || postgres.IsInvalidText(err) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *Repo) InsertProduct(ctx context.Context, p Product) error {
	_, err := r.q(ctx).Exec(ctx, `
		INSERT INTO products(id, name, price, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.Price, p.Stock, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if postgres.IsNumericOutOfRange(err) {
			return ErrInvalidPrice
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// UpdateProduct writes name and price only; stock has its own path (AddStock).
func (r *Repo) UpdateProduct(ctx context.Context, p Product) error {
	ct, err := r.q(ctx).Exec(ctx, `
		UPDATE products SET name = $2, price = $3, updated_at = $4
		WHERE id = $1`, p.ID, p.Name, p.Price, p.UpdatedAt)
	if err != nil {
		if postgres.IsNumericOutOfRange(err) {
			return ErrInvalidPrice
		}
		return fmt.Errorf("update product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *Repo) DeleteProduct(ctx context.Context, id string) error {
	ct, err := r.q(ctx).Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return ErrProductInUse
		}
		if postgres.IsInvalidText(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *Repo) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := r.q(ctx).Query(ctx, `SELECT id, name, email, created_at FROM clients ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	out := []Client{}
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) GetClient(ctx context.Context, id string) (Client, error) {
	var c Client
	err := r.q(ctx).QueryRow(ctx, `SELECT id, name, email, created_at FROM clients WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || postgres.IsInvalidText(err) {
			return Client{}, ErrClientNotFound
		}
		return Client{}, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

func (r *Repo) InsertClient(ctx context.Context, c Client) error {
	_, err := r.q(ctx).Exec(ctx, `
		INSERT INTO clients(id, name, email, created_at)
		VALUES ($1, $2, $3, $4)`, c.ID, c.Name, c.Email, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (r *Repo) UpdateClient(ctx context.Context, c Client) error {
	ct, err := r.q(ctx).Exec(ctx, `UPDATE clients SET name = $2, email = $3 WHERE id = $1`, c.ID, c.Name, c.Email)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

func (r *Repo) DeleteClient(ctx context.Context, id string) error {
	ct, err := r.q(ctx).Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return ErrClientHasOrders
		}
		if postgres.IsInvalidText(err) {
			return ErrClientNotFound
		}
		return fmt.Errorf("delete client: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}
