package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nilantra/furniture-api/internal/model"
)

type pgCartRepo struct{ pool *pgxpool.Pool }

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &pgCartRepo{pool: pool}
}

func (r *pgCartRepo) Get(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart := &model.Cart{}
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, created_at, updated_at FROM carts WHERE user_id = $1`, userID,
	).Scan(&cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT product_id, quantity FROM cart_items WHERE user_id = $1 ORDER BY added_at, product_id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.LineItem
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	return cart, rows.Err()
}

// AddItem creates the cart on first use and merges quantities per product
// inside one transaction.
func (r *pgCartRepo) AddItem(ctx context.Context, userID uuid.UUID, item model.LineItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO carts (user_id, created_at, updated_at) VALUES ($1, NOW(), NOW())
		 ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()`, userID,
	)
	if err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO cart_items (user_id, product_id, quantity, added_at) VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		userID, item.ProductID, item.Quantity,
	)
	if err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *pgCartRepo) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE carts SET updated_at = NOW() WHERE user_id = $1`, userID,
	)
	if err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	_, err = r.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID,
	)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

func (r *pgCartRepo) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	_, err = r.pool.Exec(ctx, `UPDATE carts SET updated_at = NOW() WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}
	return nil
}
