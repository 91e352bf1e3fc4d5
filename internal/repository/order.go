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

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

const orderColumns = `id, user_id, total_amount, shipping_address, payment_status, order_status,
	transaction_id, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	o := &model.Order{}
	err := row.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.ShippingAddress, &o.PaymentStatus, &o.OrderStatus,
		&o.TransactionID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *pgOrderRepo) Create(ctx context.Context, order *model.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	order.ID = uuid.New()
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, total_amount, shipping_address, payment_status, order_status,
		 transaction_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW()) RETURNING created_at, updated_at`,
		order.ID, order.UserID, order.TotalAmount, order.ShippingAddress, order.PaymentStatus, order.OrderStatus,
		order.TransactionID,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, item := range order.Items {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (order_id, position, product_id, quantity, price) VALUES ($1, $2, $3, $4, $5)`,
			order.ID, i, item.ProductID, item.Quantity, item.Price,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	orders := []model.Order{*o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *pgOrderRepo) List(ctx context.Context) ([]model.Order, error) {
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *pgOrderRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return r.query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *pgOrderRepo) ListContainingProducts(ctx context.Context, productIDs []uuid.UUID) ([]model.Order, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	return r.query(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE id IN (SELECT order_id FROM order_items WHERE product_id = ANY($1))
		 ORDER BY created_at DESC`, productIDs)
}

func (r *pgOrderRepo) query(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *pgOrderRepo) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	index := make(map[uuid.UUID]int, len(orders))
	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		index[o.ID] = i
		ids[i] = o.ID
	}

	rows, err := r.pool.Query(ctx,
		`SELECT order_id, product_id, quantity, price FROM order_items
		 WHERE order_id = ANY($1) ORDER BY order_id, position`, ids)
	if err != nil {
		return fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID uuid.UUID
			item    model.OrderItem
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		i := index[orderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return rows.Err()
}

func (r *pgOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET order_status = $3, updated_at = NOW() WHERE id = $1 AND order_status = $2`,
		id, from, to,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return r.checkSwapped(ctx, id, ct.RowsAffected())
}

func (r *pgOrderRepo) UpdatePayment(ctx context.Context, id uuid.UUID, from, to model.PaymentStatus, transactionID string) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET payment_status = $3, transaction_id = COALESCE(NULLIF($4, ''), transaction_id), updated_at = NOW()
		 WHERE id = $1 AND payment_status = $2`,
		id, from, to, transactionID,
	)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	return r.checkSwapped(ctx, id, ct.RowsAffected())
}

// checkSwapped tells a missing order apart from one whose status moved on.
func (r *pgOrderRepo) checkSwapped(ctx context.Context, id uuid.UUID, affected int64) error {
	if affected > 0 {
		return nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check order: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStaleState
}

func (r *pgOrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
