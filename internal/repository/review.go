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

type pgReviewRepo struct{ pool *pgxpool.Pool }

func NewReviewRepository(pool *pgxpool.Pool) ReviewRepository {
	return &pgReviewRepo{pool: pool}
}

const reviewColumns = `id, product_id, user_id, name, rating, comment, images, reply, created_at, updated_at`

func scanReview(row pgx.Row) (*model.Review, error) {
	var (
		rv        model.Review
		productID uuid.NullUUID
		userID    uuid.NullUUID
	)
	err := row.Scan(&rv.ID, &productID, &userID, &rv.Name, &rv.Rating, &rv.Comment, &rv.Images, &rv.Reply,
		&rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if productID.Valid {
		rv.ProductID = &productID.UUID
	}
	if userID.Valid {
		rv.UserID = &userID.UUID
	}
	return &rv, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func (r *pgReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	rv.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO reviews (id, product_id, user_id, name, rating, comment, images, reply, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()) RETURNING created_at, updated_at`,
		rv.ID, nullUUID(rv.ProductID), nullUUID(rv.UserID), rv.Name, rv.Rating, rv.Comment, nonNil(rv.Images), rv.Reply,
	).Scan(&rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (r *pgReviewRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	rv, err := scanReview(r.pool.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return rv, nil
}

func (r *pgReviewRepo) List(ctx context.Context) ([]model.Review, error) {
	return r.query(ctx, `SELECT `+reviewColumns+` FROM reviews ORDER BY created_at DESC`)
}

func (r *pgReviewRepo) ListGeneral(ctx context.Context) ([]model.Review, error) {
	return r.query(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE product_id IS NULL ORDER BY created_at DESC`)
}

func (r *pgReviewRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Review, error) {
	return r.query(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE product_id = $1 ORDER BY created_at DESC`, productID)
}

func (r *pgReviewRepo) query(ctx context.Context, query string, args ...any) ([]model.Review, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, *rv)
	}
	return reviews, rows.Err()
}

func (r *pgReviewRepo) Update(ctx context.Context, rv *model.Review) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE reviews SET rating = $2, comment = $3, images = $4, reply = $5, updated_at = NOW()
		 WHERE id = $1 RETURNING updated_at`,
		rv.ID, rv.Rating, rv.Comment, nonNil(rv.Images), rv.Reply,
	).Scan(&rv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update review: %w", err)
	}
	return nil
}

func (r *pgReviewRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
