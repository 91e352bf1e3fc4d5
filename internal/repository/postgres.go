package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// ApplySchema creates the tables if they do not exist. Safe to run on every start.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func NewPostgresRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Users:    NewUserRepository(pool),
		Products: NewProductRepository(pool),
		Carts:    NewCartRepository(pool),
		Orders:   NewOrderRepository(pool),
		Reviews:  NewReviewRepository(pool),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
