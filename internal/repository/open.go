package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/nilantra/furniture-api/internal/config"
)

// Store is an open backend with its repositories.
type Store struct {
	Repositories
	Driver string
	Ping   func(ctx context.Context) error
	Close  func(ctx context.Context) error
}

// Open connects to the backend selected by STORE_DRIVER and prepares its
// indexes or schema.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg.DB)
	case config.DriverMongo:
		return openMongo(ctx, cfg.Mongo)
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
}

func openMongo(ctx context.Context, cfg config.MongoConfig) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(cfg.Database)
	if err := EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &Store{
		Repositories: NewMongoRepositories(db),
		Driver:       config.DriverMongo,
		Ping:         func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
		Close:        client.Disconnect,
	}, nil
}

func openPostgres(ctx context.Context, cfg config.DBConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := ApplySchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{
		Repositories: NewPostgresRepositories(pool),
		Driver:       config.DriverPostgres,
		Ping:         pool.Ping,
		Close: func(context.Context) error {
			pool.Close()
			return nil
		},
	}, nil
}
