package database

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"
)

// DB is a global variable to hold the database connection pool.
var DB *pgxpool.Pool

// Connect sets up the database connection pool and makes sure the forecast table exists.
func Connect(ctx context.Context, databaseURL string) error {
	pool, err := pgxpool.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return fmt.Errorf("migrate demand_forecasts: %w", err)
	}

	DB = pool
	log.Println("Successfully connected to the database")
	return nil
}

// GetDB returns the global pool.
func GetDB() *pgxpool.Pool {
	return DB
}

// Close closes the database connection pool.
func Close() {
	if DB != nil {
		DB.Close()
		log.Println("Database connection pool closed")
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS demand_forecasts (
	id               UUID PRIMARY KEY,
	merchant_id      UUID NOT NULL,
	product_id       UUID NOT NULL REFERENCES inventory_items(id) ON DELETE CASCADE,
	predicted_demand INTEGER NOT NULL,
	confidence_score DOUBLE PRECISION,
	forecast_date    DATE NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_demand_forecasts_merchant_product
	ON demand_forecasts (merchant_id, product_id, created_at DESC);
`
