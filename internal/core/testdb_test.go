package core_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	schema, err := os.ReadFile("../../migrations/001_init.sql")
	if err != nil {
		t.Fatalf("Failed to read schema: %v", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}

	// Clean and seed: a small catalog plus one project.
	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE stock_movements, invoice_lines, invoices, projects, materials RESTART IDENTITY CASCADE;

		INSERT INTO materials (sku, name, unit, current_stock, minimum_stock) VALUES
		('PV-450', 'Panou fotovoltaic 450W', 'buc', 20, 5),
		('INV8K', 'Invertor hibrid 8kW', 'buc', 2, 1),
		('CS6', 'Cablu solar 6mm', 'm', 100, 50);

		INSERT INTO projects (name, client_name, status) VALUES
		('Casa Popescu 10kW', 'Ion Popescu', 'ACTIVE');
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}

func materialStock(t *testing.T, pool *pgxpool.Pool, id int) decimal.Decimal {
	t.Helper()
	var stock decimal.Decimal
	err := pool.QueryRow(context.Background(),
		`SELECT current_stock FROM materials WHERE id = $1`, id).Scan(&stock)
	if err != nil {
		t.Fatalf("Failed to read stock for material %d: %v", id, err)
	}
	return stock
}

func countMovements(t *testing.T, pool *pgxpool.Pool) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(context.Background(),
		`SELECT count(*) FROM stock_movements`).Scan(&n); err != nil {
		t.Fatalf("Failed to count movements: %v", err)
	}
	return n
}
