package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"meal-kart/internal/config"
	"meal-kart/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, a connection pool and
// the application schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	logger := zerolog.Nop()
	pool, err := database.NewPoolFromURL(ctx, connStr, dbConfig, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedCatalogue inserts test products, meals and a Monday menu.
func SeedCatalogue(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	products := []struct {
		id    string
		name  string
		price string
	}{
		{"P001", "Protein Bar", "10.00"},
		{"P002", "Cold Brew", "20.00"},
		{"P003", "Granola Jar", "30.00"},
		{"P004", "Electrolyte Pack", "40.00"},
		{"P005", "Meal Prep Bag", "50.00"},
	}
	for _, p := range products {
		_, err := pool.Exec(ctx,
			"INSERT INTO products (id, name, price, stock) VALUES ($1, $2, $3::numeric, 100)",
			p.id, p.name, p.price,
		)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.id, err)
		}
	}

	meals := []struct {
		id        string
		name      string
		available bool
	}{
		{"M001", "Chicken Bowl", true},
		{"M002", "Salmon Quinoa", true},
		{"M003", "Lentil Soup", true},
		{"M004", "Turkey Wrap", false},
	}
	for _, m := range meals {
		_, err := pool.Exec(ctx,
			"INSERT INTO meals (id, name, available, price) VALUES ($1, $2, $3, 25)",
			m.id, m.name, m.available,
		)
		if err != nil {
			t.Fatalf("failed to seed meal %s: %v", m.id, err)
		}
	}

	if _, err := pool.Exec(ctx,
		"INSERT INTO schedule_days (day, meals) VALUES ('Monday', ARRAY['M001','M002','M003'])",
	); err != nil {
		t.Fatalf("failed to seed schedule: %v", err)
	}
}

// CleanupDB cleans all data from test tables, children first.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{
		"cart_items", "carts", "plan_requests", "transactions", "order_items",
		"orders", "plans", "schedule_days", "meals", "products", "users",
	}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
