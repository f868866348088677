package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/Banshee-gtb/kate-aesthetics/internal/models"
	"github.com/Banshee-gtb/kate-aesthetics/internal/store"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	dbUser = "kate"
	dbPass = "katepass"
	dbName = "kate_store_test"
)

// setupTestDB starts a throwaway Postgres container with the storefront
// schema applied.
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     dbUser,
			"POSTGRES_PASSWORD": dbPass,
			"POSTGRES_DB":       dbName,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPass, host, port.Port(), dbName)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	if err := applySchema(db); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Logf("Failed to close database: %v", err)
		}
		if err := postgres.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

func applySchema(db *sql.DB) error {
	migrationDir := "../../migrations"
	entries, err := os.ReadDir(migrationDir)
	if err != nil {
		return fmt.Errorf("read migration directory: %w", err)
	}

	var ups []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".up.sql") {
			ups = append(ups, entry.Name())
		}
	}
	sort.Strings(ups)

	for _, filename := range ups {
		content, err := os.ReadFile(filepath.Join(migrationDir, filename))
		if err != nil {
			return fmt.Errorf("read migration file %s: %w", filename, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("execute migration %s: %w", filename, err)
		}
	}

	return nil
}

// seedProduct inserts an active product with sensible defaults for tests
// that only care about having something in the catalog.
func seedProduct(t *testing.T, db *sql.DB, title string, basePrice, shippingFee int64) *models.Product {
	t.Helper()

	product, err := store.CreateProduct(context.Background(), db, models.Product{
		Title:       title,
		IsActive:    true,
		BasePrice:   decimal.NewFromInt(basePrice),
		ShippingFee: decimal.NewFromInt(shippingFee),
	})
	if err != nil {
		t.Fatalf("Seed product %s: %v", title, err)
	}

	return product
}

// seedOrder inserts a pending order with a single line item.
func seedOrder(t *testing.T, db *sql.DB, phone string, amount int64) *models.Order {
	t.Helper()

	order, err := store.CreateOrder(context.Background(), db, store.CreateOrderRequest{
		CustomerName:    "Customer",
		CustomerPhone:   phone,
		CustomerAddress: "Accra",
		AmountPaid:      decimal.NewFromInt(amount),
		PaymentMethod:   models.PaymentMethodPaystack,
		Items: []store.OrderItemRequest{
			{ProductID: "p1", VariantID: "v1", Quantity: 1, Price: decimal.NewFromInt(amount)},
		},
	})
	if err != nil {
		t.Fatalf("Seed order for %s: %v", phone, err)
	}

	return order
}
