package integration

import (
	"context"
	"testing"

	"github.com/Banshee-gtb/kate-aesthetics/internal/models"
	"github.com/Banshee-gtb/kate-aesthetics/internal/store"
)

func TestDashboardStats(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	empty, err := store.GetDashboardStats(ctx, db)
	if err != nil {
		t.Fatalf("Get dashboard stats: %v", err)
	}
	if empty.Products != 0 || empty.Orders != 0 || empty.Categories != 0 || empty.Customers != 0 {
		t.Errorf("Expected zero counts on a fresh store, got %+v", empty)
	}

	if _, err := store.CreateCategory(ctx, db, "Hair"); err != nil {
		t.Fatalf("Create category: %v", err)
	}
	seedProduct(t, db, "Silk Bonnet", 800, 0)
	seedProduct(t, db, "Edge Brush", 300, 0)

	shipped := seedOrder(t, db, "+233201111111", 800)
	seedOrder(t, db, "+233202222222", 300)
	if _, err := store.UpdateOrderStatus(ctx, db, shipped.ID, models.OrderStatusShipped); err != nil {
		t.Fatalf("Ship order: %v", err)
	}

	if _, err := store.UpsertProfile(ctx, db, "Ama", "+233201111111", "Accra"); err != nil {
		t.Fatalf("Upsert profile: %v", err)
	}

	stats, err := store.GetDashboardStats(ctx, db)
	if err != nil {
		t.Fatalf("Get dashboard stats: %v", err)
	}

	if stats.Products != 2 {
		t.Errorf("Expected 2 products, got %d", stats.Products)
	}
	if stats.Categories != 1 {
		t.Errorf("Expected 1 category, got %d", stats.Categories)
	}
	if stats.Orders != 2 {
		t.Errorf("Expected 2 orders, got %d", stats.Orders)
	}
	if stats.PendingOrders != 1 {
		t.Errorf("Expected 1 pending order, got %d", stats.PendingOrders)
	}
	if stats.Customers != 1 {
		t.Errorf("Expected 1 customer, got %d", stats.Customers)
	}
}
