package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Banshee-gtb/kate-aesthetics/internal/models"
)

// DashboardStats are the entity counts shown on the back-office landing
// page.
type DashboardStats struct {
	Products      int64 `json:"products"`
	Categories    int64 `json:"categories"`
	Orders        int64 `json:"orders"`
	PendingOrders int64 `json:"pending_orders"`
	Customers     int64 `json:"customers"`
}

// GetDashboardStats counts every entity in one round trip.
func GetDashboardStats(ctx context.Context, db *sql.DB) (*DashboardStats, error) {
	stats := &DashboardStats{}

	err := db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM categories),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM orders WHERE status = $1),
			(SELECT COUNT(*) FROM profiles)`,
		models.OrderStatusPending).Scan(
		&stats.Products,
		&stats.Categories,
		&stats.Orders,
		&stats.PendingOrders,
		&stats.Customers,
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}

	return stats, nil
}
