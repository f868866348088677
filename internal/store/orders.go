package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Banshee-gtb/kate-aesthetics/internal/database"
	"github.com/Banshee-gtb/kate-aesthetics/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, customer_name, customer_phone, customer_address, amount_paid, payment_method, paystack_reference, status, created_at, updated_at`

type CreateOrderRequest struct {
	CustomerName      string
	CustomerPhone     string
	CustomerAddress   string
	AmountPaid        decimal.Decimal
	PaymentMethod     string
	PaystackReference string
	Items             []OrderItemRequest
}

type OrderItemRequest struct {
	ProductID string
	VariantID string
	Quantity  int
	Price     decimal.Decimal
}

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	order := &models.Order{}
	var reference sql.NullString

	err := row.Scan(
		&order.ID,
		&order.CustomerName,
		&order.CustomerPhone,
		&order.CustomerAddress,
		&order.AmountPaid,
		&order.PaymentMethod,
		&reference,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	order.PaystackReference = reference.String
	return order, nil
}

// CreateOrder inserts the order and its items in one transaction. Item
// prices come from the caller's cart snapshots, not a catalog lookup, so the
// customer pays what they saw.
func CreateOrder(ctx context.Context, db *sql.DB, req CreateOrderRequest) (*models.Order, error) {
	var order *models.Order

	err := database.WithRetry(ctx, db, database.TxOptions{
		IsolationLevel: sql.LevelReadCommitted,
		MaxRetries:     3,
	}, func(tx *sql.Tx) error {
		created, err := scanOrder(tx.QueryRowContext(ctx,
			`INSERT INTO orders (id, customer_name, customer_phone, customer_address, amount_paid, payment_method, paystack_reference, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, NOW(), NOW())
			 RETURNING `+orderColumns,
			uuid.NewString(), req.CustomerName, req.CustomerPhone, req.CustomerAddress,
			req.AmountPaid, req.PaymentMethod, req.PaystackReference, models.OrderStatusPending))
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		items := make([]models.OrderItem, 0, len(req.Items))
		for _, item := range req.Items {
			var orderItem models.OrderItem
			err := tx.QueryRowContext(ctx,
				`INSERT INTO order_items (id, order_id, product_id, variant_id, quantity, price, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, NOW())
				 RETURNING id, order_id, product_id, variant_id, quantity, price, created_at`,
				uuid.NewString(), created.ID, item.ProductID, item.VariantID, item.Quantity, item.Price,
			).Scan(
				&orderItem.ID,
				&orderItem.OrderID,
				&orderItem.ProductID,
				&orderItem.VariantID,
				&orderItem.Quantity,
				&orderItem.Price,
				&orderItem.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
			items = append(items, orderItem)
		}

		created.Items = items
		order = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

func GetOrder(ctx context.Context, db *sql.DB, id string) (*models.Order, error) {
	order, err := scanOrder(db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, order_id, product_id, variant_id, quantity, price, created_at
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY created_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.VariantID,
			&item.Quantity,
			&item.Price,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	order.Items = items
	return order, nil
}

// ListOrdersCursor pages the admin order list newest-first.
func ListOrdersCursor(ctx context.Context, db *sql.DB, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE (created_at, id) < ($1, $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	rows, err := db.QueryContext(ctx, query, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		last := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

var orderTransitions = map[string][]string{
	models.OrderStatusPending: {models.OrderStatusPaid, models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusPaid:    {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped: {models.OrderStatusCompleted},
}

// UpdateOrderStatus applies an admin status transition. Completed and
// cancelled orders are terminal. The order row is locked for the duration so
// two admins cannot race each other through the transition table.
func UpdateOrderStatus(ctx context.Context, db *sql.DB, id, status string) (*models.Order, error) {
	var order *models.Order

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		current, err := scanOrder(tx.QueryRowContext(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		allowed := false
		for _, next := range orderTransitions[current.Status] {
			if next == status {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: %s -> %s", database.ErrInvalidStatus, current.Status, status)
		}

		updated, err := scanOrder(tx.QueryRowContext(ctx,
			`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING `+orderColumns,
			id, status))
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		order = updated
		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}
