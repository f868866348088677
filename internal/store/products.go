package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Banshee-gtb/kate-aesthetics/internal/database"
	"github.com/Banshee-gtb/kate-aesthetics/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const productColumns = `id, title, description, category_id, tags, images, is_active, base_price, shipping_fee, created_at, updated_at`

// ProductFilter narrows storefront and admin listings.
type ProductFilter struct {
	CategoryID string
	Search     string
	ActiveOnly bool
}

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	product := &models.Product{}
	var categoryID sql.NullString

	err := row.Scan(
		&product.ID,
		&product.Title,
		&product.Description,
		&categoryID,
		pq.Array(&product.Tags),
		pq.Array(&product.Images),
		&product.IsActive,
		&product.BasePrice,
		&product.ShippingFee,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	product.CategoryID = categoryID.String
	return product, nil
}

func CreateProduct(ctx context.Context, db *sql.DB, p models.Product) (*models.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	query := `
		INSERT INTO products (id, title, description, category_id, tags, images, is_active, base_price, shipping_fee, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING ` + productColumns

	created, err := scanProduct(db.QueryRowContext(ctx, query,
		p.ID, p.Title, p.Description, p.CategoryID,
		pq.Array(p.Tags), pq.Array(p.Images),
		p.IsActive, p.BasePrice, p.ShippingFee))
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return created, nil
}

func GetProduct(ctx context.Context, db *sql.DB, id string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// GetProductWithVariants loads a product plus its purchasable variants,
// synthesizing the default variant when none are persisted.
func GetProductWithVariants(ctx context.Context, db *sql.DB, id string) (*models.ProductWithVariants, error) {
	product, err := GetProduct(ctx, db, id)
	if err != nil {
		return nil, err
	}

	variants, err := ListVariants(ctx, db, *product)
	if err != nil {
		return nil, err
	}

	result := &models.ProductWithVariants{Product: *product, Variants: variants}

	if product.CategoryID != "" {
		category, err := GetCategory(ctx, db, product.CategoryID)
		if err != nil && err != database.ErrCategoryNotFound {
			return nil, err
		}
		result.Category = category
	}

	return result, nil
}

func UpdateProduct(ctx context.Context, db *sql.DB, p models.Product) (*models.Product, error) {
	query := `
		UPDATE products
		SET title = $2,
		    description = $3,
		    category_id = NULLIF($4, ''),
		    tags = $5,
		    images = $6,
		    is_active = $7,
		    base_price = $8,
		    shipping_fee = $9,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	updated, err := scanProduct(db.QueryRowContext(ctx, query,
		p.ID, p.Title, p.Description, p.CategoryID,
		pq.Array(p.Tags), pq.Array(p.Images),
		p.IsActive, p.BasePrice, p.ShippingFee))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	return updated, nil
}

func DeleteProduct(ctx context.Context, db *sql.DB, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}

// ListProducts pages through the catalog newest-first. Search matches title,
// description and tags, the same fields the storefront search box covers.
func ListProducts(ctx context.Context, db *sql.DB, filter ProductFilter, page, pageSize int) (*OffsetPage, error) {
	where := `WHERE ($1 = '' OR category_id = $1)
		  AND ($2 = '' OR title ILIKE '%' || $2 || '%'
		       OR description ILIKE '%' || $2 || '%'
		       OR array_to_string(tags, ' ') ILIKE '%' || $2 || '%')
		  AND (NOT $3 OR is_active)`

	var total int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products `+where,
		filter.CategoryID, filter.Search, filter.ActiveOnly).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + productColumns + `
		FROM products ` + where + `
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`

	rows, err := db.QueryContext(ctx, query,
		filter.CategoryID, filter.Search, filter.ActiveOnly, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return NewOffsetPage(products, total, page, pageSize), nil
}
