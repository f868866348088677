package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Banshee-gtb/kate-aesthetics/internal/database"
	"github.com/Banshee-gtb/kate-aesthetics/internal/models"
	"github.com/google/uuid"
)

const variantColumns = `id, product_id, color, size, price, in_stock, created_at`

// DefaultVariantPrefix derives the synthesized variant id from the product
// id, keeping it stable so cart deduplication merges repeated adds.
const DefaultVariantPrefix = "default-"

// DefaultVariant synthesizes the implicit single variant of a product that
// has none persisted: color "Default", size "Standard", priced at the
// product's base price.
func DefaultVariant(p models.Product) models.ProductVariant {
	return models.ProductVariant{
		ID:        DefaultVariantPrefix + p.ID,
		ProductID: p.ID,
		Color:     "Default",
		Size:      "Standard",
		Price:     p.BasePrice,
		InStock:   true,
		CreatedAt: p.CreatedAt,
	}
}

func scanVariant(row interface{ Scan(...any) error }) (*models.ProductVariant, error) {
	v := &models.ProductVariant{}
	err := row.Scan(
		&v.ID,
		&v.ProductID,
		&v.Color,
		&v.Size,
		&v.Price,
		&v.InStock,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func CreateVariant(ctx context.Context, db *sql.DB, v models.ProductVariant) (*models.ProductVariant, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}

	query := `
		INSERT INTO product_variants (id, product_id, color, size, price, in_stock, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING ` + variantColumns

	created, err := scanVariant(db.QueryRowContext(ctx, query,
		v.ID, v.ProductID, v.Color, v.Size, v.Price, v.InStock))
	if err != nil {
		return nil, fmt.Errorf("create variant: %w", err)
	}

	return created, nil
}

func GetVariant(ctx context.Context, db *sql.DB, id string) (*models.ProductVariant, error) {
	query := `SELECT ` + variantColumns + ` FROM product_variants WHERE id = $1`

	variant, err := scanVariant(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrVariantNotFound
		}
		return nil, fmt.Errorf("get variant: %w", err)
	}

	return variant, nil
}

func UpdateVariant(ctx context.Context, db *sql.DB, v models.ProductVariant) (*models.ProductVariant, error) {
	query := `
		UPDATE product_variants
		SET color = $2, size = $3, price = $4, in_stock = $5
		WHERE id = $1
		RETURNING ` + variantColumns

	updated, err := scanVariant(db.QueryRowContext(ctx, query,
		v.ID, v.Color, v.Size, v.Price, v.InStock))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrVariantNotFound
		}
		return nil, fmt.Errorf("update variant: %w", err)
	}

	return updated, nil
}

func DeleteVariant(ctx context.Context, db *sql.DB, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM product_variants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete variant: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrVariantNotFound
	}

	return nil
}

// ListVariants returns the persisted variants of a product, or the
// synthesized default variant when it has none.
func ListVariants(ctx context.Context, db *sql.DB, product models.Product) ([]models.ProductVariant, error) {
	query := `
		SELECT ` + variantColumns + `
		FROM product_variants
		WHERE product_id = $1
		ORDER BY created_at, id`

	rows, err := db.QueryContext(ctx, query, product.ID)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	var variants []models.ProductVariant
	for rows.Next() {
		variant, err := scanVariant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		variants = append(variants, *variant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if len(variants) == 0 {
		return []models.ProductVariant{DefaultVariant(product)}, nil
	}

	return variants, nil
}

// InStockVariants filters a variant list down to what the storefront offers.
func InStockVariants(variants []models.ProductVariant) []models.ProductVariant {
	inStock := make([]models.ProductVariant, 0, len(variants))
	for _, v := range variants {
		if v.InStock {
			inStock = append(inStock, v)
		}
	}
	return inStock
}
