package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/Banshee-gtb/kate-aesthetics/internal/database"
	"github.com/Banshee-gtb/kate-aesthetics/internal/models"
	"github.com/Banshee-gtb/kate-aesthetics/internal/store"
	"github.com/shopspring/decimal"
)

func TestProductLifecycle(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	category, err := store.CreateCategory(ctx, db, "Dresses")
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}

	product, err := store.CreateProduct(ctx, db, models.Product{
		Title:       "Satin Slip Dress",
		Description: "Midi length",
		CategoryID:  category.ID,
		Tags:        []string{"dress", "satin"},
		Images:      []string{"https://img.example/slip-1.jpg"},
		IsActive:    true,
		BasePrice:   decimal.NewFromInt(450),
		ShippingFee: decimal.NewFromInt(30),
	})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	fetched, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if fetched.Title != "Satin Slip Dress" {
		t.Errorf("Expected title %q, got %q", "Satin Slip Dress", fetched.Title)
	}
	if fetched.CategoryID != category.ID {
		t.Errorf("Expected category %s, got %s", category.ID, fetched.CategoryID)
	}
	if len(fetched.Tags) != 2 || fetched.Tags[0] != "dress" {
		t.Errorf("Tags did not round-trip: %v", fetched.Tags)
	}

	fetched.IsActive = false
	updated, err := store.UpdateProduct(ctx, db, *fetched)
	if err != nil {
		t.Fatalf("Update product: %v", err)
	}
	if updated.IsActive {
		t.Error("Expected product to be inactive after update")
	}

	if err := store.DeleteProduct(ctx, db, product.ID); err != nil {
		t.Fatalf("Delete product: %v", err)
	}
	if _, err := store.GetProduct(ctx, db, product.ID); err != database.ErrProductNotFound {
		t.Errorf("Expected ErrProductNotFound, got %v", err)
	}
}

func TestDefaultVariantSynthesizedFromCatalog(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product := seedProduct(t, db, "Gold Hoops", 3000, 0)

	variants, err := store.ListVariants(ctx, db, *product)
	if err != nil {
		t.Fatalf("List variants: %v", err)
	}
	if len(variants) != 1 {
		t.Fatalf("Expected 1 synthesized variant, got %d", len(variants))
	}

	v := variants[0]
	if v.ID != "default-"+product.ID {
		t.Errorf("Expected deterministic default id, got %s", v.ID)
	}
	if v.Color != "Default" || v.Size != "Standard" {
		t.Errorf("Expected Default/Standard, got %s/%s", v.Color, v.Size)
	}
	if !v.Price.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("Expected base price 3000, got %s", v.Price)
	}

	// Once a real variant exists the synthesized one disappears.
	if _, err := store.CreateVariant(ctx, db, models.ProductVariant{
		ProductID: product.ID,
		Color:     "Gold",
		Size:      "Small",
		Price:     decimal.NewFromInt(3200),
		InStock:   true,
	}); err != nil {
		t.Fatalf("Create variant: %v", err)
	}

	variants, err = store.ListVariants(ctx, db, *product)
	if err != nil {
		t.Fatalf("List variants: %v", err)
	}
	if len(variants) != 1 || variants[0].Color != "Gold" {
		t.Errorf("Expected only the persisted variant, got %+v", variants)
	}
}

func TestListProductsFilters(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	category, err := store.CreateCategory(ctx, db, "Skincare")
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}

	seed := []models.Product{
		{Title: "Rose Toner", CategoryID: category.ID, Tags: []string{"toner"}, IsActive: true},
		{Title: "Vitamin C Serum", Tags: []string{"serum", "glow"}, IsActive: true},
		{Title: "Retired Cream", IsActive: false},
	}
	for _, p := range seed {
		if _, err := store.CreateProduct(ctx, db, p); err != nil {
			t.Fatalf("Create product %s: %v", p.Title, err)
		}
	}

	activeOnly, err := store.ListProducts(ctx, db, store.ProductFilter{ActiveOnly: true}, 1, 20)
	if err != nil {
		t.Fatalf("List active products: %v", err)
	}
	if activeOnly.Total != 2 {
		t.Errorf("Expected 2 active products, got %d", activeOnly.Total)
	}

	byCategory, err := store.ListProducts(ctx, db, store.ProductFilter{CategoryID: category.ID, ActiveOnly: true}, 1, 20)
	if err != nil {
		t.Fatalf("List by category: %v", err)
	}
	if byCategory.Total != 1 {
		t.Errorf("Expected 1 product in category, got %d", byCategory.Total)
	}

	// Search matches tags as well as titles.
	byTag, err := store.ListProducts(ctx, db, store.ProductFilter{Search: "glow", ActiveOnly: true}, 1, 20)
	if err != nil {
		t.Fatalf("Search products: %v", err)
	}
	if byTag.Total != 1 {
		t.Errorf("Expected 1 product matching tag search, got %d", byTag.Total)
	}

	all, err := store.ListProducts(ctx, db, store.ProductFilter{}, 1, 20)
	if err != nil {
		t.Fatalf("List all products: %v", err)
	}
	if all.Total != 3 {
		t.Errorf("Expected 3 products in admin listing, got %d", all.Total)
	}
}

func TestDuplicateCategoryNameRejected(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	if _, err := store.CreateCategory(ctx, db, "Fragrance"); err != nil {
		t.Fatalf("Create category: %v", err)
	}

	_, err := store.CreateCategory(ctx, db, "Fragrance")
	if err == nil {
		t.Fatal("Expected duplicate category name to fail")
	}
	if !database.IsUniqueViolation(err) {
		t.Errorf("Expected unique violation, got %v", err)
	}
}

func TestSettingsUpsert(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	if _, err := store.UpsertSetting(ctx, db, models.SettingWhatsAppNumber, "+233201234567"); err != nil {
		t.Fatalf("Upsert setting: %v", err)
	}
	if _, err := store.UpsertSetting(ctx, db, models.SettingWhatsAppNumber, "+233209999999"); err != nil {
		t.Fatalf("Upsert setting again: %v", err)
	}

	settings, err := store.GetSettings(ctx, db, []string{models.SettingWhatsAppNumber, models.SettingTerms})
	if err != nil {
		t.Fatalf("Get settings: %v", err)
	}
	if settings[models.SettingWhatsAppNumber] != "+233209999999" {
		t.Errorf("Expected last write to win, got %q", settings[models.SettingWhatsAppNumber])
	}
	if _, ok := settings[models.SettingTerms]; ok {
		t.Error("Expected missing key to be absent")
	}

	single, err := store.GetSetting(ctx, db, models.SettingWhatsAppNumber)
	if err != nil {
		t.Fatalf("Get setting: %v", err)
	}
	if single.Value != "+233209999999" {
		t.Errorf("Expected single-key read to match, got %q", single.Value)
	}

	if _, err := store.GetSetting(ctx, db, models.SettingTerms); !errors.Is(err, database.ErrSettingNotFound) {
		t.Errorf("Expected ErrSettingNotFound for missing key, got %v", err)
	}
}

func TestAdminCheck(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	if _, err := store.CreateAdmin(ctx, db, "Kate@Example.com"); err != nil {
		t.Fatalf("Create admin: %v", err)
	}

	ok, err := store.IsAdmin(ctx, db, "kate@example.com")
	if err != nil {
		t.Fatalf("Check admin: %v", err)
	}
	if !ok {
		t.Error("Expected admin check to pass case-insensitively")
	}

	ok, err = store.IsAdmin(ctx, db, "intruder@example.com")
	if err != nil {
		t.Fatalf("Check non-admin: %v", err)
	}
	if ok {
		t.Error("Expected non-admin check to fail")
	}
}

func TestAdminRemoval(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	if _, err := store.CreateAdmin(ctx, db, "kate@example.com"); err != nil {
		t.Fatalf("Create admin: %v", err)
	}

	if err := store.DeleteAdmin(ctx, db, "kate@example.com"); err != nil {
		t.Fatalf("Delete admin: %v", err)
	}

	ok, err := store.IsAdmin(ctx, db, "kate@example.com")
	if err != nil {
		t.Fatalf("Check admin: %v", err)
	}
	if ok {
		t.Error("Expected admin check to fail after removal")
	}

	if err := store.DeleteAdmin(ctx, db, "kate@example.com"); !errors.Is(err, database.ErrAdminNotFound) {
		t.Errorf("Expected ErrAdminNotFound on second delete, got %v", err)
	}
}
