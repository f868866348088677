package integration

import (
	"context"
	"strings"
	"testing"

	"github.com/Banshee-gtb/kate-aesthetics/internal/cart"
	"github.com/Banshee-gtb/kate-aesthetics/internal/checkout"
	"github.com/Banshee-gtb/kate-aesthetics/internal/models"
	"github.com/Banshee-gtb/kate-aesthetics/internal/store"
	"github.com/shopspring/decimal"
)

func TestCartSurvivesRestart(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	persist := cart.NewPostgresPersister(db)

	product := models.Product{
		ID:          "p1",
		Title:       "Silk Scarf",
		ShippingFee: decimal.NewFromInt(30),
	}
	variant := models.ProductVariant{
		ID:        "v1",
		ProductID: "p1",
		Color:     "Ivory",
		Size:      "One Size",
		Price:     decimal.NewFromInt(250),
		InStock:   true,
	}

	first := cart.NewStore("cart:customer-1", persist)
	first.AddItem(ctx, product, variant, 2)

	// A new store against the same key simulates a process restart.
	restored := cart.NewStore("cart:customer-1", persist)
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("Load cart: %v", err)
	}

	items := restored.Items()
	if len(items) != 1 {
		t.Fatalf("Expected 1 restored item, got %d", len(items))
	}
	if items[0].Variant.ID != "v1" || items[0].Quantity != 2 {
		t.Errorf("Restored item mismatch: %+v", items[0])
	}
	if !items[0].Product.ShippingFee.Equal(decimal.NewFromInt(30)) {
		t.Errorf("Snapshot shipping fee did not survive: %s", items[0].Product.ShippingFee)
	}

	// Last write wins on the shared key.
	restored.UpdateQuantity(ctx, "v1", 5)
	again := cart.NewStore("cart:customer-1", persist)
	if err := again.Load(ctx); err != nil {
		t.Fatalf("Reload cart: %v", err)
	}
	if again.TotalItems() != 5 {
		t.Errorf("Expected 5 items after reload, got %d", again.TotalItems())
	}
}

func TestCheckoutSubmitClearsCart(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	if _, err := store.UpsertSetting(ctx, db, models.SettingWhatsAppNumber, "+233 20 123 4567"); err != nil {
		t.Fatalf("Seed whatsapp number: %v", err)
	}

	c := cart.NewStore("cart:customer-9", cart.NewPostgresPersister(db))
	c.AddItem(ctx,
		models.Product{ID: "p1", Title: "Satin Dress", ShippingFee: decimal.NewFromInt(500)},
		models.ProductVariant{ID: "v1", ProductID: "p1", Color: "Red", Size: "M", Price: decimal.NewFromInt(1000), InStock: true},
		2)
	c.AddItem(ctx,
		models.Product{ID: "p2", Title: "Gold Hoops", ShippingFee: decimal.NewFromInt(700)},
		models.ProductVariant{ID: "v2", ProductID: "p2", Color: "Gold", Size: "Small", Price: decimal.NewFromInt(2500), InStock: true},
		1)

	svc := &checkout.Service{DB: db, StoreName: "Kate Aesthetics", Currency: "GHS"}

	result, err := svc.Submit(ctx, c, checkout.Request{
		CustomerName:    "Ama Mensah",
		CustomerPhone:   "+233209876543",
		CustomerAddress: "12 Osu Lane, Accra",
		PaymentMethod:   models.PaymentMethodPaystack,
	})
	if err != nil {
		t.Fatalf("Submit checkout: %v", err)
	}

	if !result.Totals.Subtotal.Equal(decimal.NewFromInt(4500)) {
		t.Errorf("Expected subtotal 4500, got %s", result.Totals.Subtotal)
	}
	if !result.Totals.Shipping.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("Expected shipping 1200, got %s", result.Totals.Shipping)
	}
	if !result.Totals.Total.Equal(decimal.NewFromInt(5700)) {
		t.Errorf("Expected total 5700, got %s", result.Totals.Total)
	}

	if result.Order == nil {
		t.Fatal("Expected order to be recorded")
	}
	if !strings.HasPrefix(result.WhatsAppURL, "https://wa.me/233201234567?text=") {
		t.Errorf("Unexpected hand-off URL: %s", result.WhatsAppURL)
	}

	if len(c.Items()) != 0 {
		t.Error("Expected cart to be cleared after checkout")
	}

	fetched, err := store.GetOrder(ctx, db, result.Order.ID)
	if err != nil {
		t.Fatalf("Get recorded order: %v", err)
	}
	if len(fetched.Items) != 2 {
		t.Errorf("Expected 2 order items, got %d", len(fetched.Items))
	}
	if !fetched.AmountPaid.Equal(decimal.NewFromInt(5700)) {
		t.Errorf("Expected amount 5700, got %s", fetched.AmountPaid)
	}

	// Checkout also records the customer profile.
	profiles, err := store.ListProfiles(ctx, db, 1, 20)
	if err != nil {
		t.Fatalf("List profiles: %v", err)
	}
	if profiles.Total != 1 {
		t.Errorf("Expected 1 profile after checkout, got %d", profiles.Total)
	}
}

func TestCheckoutFallsBackToConfiguredNumber(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	// No whatsapp_number row exists, so the configured number is used.
	c := cart.NewStore("cart:customer-7", cart.NewPostgresPersister(db))
	c.AddItem(ctx,
		models.Product{ID: "p1", Title: "Satin Dress", ShippingFee: decimal.NewFromInt(500)},
		models.ProductVariant{ID: "v1", ProductID: "p1", Price: decimal.NewFromInt(1000), InStock: true},
		1)

	svc := &checkout.Service{
		DB:             db,
		StoreName:      "Kate Aesthetics",
		Currency:       "GHS",
		WhatsAppNumber: "+233 50 111 2222",
	}

	result, err := svc.Submit(ctx, c, checkout.Request{
		CustomerName:    "Ama Mensah",
		CustomerPhone:   "+233209876543",
		CustomerAddress: "Accra",
		PaymentMethod:   models.PaymentMethodPaystack,
	})
	if err != nil {
		t.Fatalf("Submit checkout: %v", err)
	}

	if !strings.HasPrefix(result.WhatsAppURL, "https://wa.me/233501112222?text=") {
		t.Errorf("Expected fallback number in hand-off URL, got %s", result.WhatsAppURL)
	}

	// A stored number takes precedence over the configured one.
	if _, err := store.UpsertSetting(ctx, db, models.SettingWhatsAppNumber, "+233 20 123 4567"); err != nil {
		t.Fatalf("Upsert whatsapp number: %v", err)
	}

	c.AddItem(ctx,
		models.Product{ID: "p1", Title: "Satin Dress", ShippingFee: decimal.NewFromInt(500)},
		models.ProductVariant{ID: "v1", ProductID: "p1", Price: decimal.NewFromInt(1000), InStock: true},
		1)

	result, err = svc.Submit(ctx, c, checkout.Request{
		CustomerName:    "Ama Mensah",
		CustomerPhone:   "+233209876543",
		CustomerAddress: "Accra",
		PaymentMethod:   models.PaymentMethodPaystack,
	})
	if err != nil {
		t.Fatalf("Submit second checkout: %v", err)
	}

	if !strings.HasPrefix(result.WhatsAppURL, "https://wa.me/233201234567?text=") {
		t.Errorf("Expected stored number in hand-off URL, got %s", result.WhatsAppURL)
	}
}

func TestCheckoutClearsCartWhenOrderInsertFails(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	c := cart.NewStore("cart:customer-2", cart.NewPostgresPersister(db))
	c.AddItem(ctx,
		models.Product{ID: "p1", Title: "Satin Dress"},
		// Negative snapshot price violates the order_items check constraint.
		models.ProductVariant{ID: "v1", ProductID: "p1", Price: decimal.NewFromInt(-1)},
		1)

	svc := &checkout.Service{DB: db, StoreName: "Kate Aesthetics", Currency: "GHS"}

	result, err := svc.Submit(ctx, c, checkout.Request{
		CustomerName:    "Ama Mensah",
		CustomerPhone:   "+233209876543",
		CustomerAddress: "Accra",
		PaymentMethod:   models.PaymentMethodMobileMoney,
	})
	if err != nil {
		t.Fatalf("Submit checkout: %v", err)
	}

	// The WhatsApp hand-off is the source of truth; the in-house record is
	// best-effort auditing, so the cart still clears.
	if result.Order != nil {
		t.Error("Expected no recorded order")
	}
	if len(c.Items()) != 0 {
		t.Error("Expected cart to be cleared despite the failed insert")
	}
}
