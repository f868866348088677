package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/Banshee-gtb/kate-aesthetics/internal/cart"
	"github.com/Banshee-gtb/kate-aesthetics/internal/checkout"
	"github.com/Banshee-gtb/kate-aesthetics/internal/config"
	"github.com/Banshee-gtb/kate-aesthetics/internal/database"
	"github.com/Banshee-gtb/kate-aesthetics/internal/models"
	"github.com/Banshee-gtb/kate-aesthetics/internal/notify"
	"github.com/Banshee-gtb/kate-aesthetics/internal/store"
	"github.com/google/uuid"
)

const cartCookieName = "cart_token"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database successfully")

	var publisher *notify.Publisher
	if cfg.Broker.URL != "" {
		publisher, err = notify.NewPublisher(cfg.Broker.URL, cfg.Broker.OrderQueue)
		if err != nil {
			log.Fatalf("Connect to broker: %v", err)
		}
		defer publisher.Close()
		log.Printf("Publishing order events to queue %q", cfg.Broker.OrderQueue)
	}

	carts := cart.NewManager(cart.NewPostgresPersister(db))
	checkoutSvc := &checkout.Service{
		DB:             db,
		Publisher:      publisher,
		StoreName:      cfg.Store.Name,
		Currency:       cfg.Store.Currency,
		WhatsAppNumber: cfg.Store.WhatsAppNumber,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/products", handleProducts(db))
	mux.HandleFunc("/products/", handleProductByID(db))
	mux.HandleFunc("/categories", handleCategories(db))
	mux.HandleFunc("/cart", handleCart(carts))
	mux.HandleFunc("/cart/items", handleCartItems(db, carts))
	mux.HandleFunc("/cart/items/", handleCartItemByVariant(carts))
	mux.HandleFunc("/checkout", handleCheckout(carts, checkoutSvc))

	registerAdminRoutes(mux, db)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func handleProducts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		page, pageSize := pagination(r)
		filter := store.ProductFilter{
			CategoryID: r.URL.Query().Get("category_id"),
			Search:     r.URL.Query().Get("search"),
			ActiveOnly: true,
		}

		result, err := store.ListProducts(r.Context(), db, filter, page, pageSize)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}

func handleProductByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		id := r.URL.Path[len("/products/"):]
		product, err := store.GetProductWithVariants(r.Context(), db, id)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}
		if !product.IsActive {
			respondError(w, http.StatusNotFound, database.ErrProductNotFound.Error())
			return
		}

		product.Variants = store.InStockVariants(product.Variants)
		respondJSON(w, http.StatusOK, product)
	}
}

func handleCategories(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		categories, err := store.ListCategories(r.Context(), db)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, categories)
	}
}

type cartView struct {
	Items      []cart.LineItem `json:"items"`
	TotalItems int             `json:"total_items"`
	Totals     checkout.Totals `json:"totals"`
}

func viewCart(c *cart.Store) cartView {
	items := c.Items()
	return cartView{
		Items:      items,
		TotalItems: c.TotalItems(),
		Totals:     checkout.ComputeTotals(items),
	}
}

func handleCart(carts *cart.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := customerCart(w, r, carts)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		switch r.Method {
		case http.MethodGet:
			respondJSON(w, http.StatusOK, viewCart(c))

		case http.MethodDelete:
			c.Clear(r.Context())
			respondJSON(w, http.StatusOK, viewCart(c))

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleCartItems(db *sql.DB, carts *cart.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var req struct {
			ProductID string `json:"product_id"`
			VariantID string `json:"variant_id"`
			Quantity  int    `json:"quantity"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Quantity < 1 {
			respondError(w, http.StatusBadRequest, "Quantity must be at least 1")
			return
		}

		ctx := r.Context()
		product, err := store.GetProduct(ctx, db, req.ProductID)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}
		if !product.IsActive {
			respondError(w, http.StatusNotFound, database.ErrProductNotFound.Error())
			return
		}

		variant, err := resolveVariant(ctx, db, *product, req.VariantID)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}
		if !variant.InStock {
			respondError(w, http.StatusConflict, "Variant is out of stock")
			return
		}

		c, err := customerCart(w, r, carts)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		c.AddItem(ctx, *product, *variant, req.Quantity)
		respondJSON(w, http.StatusOK, viewCart(c))
	}
}

func handleCartItemByVariant(carts *cart.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		variantID := r.URL.Path[len("/cart/items/"):]
		if variantID == "" {
			respondError(w, http.StatusBadRequest, "Invalid variant ID")
			return
		}

		c, err := customerCart(w, r, carts)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		switch r.Method {
		case http.MethodPut:
			var req struct {
				Quantity int `json:"quantity"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
			c.UpdateQuantity(r.Context(), variantID, req.Quantity)
			respondJSON(w, http.StatusOK, viewCart(c))

		case http.MethodDelete:
			c.RemoveItem(r.Context(), variantID)
			respondJSON(w, http.StatusOK, viewCart(c))

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleCheckout(carts *cart.Manager, svc *checkout.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var req struct {
			Name              string `json:"name"`
			Phone             string `json:"phone"`
			Address           string `json:"address"`
			PaymentMethod     string `json:"payment_method"`
			PaystackReference string `json:"paystack_reference"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		c, err := customerCart(w, r, carts)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		result, err := svc.Submit(r.Context(), c, checkout.Request{
			CustomerName:      req.Name,
			CustomerPhone:     req.Phone,
			CustomerAddress:   req.Address,
			PaymentMethod:     req.PaymentMethod,
			PaystackReference: req.PaystackReference,
		})
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		respondJSON(w, http.StatusCreated, result)
	}
}

// resolveVariant loads the requested variant, or synthesizes the default one
// when the product sells without explicit variants.
func resolveVariant(ctx context.Context, db *sql.DB, product models.Product, variantID string) (*models.ProductVariant, error) {
	if variantID == "" || variantID == store.DefaultVariantPrefix+product.ID {
		variants, err := store.ListVariants(ctx, db, product)
		if err != nil {
			return nil, err
		}
		if len(variants) == 1 && variants[0].ID == store.DefaultVariantPrefix+product.ID {
			return &variants[0], nil
		}
		return nil, database.ErrVariantNotFound
	}

	variant, err := store.GetVariant(ctx, db, variantID)
	if err != nil {
		return nil, err
	}
	if variant.ProductID != product.ID {
		return nil, database.ErrVariantNotFound
	}

	return variant, nil
}

// customerCart finds the caller's cart by cookie, issuing a token on first
// touch.
func customerCart(w http.ResponseWriter, r *http.Request, carts *cart.Manager) (*cart.Store, error) {
	var token string
	if cookie, err := r.Cookie(cartCookieName); err == nil && cookie.Value != "" {
		token = cookie.Value
	} else {
		token = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     cartCookieName,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   60 * 60 * 24 * 30,
		})
	}

	return carts.Get(r.Context(), "cart:"+token)
}

func pagination(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrVariantNotFound),
		errors.Is(err, database.ErrCategoryNotFound),
		errors.Is(err, database.ErrOrderNotFound),
		errors.Is(err, database.ErrProfileNotFound),
		errors.Is(err, database.ErrSettingNotFound),
		errors.Is(err, database.ErrAdminNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrInvalidStatus):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
