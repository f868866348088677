package main

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Banshee-gtb/kate-aesthetics/internal/database"
	"github.com/Banshee-gtb/kate-aesthetics/internal/models"
	"github.com/Banshee-gtb/kate-aesthetics/internal/store"
	"github.com/shopspring/decimal"
)

// Back-office routes. Authentication proper lives in the hosted auth
// service in front of this API; here the admin email header is checked
// against the admins table.
func registerAdminRoutes(mux *http.ServeMux, db *sql.DB) {
	mux.HandleFunc("/admin/dashboard", requireAdmin(db, handleAdminDashboard(db)))
	mux.HandleFunc("/admin/products", requireAdmin(db, handleAdminProducts(db)))
	mux.HandleFunc("/admin/products/", requireAdmin(db, handleAdminProductByID(db)))
	mux.HandleFunc("/admin/variants/", requireAdmin(db, handleAdminVariantByID(db)))
	mux.HandleFunc("/admin/categories", requireAdmin(db, handleAdminCategories(db)))
	mux.HandleFunc("/admin/categories/", requireAdmin(db, handleAdminCategoryByID(db)))
	mux.HandleFunc("/admin/orders", requireAdmin(db, handleAdminOrders(db)))
	mux.HandleFunc("/admin/orders/", requireAdmin(db, handleAdminOrderByID(db)))
	mux.HandleFunc("/admin/customers", requireAdmin(db, handleAdminCustomers(db)))
	mux.HandleFunc("/admin/customers/", requireAdmin(db, handleAdminCustomerByID(db)))
	mux.HandleFunc("/admin/settings", requireAdmin(db, handleAdminSettings(db)))
	mux.HandleFunc("/admin/settings/", requireAdmin(db, handleAdminSettingByKey(db)))
	mux.HandleFunc("/admin/admins", requireAdmin(db, handleAdminAdmins(db)))
	mux.HandleFunc("/admin/admins/", requireAdmin(db, handleAdminAdminByEmail(db)))
}

func requireAdmin(db *sql.DB, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.Header.Get("X-Admin-Email")
		if email == "" {
			respondError(w, http.StatusUnauthorized, "Missing admin email")
			return
		}

		ok, err := store.IsAdmin(r.Context(), db, email)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !ok {
			respondError(w, http.StatusForbidden, "Not an admin")
			return
		}

		next(w, r)
	}
}

type productPayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	CategoryID  string   `json:"category_id"`
	Tags        []string `json:"tags"`
	Images      []string `json:"images"`
	IsActive    bool     `json:"is_active"`
	BasePrice   float64  `json:"base_price"`
	ShippingFee float64  `json:"shipping_fee"`
}

func (p productPayload) toModel(id string) models.Product {
	return models.Product{
		ID:          id,
		Title:       p.Title,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		Tags:        p.Tags,
		Images:      p.Images,
		IsActive:    p.IsActive,
		BasePrice:   decimal.NewFromFloat(p.BasePrice),
		ShippingFee: decimal.NewFromFloat(p.ShippingFee),
	}
}

func handleAdminProducts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodPost:
			var req productPayload
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			product, err := store.CreateProduct(ctx, db, req.toModel(""))
			if err != nil {
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}

			respondJSON(w, http.StatusCreated, product)

		case http.MethodGet:
			page, pageSize := pagination(r)
			filter := store.ProductFilter{
				CategoryID: r.URL.Query().Get("category_id"),
				Search:     r.URL.Query().Get("search"),
			}

			result, err := store.ListProducts(ctx, db, filter, page, pageSize)
			if err != nil {
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}

			respondJSON(w, http.StatusOK, result)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleAdminProductByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		rest := r.URL.Path[len("/admin/products/"):]

		// /admin/products/{id}/variants
		if id, found := strings.CutSuffix(rest, "/variants"); found {
			handleAdminProductVariants(db, id)(w, r)
			return
		}
		id := rest

		switch r.Method {
		case http.MethodGet:
			product, err := store.GetProductWithVariants(ctx, db, id)
			if err != nil {
				respondError(w, statusFor(err), err.Error())
				return
			}
			respondJSON(w, http.StatusOK, product)

		case http.MethodPut:
			var req productPayload
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			product, err := store.UpdateProduct(ctx, db, req.toModel(id))
			if err != nil {
				respondError(w, statusFor(err), err.Error())
				return
			}
			respondJSON(w, http.StatusOK, product)

		case http.MethodDelete:
			if err := store.DeleteProduct(ctx, db, id); err != nil {
				respondError(w, statusFor(err), err.Error())
				return
			}
			respondJSON(w, http.StatusOK, map[string]string{"deleted": id})

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

type variantPayload struct {
	Color   string  `json:"color"`
	Size    string  `json:"size"`
	Price   float64 `json:"price"`
	InStock bool    `json:"in_stock"`
}

func handleAdminProductVariants(db *sql.DB, productID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		ctx := r.Context()
		if _, err := store.GetProduct(ctx, db, productID); err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}

		var req variantPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		variant, err := store.CreateVariant(ctx, db, models.ProductVariant{
			ProductID: productID,
			Color:     req.Color,
			Size:      req.Size,
			Price:     decimal.NewFromFloat(req.Price),
			InStock:   req.InStock,
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusCreated, variant)
	}
}

func handleAdminVariantByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := r.URL.Path[len("/admin/variants/"):]

		switch r.Method {
		case http.MethodPut:
			var req variantPayload
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			variant, err := store.UpdateVariant(ctx, db, models.ProductVariant{
				ID:      id,
				Color:   req.Color,
				Size:    req.Size,
				Price:   decimal.NewFromFloat(req.Price),
				InStock: req.InStock,
			})
			if err != nil {
				respondError(w, statusFor(err), err.Error())
				return
			}
			respondJSON(w, http.StatusOK, variant)

		case http.MethodDelete:
			if err := store.DeleteVariant(ctx, db, id); err != nil {
				respondError(w, statusFor(err), err.Error())
				return
			}
			respondJSON(w, http.StatusOK, map[string]string{"deleted": id})

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleAdminCategories(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodPost:
			var req struct {
				Name string `json:"name"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
				respondError(w, http.StatusBadRequest, "Category name is required")
				return
			}

			category, err := store.CreateCategory(ctx, db, req.Name)
			if err != nil {
				if database.IsUniqueViolation(err) {
					respondError(w, http.StatusConflict, "Category already exists")
					return
				}
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
			respondJSON(w, http.StatusCreated, category)

		case http.MethodGet:
			categories, err := store.ListCategories(ctx, db)
			if err != nil {
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
			respondJSON(w, http.StatusOK, categories)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleAdminCategoryByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := r.URL.Path[len("/admin/categories/"):]

		switch r.Method {
		case http.MethodPut:
			var req struct {
				Name string `json:"name"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
				respondError(w, http.StatusBadRequest, "Category name is required")
				return
			}

			category, err := store.UpdateCategory(ctx, db, id, req.Name)
			if err != nil {
				if database.IsUniqueViolation(err) {
					respondError(w, http.StatusConflict, "Category already exists")
					return
				}
				respondError(w, statusFor(err), err.Error())
				return
			}
			respondJSON(w, http.StatusOK, category)

		case http.MethodDelete:
			if err := store.DeleteCategory(ctx, db, id); err != nil {
				respondError(w, statusFor(err), err.Error())
				return
			}
			respondJSON(w, http.StatusOK, map[string]string{"deleted": id})

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleAdminOrders(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		_, limit := pagination(r)
		result, err := store.ListOrdersCursor(r.Context(), db, r.URL.Query().Get("cursor"), limit)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}

func handleAdminOrderByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		rest := r.URL.Path[len("/admin/orders/"):]

		// /admin/orders/{id}/status
		if id, found := strings.CutSuffix(rest, "/status"); found {
			if r.Method != http.MethodPut {
				respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}

			var req struct {
				Status string `json:"status"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			order, err := store.UpdateOrderStatus(ctx, db, id, req.Status)
			if err != nil {
				respondError(w, statusFor(err), err.Error())
				return
			}
			respondJSON(w, http.StatusOK, order)
			return
		}

		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		order, err := store.GetOrder(ctx, db, rest)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}
		respondJSON(w, http.StatusOK, order)
	}
}

func handleAdminDashboard(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		stats, err := store.GetDashboardStats(r.Context(), db)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, stats)
	}
}

func handleAdminCustomers(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		page, pageSize := pagination(r)
		result, err := store.ListProfiles(r.Context(), db, page, pageSize)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}

func handleAdminCustomerByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		id := r.URL.Path[len("/admin/customers/"):]
		profile, err := store.GetProfile(r.Context(), db, id)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}

		respondJSON(w, http.StatusOK, profile)
	}
}

func handleAdminSettings(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodGet:
			settings, err := store.GetSettings(ctx, db, []string{
				models.SettingTerms,
				models.SettingPrivacy,
				models.SettingWhatsAppNumber,
			})
			if err != nil {
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
			respondJSON(w, http.StatusOK, settings)

		case http.MethodPut:
			var req map[string]string
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			updated := make(map[string]string, len(req))
			for key, value := range req {
				setting, err := store.UpsertSetting(ctx, db, key, value)
				if err != nil {
					respondError(w, http.StatusInternalServerError, err.Error())
					return
				}
				updated[setting.Key] = setting.Value
			}
			respondJSON(w, http.StatusOK, updated)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleAdminSettingByKey(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		key := r.URL.Path[len("/admin/settings/"):]
		setting, err := store.GetSetting(r.Context(), db, key)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}

		respondJSON(w, http.StatusOK, setting)
	}
}

func handleAdminAdmins(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var req struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
			respondError(w, http.StatusBadRequest, "Admin email is required")
			return
		}

		admin, err := store.CreateAdmin(r.Context(), db, req.Email)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusCreated, admin)
	}
}

func handleAdminAdminByEmail(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		email := r.URL.Path[len("/admin/admins/"):]
		if strings.EqualFold(email, r.Header.Get("X-Admin-Email")) {
			respondError(w, http.StatusConflict, "Cannot remove your own admin access")
			return
		}

		if err := store.DeleteAdmin(r.Context(), db, email); err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}

		respondJSON(w, http.StatusOK, map[string]string{"deleted": email})
	}
}
