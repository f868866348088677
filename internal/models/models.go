package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	CategoryID  string          `json:"category_id,omitempty"`
	Tags        []string        `json:"tags"`
	Images      []string        `json:"images"`
	IsActive    bool            `json:"is_active"`
	BasePrice   decimal.Decimal `json:"base_price"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type ProductVariant struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Color     string          `json:"color"`
	Size      string          `json:"size"`
	Price     decimal.Decimal `json:"price"`
	InStock   bool            `json:"in_stock"`
	CreatedAt time.Time       `json:"created_at"`
}

type ProductWithVariants struct {
	Product
	Variants []ProductVariant `json:"variants"`
	Category *Category        `json:"category,omitempty"`
}

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Order struct {
	ID                string          `json:"id"`
	CustomerName      string          `json:"customer_name"`
	CustomerPhone     string          `json:"customer_phone"`
	CustomerAddress   string          `json:"customer_address"`
	AmountPaid        decimal.Decimal `json:"amount_paid"`
	PaymentMethod     string          `json:"payment_method"`
	PaystackReference string          `json:"paystack_reference,omitempty"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Items             []OrderItem     `json:"items,omitempty"`
}

type OrderItem struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Admin struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Setting struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

const (
	PaymentMethodPaystack    = "paystack"
	PaymentMethodMobileMoney = "mobile_money"
)

// Settings keys managed through the admin surface.
const (
	SettingTerms          = "terms"
	SettingPrivacy        = "privacy"
	SettingWhatsAppNumber = "whatsapp_number"
)
