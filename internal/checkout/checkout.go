// Package checkout turns a cart into an order: computes the final totals,
// records the order, publishes the created event and composes the WhatsApp
// hand-off the customer completes payment through.
package checkout

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/Banshee-gtb/kate-aesthetics/internal/cart"
	"github.com/Banshee-gtb/kate-aesthetics/internal/database"
	"github.com/Banshee-gtb/kate-aesthetics/internal/models"
	"github.com/Banshee-gtb/kate-aesthetics/internal/notify"
	"github.com/Banshee-gtb/kate-aesthetics/internal/store"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrMissingDetails = errors.New("customer name, phone and address are required")
	ErrBadPayment     = errors.New("unsupported payment method")
)

// Totals is the checkout price breakdown, derived from cart snapshots only.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals sums variant snapshot prices per unit, then adds each
// distinct product's shipping fee exactly once.
func ComputeTotals(items []cart.LineItem) Totals {
	subtotal := decimal.Zero
	shipping := decimal.Zero
	shipped := make(map[string]bool, len(items))

	for _, item := range items {
		subtotal = subtotal.Add(item.Variant.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		if !shipped[item.Product.ID] {
			shipped[item.Product.ID] = true
			shipping = shipping.Add(item.Product.ShippingFee)
		}
	}

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal.Add(shipping),
	}
}

type Request struct {
	CustomerName      string
	CustomerPhone     string
	CustomerAddress   string
	PaymentMethod     string
	PaystackReference string
}

type Result struct {
	Order       *models.Order `json:"order,omitempty"`
	Totals      Totals        `json:"totals"`
	WhatsAppURL string        `json:"whatsapp_url,omitempty"`
}

// Service wires the collaborators checkout needs. Publisher is optional.
// WhatsAppNumber is the configured fallback, used when the settings table
// has no number yet.
type Service struct {
	DB             *sql.DB
	Publisher      *notify.Publisher
	StoreName      string
	Currency       string
	WhatsAppNumber string
}

// Submit places the order. The order insert is best-effort auditing: the
// WhatsApp hand-off is the source of truth for the sale, so the cart is
// cleared and the hand-off returned even when the insert fails.
func (s *Service) Submit(ctx context.Context, c *cart.Store, req Request) (*Result, error) {
	items := c.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	if req.CustomerName == "" || req.CustomerPhone == "" || req.CustomerAddress == "" {
		return nil, ErrMissingDetails
	}
	if req.PaymentMethod != models.PaymentMethodPaystack && req.PaymentMethod != models.PaymentMethodMobileMoney {
		return nil, ErrBadPayment
	}

	totals := ComputeTotals(items)

	orderItems := make([]store.OrderItemRequest, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, store.OrderItemRequest{
			ProductID: item.Product.ID,
			VariantID: item.Variant.ID,
			Quantity:  item.Quantity,
			Price:     item.Variant.Price,
		})
	}

	order, err := store.CreateOrder(ctx, s.DB, store.CreateOrderRequest{
		CustomerName:      req.CustomerName,
		CustomerPhone:     req.CustomerPhone,
		CustomerAddress:   req.CustomerAddress,
		AmountPaid:        totals.Total,
		PaymentMethod:     req.PaymentMethod,
		PaystackReference: req.PaystackReference,
		Items:             orderItems,
	})
	if err != nil {
		log.Printf("create order for %s: %v", req.CustomerPhone, err)
	} else {
		if _, err := store.UpsertProfile(ctx, s.DB, req.CustomerName, req.CustomerPhone, req.CustomerAddress); err != nil {
			log.Printf("upsert profile for %s: %v", req.CustomerPhone, err)
		}
		if s.Publisher != nil {
			if err := s.Publisher.OrderCreated(ctx, order); err != nil {
				log.Printf("publish order %s: %v", order.ID, err)
			}
		}
	}

	number, err := s.whatsAppNumber(ctx)
	if err != nil {
		log.Printf("load whatsapp number: %v", err)
	}

	result := &Result{
		Order:  order,
		Totals: totals,
	}
	if number != "" {
		result.WhatsAppURL = HandoffURL(number, Summary{
			StoreName: s.StoreName,
			Currency:  s.Currency,
			Customer:  req.CustomerName,
			Items:     items,
			Totals:    totals,
			Order:     order,
		})
	}

	c.Clear(ctx)

	return result, nil
}

func (s *Service) whatsAppNumber(ctx context.Context) (string, error) {
	setting, err := store.GetSetting(ctx, s.DB, models.SettingWhatsAppNumber)
	if err != nil {
		if errors.Is(err, database.ErrSettingNotFound) {
			return s.WhatsAppNumber, nil
		}
		return "", err
	}
	if setting.Value == "" {
		return s.WhatsAppNumber, nil
	}
	return setting.Value, nil
}
