package checkout

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Banshee-gtb/kate-aesthetics/internal/cart"
	"github.com/Banshee-gtb/kate-aesthetics/internal/models"
	"github.com/shopspring/decimal"
)

// Summary is the order recap prefilled into the WhatsApp message.
type Summary struct {
	StoreName string
	Currency  string
	Customer  string
	Items     []cart.LineItem
	Totals    Totals
	Order     *models.Order
}

// HandoffURL builds the wa.me link the customer opens to confirm the order
// with the store. The number keeps digits only; everything else is stripped.
func HandoffURL(number string, summary Summary) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	if digits == "" {
		return ""
	}

	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(summary.Message())
}

// Message renders the plain-text order recap.
func (s Summary) Message() string {
	var b strings.Builder

	fmt.Fprintf(&b, "New order for %s\n", s.StoreName)
	if s.Order != nil {
		fmt.Fprintf(&b, "Order #%s\n", shortID(s.Order.ID))
	}
	fmt.Fprintf(&b, "Customer: %s\n\n", s.Customer)

	for _, item := range s.Items {
		fmt.Fprintf(&b, "%dx %s (%s, %s) - %s %s\n",
			item.Quantity,
			item.Product.Title,
			item.Variant.Color,
			item.Variant.Size,
			s.Currency,
			item.Variant.Price.Mul(decimal.NewFromInt(int64(item.Quantity))).StringFixed(2),
		)
	}

	fmt.Fprintf(&b, "\nSubtotal: %s %s\n", s.Currency, s.Totals.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "Shipping: %s %s\n", s.Currency, s.Totals.Shipping.StringFixed(2))
	fmt.Fprintf(&b, "Total: %s %s", s.Currency, s.Totals.Total.StringFixed(2))

	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
