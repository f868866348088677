// Package cart implements the persisted shopping cart: a deduplicated
// line-item collection keyed by product variant, with derived totals
// consumed by the cart and checkout surfaces.
package cart

import (
	"context"
	"log"
	"sync"

	"github.com/Banshee-gtb/kate-aesthetics/internal/models"
	"github.com/shopspring/decimal"
)

// LineItem is one cart row: denormalized snapshots of the product and the
// purchased variant, copied at add time. Later catalog edits do not change
// what the customer saw when they added the item.
type LineItem struct {
	Product  models.Product        `json:"product"`
	Variant  models.ProductVariant `json:"variant"`
	Quantity int                   `json:"quantity"`
}

// Store owns the line items held under a single storage key. At most one
// line item exists per distinct variant id; adding an already-present
// variant merges into the existing row. Every mutation replaces the slice
// wholesale and then persists the new state synchronously, best-effort: a
// failed write is logged and the in-memory state keeps the user's action.
type Store struct {
	key     string
	persist Persister

	mu    sync.Mutex
	items []LineItem
}

func NewStore(key string, persist Persister) *Store {
	return &Store{key: key, persist: persist}
}

// Load replaces the in-memory state with the persisted snapshot, if any.
// Called once per store, before first use.
func (s *Store) Load(ctx context.Context) error {
	items, err := s.persist.Load(ctx, s.key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

// AddItem merges quantity into an existing line item for the same variant,
// or appends a new one. Callers validate quantity >= 1.
func (s *Store) AddItem(ctx context.Context, product models.Product, variant models.ProductVariant, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]LineItem, len(s.items))
	copy(next, s.items)

	merged := false
	for i := range next {
		if next[i].Variant.ID == variant.ID {
			next[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		next = append(next, LineItem{Product: product, Variant: variant, Quantity: quantity})
	}

	s.items = next
	s.save(ctx)
}

// RemoveItem drops the line item for variantID. Absent variants are a no-op.
func (s *Store) RemoveItem(ctx context.Context, variantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(ctx, variantID)
}

// UpdateQuantity sets the line item's quantity to exactly quantity. A value
// of zero or less removes the item; a zero-quantity row never exists.
func (s *Store) UpdateQuantity(ctx context.Context, variantID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.removeLocked(ctx, variantID)
		return
	}

	found := false
	next := make([]LineItem, len(s.items))
	copy(next, s.items)
	for i := range next {
		if next[i].Variant.ID == variantID {
			next[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		return
	}

	s.items = next
	s.save(ctx)
}

// Clear empties the cart unconditionally.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []LineItem{}
	s.save(ctx)
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]LineItem, len(s.items))
	copy(items, s.items)
	return items
}

// TotalPrice is the sum of variant snapshot price times quantity over all
// line items, computed fresh on every call.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.Variant.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// TotalItems is the sum of quantities over all line items.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

// ShippingTotal charges each distinct product's snapshot shipping fee once,
// regardless of how many variants or units of it the cart holds.
func (s *Store) ShippingTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(s.items))
	total := decimal.Zero
	for _, item := range s.items {
		if seen[item.Product.ID] {
			continue
		}
		seen[item.Product.ID] = true
		total = total.Add(item.Product.ShippingFee)
	}
	return total
}

func (s *Store) removeLocked(ctx context.Context, variantID string) {
	next := make([]LineItem, 0, len(s.items))
	for _, item := range s.items {
		if item.Variant.ID != variantID {
			next = append(next, item)
		}
	}
	if len(next) == len(s.items) {
		return
	}

	s.items = next
	s.save(ctx)
}

// save persists the current state. The in-memory update has already
// happened; a write failure must not undo it.
func (s *Store) save(ctx context.Context) {
	if err := s.persist.Save(ctx, s.key, s.items); err != nil {
		log.Printf("persist cart %s: %v", s.key, err)
	}
}
