package model

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// MerchantRef 장바구니가 묶여 있는 가게 참조
type MerchantRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Product is the denormalized catalog snapshot captured when an item is
// added. The cart never re-fetches product data.
type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	MerchantID   string          `json:"merchant_id"`
	MerchantName string          `json:"merchant_name"`
}

// Topping 라인에 선택된 토핑
type Topping struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// CartLineItem is one aggregated cart entry. Two additions that share the
// same identity key (product, topping id set, trimmed instructions) merge
// into a single line.
type CartLineItem struct {
	ID                  string          `json:"id"`
	ProductID           string          `json:"product_id"`
	ProductName         string          `json:"product_name"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	MerchantID          string          `json:"merchant_id"`
	MerchantName        string          `json:"merchant_name"`
	Quantity            int             `json:"quantity"`
	Toppings            []Topping       `json:"toppings,omitempty"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
	Subtotal            decimal.Decimal `json:"subtotal"`
}

// LineKey builds the identity key used to decide whether two additions
// merge. Topping order must not matter, and instructions are compared with
// surrounding whitespace stripped.
func LineKey(productID string, toppingIDs []string, instructions string) string {
	ids := make([]string, len(toppingIDs))
	copy(ids, toppingIDs)
	sort.Strings(ids)
	return productID + "|" + strings.Join(ids, ",") + "|" + strings.TrimSpace(instructions)
}

// Key returns the line's identity key.
func (i CartLineItem) Key() string {
	ids := make([]string, len(i.Toppings))
	for n, t := range i.Toppings {
		ids[n] = t.ID
	}
	return LineKey(i.ProductID, ids, i.SpecialInstructions)
}

// UnitTotal is the unit price plus all topping prices.
func (i CartLineItem) UnitTotal() decimal.Decimal {
	total := i.UnitPrice
	for _, t := range i.Toppings {
		total = total.Add(t.Price)
	}
	return total
}

// ComputeSubtotal derives the line subtotal from quantity and unit total.
func (i CartLineItem) ComputeSubtotal() decimal.Decimal {
	return i.UnitTotal().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Clone returns a deep copy of the line.
func (i CartLineItem) Clone() CartLineItem {
	out := i
	if i.Toppings != nil {
		out.Toppings = make([]Topping, len(i.Toppings))
		copy(out.Toppings, i.Toppings)
	}
	return out
}

// CartState is the in-progress order. Total and ItemCount are derived from
// Items and recomputed on every mutation; Merchant is nil iff Items is
// empty (the single-merchant invariant).
type CartState struct {
	Items     []CartLineItem  `json:"items"`
	Merchant  *MerchantRef    `json:"merchant,omitempty"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

// EmptyCartState returns the zero-value cart with a zero total.
func EmptyCartState() CartState {
	return CartState{Total: decimal.Zero}
}

// Recompute rebuilds the derived totals from scratch over all lines.
func (s *CartState) Recompute() {
	total := decimal.Zero
	count := 0
	for _, item := range s.Items {
		total = total.Add(item.Subtotal)
		count += item.Quantity
	}
	s.Total = total
	s.ItemCount = count
	if len(s.Items) == 0 {
		s.Merchant = nil
	}
}

// Clone returns a deep copy of the cart state.
func (s CartState) Clone() CartState {
	out := s
	if s.Items != nil {
		out.Items = make([]CartLineItem, len(s.Items))
		for n, item := range s.Items {
			out.Items[n] = item.Clone()
		}
	}
	if s.Merchant != nil {
		m := *s.Merchant
		out.Merchant = &m
	}
	return out
}
