package models

import "time"

// CartLine identifies a product+variant in the cart. ID is stable for the
// product/variant pair so repeated adds merge into one line.
type CartLine struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	VariantLabel string  `json:"variant_label,omitempty"`
	UnitPrice    float64 `json:"unit_price"`
	Quantity     int     `json:"quantity"`
	Image        string  `json:"image,omitempty"`
}

type Cart struct {
	SessionID string     `json:"session_id"`
	Items     []CartLine `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TotalQuantity is the unit count across all lines, used for the store-wide cap.
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, it := range c.Items {
		total += it.Quantity
	}
	return total
}

// Subtotal is recomputed on every call, never cached.
func (c *Cart) Subtotal() float64 {
	total := 0.0
	for _, it := range c.Items {
		total += float64(it.Quantity) * it.UnitPrice
	}
	return total
}
