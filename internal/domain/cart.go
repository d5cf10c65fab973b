package domain

import "time"

type CartItem struct {
	ID       int            `json:"id"`
	Product  ProductSummary `json:"product"`
	Variant  *Variant       `json:"variant"`
	Quantity int            `json:"quantity"`
	Subtotal Money          `json:"subtotal"`
	AddedAt  time.Time      `json:"added_at"`
}

// CartSnapshot is the server-computed cart. Totals are authoritative and are
// never recomputed on the client.
type CartSnapshot struct {
	ID        int        `json:"id"`
	Items     []CartItem `json:"items"`
	Total     Money      `json:"total"`
	ItemCount int        `json:"item_count"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c *CartSnapshot) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Item returns the cart line with the given id.
func (c *CartSnapshot) Item(id int) (CartItem, bool) {
	if c == nil {
		return CartItem{}, false
	}
	for _, it := range c.Items {
		if it.ID == id {
			return it, true
		}
	}
	return CartItem{}, false
}

type AddToCartRequest struct {
	ProductID string `json:"product_id"`
	VariantID *int   `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartItemRequest struct {
	ItemID   int `json:"item_id"`
	Quantity int `json:"quantity"`
}
