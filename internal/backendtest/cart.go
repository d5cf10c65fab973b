package backendtest

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
)

const sessionCookie = "sessionid"

type cart struct {
	id      int
	items   []*cartItem
	updated time.Time
}

type cartItem struct {
	id        int
	productID uuid.UUID
	variantID *int
	quantity  int
	added     time.Time
}

// cartFor resolves the caller's cart: the user's when authenticated,
// otherwise one bound to the guest session cookie, which it creates on
// first use. Callers hold b.mu.
func (b *Backend) cartFor(w http.ResponseWriter, r *http.Request) *cart {
	key := viewerKey(r)
	if key == "" {
		sid := uuid.NewString()
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: sid, Path: "/", HttpOnly: true})
		key = "session:" + sid
	}
	return b.cartByKey(key)
}

func (b *Backend) cartByKey(key string) *cart {
	c, ok := b.carts[key]
	if !ok {
		c = &cart{id: b.newID(), updated: time.Now().UTC()}
		b.carts[key] = c
	}
	return c
}

// mergeGuestCart moves a guest session's items into the user's cart.
func (b *Backend) mergeGuestCart(sessionID string, userID int) {
	guest, ok := b.carts["session:"+sessionID]
	if !ok || len(guest.items) == 0 {
		return
	}
	userCart := b.cartByKey(fmt.Sprintf("user:%d", userID))
	for _, it := range guest.items {
		userCart.add(b, it.productID, it.variantID, it.quantity)
	}
	guest.items = nil
}

func (c *cart) add(b *Backend, productID uuid.UUID, variantID *int, quantity int) {
	for _, it := range c.items {
		if it.productID == productID && sameVariant(it.variantID, variantID) {
			it.quantity += quantity
			c.updated = time.Now().UTC()
			return
		}
	}
	c.items = append(c.items, &cartItem{
		id:        b.newID(),
		productID: productID,
		variantID: variantID,
		quantity:  quantity,
		added:     time.Now().UTC(),
	})
	c.updated = time.Now().UTC()
}

func sameVariant(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func findVariant(p *domain.Product, id int) *domain.Variant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// snapshot renders the cart with server-computed subtotals and totals.
func (b *Backend) snapshot(c *cart) domain.CartSnapshot {
	out := domain.CartSnapshot{ID: c.id, Items: []domain.CartItem{}, UpdatedAt: c.updated}
	for _, it := range c.items {
		p := b.productByID(it.productID)
		item := domain.CartItem{
			ID:       it.id,
			Product:  summary(p),
			Quantity: it.quantity,
			AddedAt:  it.added,
		}
		price := priceOf(item.Product)
		if it.variantID != nil {
			if v := findVariant(p, *it.variantID); v != nil {
				vc := *v
				item.Variant = &vc
				price = v.EffectivePrice
			}
		}
		item.Subtotal = price * domain.Money(it.quantity)
		out.Total += item.Subtotal
		out.ItemCount += it.quantity
		out.Items = append(out.Items, item)
	}
	return out
}

func (b *Backend) getCart(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	snap := b.snapshot(b.cartFor(w, r))
	b.mu.Unlock()
	respondJSON(w, http.StatusOK, snap)
}

func (b *Backend) addToCart(w http.ResponseWriter, r *http.Request) {
	var req domain.AddToCartRequest
	if !decodeBody(w, r, &req) {
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		respondFieldErrors(w, map[string]string{"product_id": "Must be a valid UUID."})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		respondFieldErrors(w, map[string]string{"quantity": "Ensure this value is greater than or equal to 1."})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.productByID(productID)
	if p == nil {
		respondError(w, http.StatusNotFound, "", "Product not found")
		return
	}
	if req.VariantID != nil && findVariant(p, *req.VariantID) == nil {
		respondError(w, http.StatusNotFound, "", "Variant not found")
		return
	}
	c := b.cartFor(w, r)
	c.add(b, productID, req.VariantID, req.Quantity)
	respondJSON(w, http.StatusCreated, b.snapshot(c))
}

func (b *Backend) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateCartItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.cartFor(w, r)
	idx := slices.IndexFunc(c.items, func(it *cartItem) bool { return it.id == req.ItemID })
	if idx < 0 {
		respondError(w, http.StatusNotFound, "", "Item not found")
		return
	}
	if req.Quantity <= 0 {
		c.items = slices.Delete(c.items, idx, idx+1)
	} else {
		c.items[idx].quantity = req.Quantity
	}
	c.updated = time.Now().UTC()
	respondJSON(w, http.StatusOK, b.snapshot(c))
}

func (b *Backend) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "", "Item not found")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.cartFor(w, r)
	idx := slices.IndexFunc(c.items, func(it *cartItem) bool { return it.id == id })
	if idx < 0 {
		respondError(w, http.StatusNotFound, "", "Item not found")
		return
	}
	c.items = slices.Delete(c.items, idx, idx+1)
	c.updated = time.Now().UTC()
	respondJSON(w, http.StatusOK, b.snapshot(c))
}

func (b *Backend) clearCart(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.cartFor(w, r)
	c.items = nil
	c.updated = time.Now().UTC()
	respondJSON(w, http.StatusOK, b.snapshot(c))
}

func (b *Backend) listWishlist(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := append([]domain.WishlistItem{}, b.wishlists[getUserID(r.Context())]...)
	b.mu.Unlock()
	respondJSON(w, http.StatusOK, out)
}

func (b *Backend) addToWishlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	productID, err := uuid.Parse(req.ProductID)

	b.mu.Lock()
	defer b.mu.Unlock()
	var p *domain.Product
	if err == nil {
		p = b.productByID(productID)
	}
	if p == nil {
		respondError(w, http.StatusNotFound, "", "Product not found")
		return
	}
	userID := getUserID(r.Context())
	for _, item := range b.wishlists[userID] {
		if item.Product.ID == productID {
			respondJSON(w, http.StatusOK, item)
			return
		}
	}
	item := domain.WishlistItem{ID: b.newID(), Product: summary(p), AddedAt: time.Now().UTC()}
	b.wishlists[userID] = append(b.wishlists[userID], item)
	respondJSON(w, http.StatusCreated, item)
}

func (b *Backend) removeFromWishlist(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	userID := getUserID(r.Context())

	b.mu.Lock()
	defer b.mu.Unlock()
	items := b.wishlists[userID]
	idx := slices.IndexFunc(items, func(it domain.WishlistItem) bool { return it.ID == id })
	if idx < 0 {
		respondError(w, http.StatusNotFound, "", "Not found")
		return
	}
	b.wishlists[userID] = slices.Delete(items, idx, idx+1)
	w.WriteHeader(http.StatusNoContent)
}
