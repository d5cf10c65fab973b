// Package session holds the client's shared state: the signed-in user, the
// server cart snapshot, the wishlist, UI toggles and the toast queue.
// State changes only through named actions applied by Reduce.
package session

import (
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
)

// Session is an immutable value; Reduce returns a new one for every change.
type Session struct {
	User           *domain.User
	Cart           *domain.CartSnapshot
	Wishlist       map[uuid.UUID]int // product ID -> wishlist item ID
	CartDrawerOpen bool
	SearchBarOpen  bool
	Toasts         []domain.Toast
}

func (s Session) LoggedIn() bool { return s.User != nil }

func (s Session) InWishlist(productID uuid.UUID) bool {
	_, ok := s.Wishlist[productID]
	return ok
}

// WishlistProductIDs returns the wishlisted product IDs in no particular order.
func (s Session) WishlistProductIDs() []uuid.UUID {
	return slices.Collect(maps.Keys(s.Wishlist))
}

// CartCount is the server-reported number of units in the cart.
func (s Session) CartCount() int {
	if s.Cart == nil {
		return 0
	}
	return s.Cart.ItemCount
}

// CartTotal is the server-reported cart total.
func (s Session) CartTotal() domain.Money {
	if s.Cart == nil {
		return 0
	}
	return s.Cart.Total
}

func (s Session) CartLabel() string {
	return fmt.Sprintf("Cart (%d)", s.CartCount())
}

// Action is one of the named state transitions below.
type Action interface {
	action()
}

type (
	// SetUser with a nil User means signed out.
	SetUser struct{ User *domain.User }

	// SetCart replaces the snapshot wholesale.
	SetCart struct{ Cart *domain.CartSnapshot }

	SetWishlist struct{ Items []domain.WishlistItem }

	ToggleCart struct{}

	SetCartOpen struct{ Open bool }

	ToggleSearch struct{}

	AddToast struct{ Toast domain.Toast }

	RemoveToast struct{ ID int64 }

	// Logout resets everything except queued toasts.
	Logout struct{}
)

func (SetUser) action() {}
func (SetCart) action() {}
func (SetWishlist) action() {}
func (ToggleCart) action() {}
func (SetCartOpen) action() {}
func (ToggleSearch) action() {}
func (AddToast) action() {}
func (RemoveToast) action() {}
func (Logout) action() {}

// Reduce applies a to s. It never mutates s.
func Reduce(s Session, a Action) Session {
	switch a := a.(type) {
	case SetUser:
		s.User = a.User
	case SetCart:
		s.Cart = a.Cart
	case SetWishlist:
		w := make(map[uuid.UUID]int, len(a.Items))
		for _, item := range a.Items {
			w[item.Product.ID] = item.ID
		}
		s.Wishlist = w
	case ToggleCart:
		s.CartDrawerOpen = !s.CartDrawerOpen
	case SetCartOpen:
		s.CartDrawerOpen = a.Open
	case ToggleSearch:
		s.SearchBarOpen = !s.SearchBarOpen
	case AddToast:
		s.Toasts = append(slices.Clip(s.Toasts), a.Toast)
	case RemoveToast:
		s.Toasts = slices.DeleteFunc(slices.Clone(s.Toasts), func(t domain.Toast) bool { return t.ID == a.ID })
	case Logout:
		return Session{Toasts: s.Toasts}
	}
	return s
}
