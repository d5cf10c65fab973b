package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
)

func TestReduce_Toggles(t *testing.T) {
	s := Session{}
	s = Reduce(s, ToggleCart{})
	assert.True(t, s.CartDrawerOpen)
	s = Reduce(s, ToggleCart{})
	assert.False(t, s.CartDrawerOpen)
	s = Reduce(s, SetCartOpen{Open: true})
	s = Reduce(s, SetCartOpen{Open: true})
	assert.True(t, s.CartDrawerOpen)
	s = Reduce(s, ToggleSearch{})
	assert.True(t, s.SearchBarOpen)
}

func TestReduce_SetUserAndLogout(t *testing.T) {
	user := &domain.User{ID: 1, Email: "jane@example.com"}
	pid := uuid.New()
	s := Reduce(Session{}, SetUser{User: user})
	assert.True(t, s.LoggedIn())

	s = Reduce(s, SetCart{Cart: &domain.CartSnapshot{ItemCount: 2, Total: domain.KSh(2000)}})
	s = Reduce(s, SetWishlist{Items: []domain.WishlistItem{{ID: 9, Product: domain.ProductSummary{ID: pid}}}})
	s = Reduce(s, SetCartOpen{Open: true})
	s = Reduce(s, AddToast{Toast: domain.Toast{ID: 1, Message: "hi", Severity: domain.SeverityInfo}})

	out := Reduce(s, Logout{})
	assert.Equal(t, Session{Toasts: s.Toasts}, out)
	assert.False(t, out.LoggedIn())

	s = Reduce(s, SetUser{User: nil})
	assert.False(t, s.LoggedIn())
}

func TestReduce_Wishlist(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	s := Reduce(Session{}, SetWishlist{Items: []domain.WishlistItem{
		{ID: 1, Product: domain.ProductSummary{ID: a}},
		{ID: 2, Product: domain.ProductSummary{ID: b}},
	}})
	assert.True(t, s.InWishlist(a))
	assert.ElementsMatch(t, []uuid.UUID{a, b}, s.WishlistProductIDs())
	assert.Equal(t, 2, s.Wishlist[b])

	s = Reduce(s, SetWishlist{})
	assert.False(t, s.InWishlist(a))
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	base := Reduce(Session{}, AddToast{Toast: domain.Toast{ID: 1}})
	base = Reduce(base, AddToast{Toast: domain.Toast{ID: 2}})

	removed := Reduce(base, RemoveToast{ID: 1})
	added := Reduce(base, AddToast{Toast: domain.Toast{ID: 3}})

	assert.Equal(t, []domain.Toast{{ID: 1}, {ID: 2}}, base.Toasts)
	assert.Equal(t, []domain.Toast{{ID: 2}}, removed.Toasts)
	assert.Equal(t, []domain.Toast{{ID: 1}, {ID: 2}, {ID: 3}}, added.Toasts)
}

func TestSession_CartLabel(t *testing.T) {
	s := Session{}
	assert.Equal(t, "Cart (0)", s.CartLabel())
	assert.Equal(t, "KSh 0", s.CartTotal().String())

	s = Reduce(s, SetCart{Cart: &domain.CartSnapshot{ItemCount: 2, Total: domain.KSh(2000)}})
	assert.Equal(t, "Cart (2)", s.CartLabel())
	assert.Equal(t, "KSh 2,000", s.CartTotal().String())
}
