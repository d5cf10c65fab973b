package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/steve-ongera/phoneplace-kenya/internal/api"
	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
	"github.com/steve-ongera/phoneplace-kenya/internal/tokens"
)

// Backend is the part of the REST client the session drives.
type Backend interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error)
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error)
	Profile(ctx context.Context) (*domain.User, error)
	UpdateProfile(ctx context.Context, patch domain.ProfileUpdate) (*domain.User, error)
	Cart(ctx context.Context) (*domain.CartSnapshot, error)
	AddToCart(ctx context.Context, req domain.AddToCartRequest) error
	UpdateCartItem(ctx context.Context, req domain.UpdateCartItemRequest) error
	RemoveCartItem(ctx context.Context, itemID int) error
	ClearCart(ctx context.Context) error
	Wishlist(ctx context.Context) ([]domain.WishlistItem, error)
	AddToWishlist(ctx context.Context, productID uuid.UUID) (*domain.WishlistItem, error)
	RemoveFromWishlist(ctx context.Context, itemID int) error
}

// ValidationError reports form fields rejected before any network call.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return "invalid fields: " + strings.Join(names, ", ")
}

// RegisterForm is what the sign-up view collects. The username is the email.
type RegisterForm struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
	Password2 string
}

// Service runs the side-effecting session operations: it calls the backend
// and dispatches the results into the Store.
type Service struct {
	api    Backend
	store  *Store
	tokens tokens.Store
	logger *slog.Logger
}

func NewService(backend Backend, store *Store, tok tokens.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:    backend,
		store:  store,
		tokens: tok,
		logger: logger.With("component", "session"),
	}
}

func (s *Service) Store() *Store { return s.store }

// Bootstrap restores a session on startup: the profile when a token is
// stored (tokens are purged if that fails), then the cart, then the
// wishlist for signed-in users.
func (s *Service) Bootstrap(ctx context.Context) error {
	if tokens.HasAccess(ctx, s.tokens) {
		user, err := s.api.Profile(ctx)
		if err != nil {
			s.logger.Warn("stored session rejected, discarding tokens", "err", err)
			if err := tokens.ClearPair(ctx, s.tokens); err != nil {
				return err
			}
		} else {
			s.store.Dispatch(SetUser{User: user})
		}
	}

	var errs []error
	if err := s.RefreshCart(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.RefreshWishlist(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// RefreshCart replaces the cart with the server's snapshot. On failure the
// current cart is left as is.
func (s *Service) RefreshCart(ctx context.Context) error {
	cart, err := s.api.Cart(ctx)
	if err != nil {
		s.sessionLost(err)
		s.logger.Warn("cart refetch failed", "err", err)
		return fmt.Errorf("fetch cart: %w", err)
	}
	s.store.Dispatch(SetCart{Cart: cart})
	return nil
}

// RefreshWishlist replaces the wishlist for signed-in users; it is a no-op
// otherwise.
func (s *Service) RefreshWishlist(ctx context.Context) error {
	if !s.store.State().LoggedIn() || !tokens.HasAccess(ctx, s.tokens) {
		return nil
	}
	items, err := s.api.Wishlist(ctx)
	if err != nil {
		s.sessionLost(err)
		s.logger.Warn("wishlist refetch failed", "err", err)
		return fmt.Errorf("fetch wishlist: %w", err)
	}
	s.store.Dispatch(SetWishlist{Items: items})
	return nil
}

func (s *Service) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	return s.signedIn(ctx, resp, "Welcome back!")
}

// Register checks the password confirmation locally, then signs up and
// signs in.
func (s *Service) Register(ctx context.Context, form RegisterForm) (*domain.User, error) {
	if form.Password != form.Password2 {
		return nil, &ValidationError{Fields: map[string]string{"password2": "Passwords do not match"}}
	}
	resp, err := s.api.Register(ctx, domain.RegisterRequest{
		Username:  form.Email,
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Password:  form.Password,
		Password2: form.Password2,
		Phone:     form.Phone,
	})
	if err != nil {
		return nil, err
	}
	return s.signedIn(ctx, resp, "Account created! Welcome to PhonePlace Kenya")
}

// signedIn persists tokens, publishes the user and refetches the cart so a
// guest cart merged server-side shows up.
func (s *Service) signedIn(ctx context.Context, resp *domain.AuthResponse, greeting string) (*domain.User, error) {
	if err := tokens.SavePair(ctx, s.tokens, resp.Tokens); err != nil {
		return nil, err
	}
	user := resp.User
	s.store.Dispatch(SetUser{User: &user})
	s.store.ShowToast(greeting, domain.SeveritySuccess)
	s.logger.Info("signed in", "user", user.Email)

	_ = s.RefreshCart(ctx)
	_ = s.RefreshWishlist(ctx)
	return &user, nil
}

// Logout purges tokens, resets the session and loads the guest cart.
func (s *Service) Logout(ctx context.Context) error {
	if err := tokens.ClearPair(ctx, s.tokens); err != nil {
		return err
	}
	s.store.Dispatch(Logout{})
	s.store.ShowToast("Logged out successfully", domain.SeveritySuccess)
	_ = s.RefreshCart(ctx)
	return nil
}

func (s *Service) UpdateProfile(ctx context.Context, patch domain.ProfileUpdate) (*domain.User, error) {
	user, err := s.api.UpdateProfile(ctx, patch)
	if err != nil {
		s.sessionLost(err)
		s.store.ShowToast("Failed to update profile", domain.SeverityError)
		return nil, err
	}
	s.store.Dispatch(SetUser{User: user})
	s.store.ShowToast("Profile updated!", domain.SeveritySuccess)
	return user, nil
}

// AddToCart adds a product (and optional variant), refetches the cart and
// opens the cart drawer.
func (s *Service) AddToCart(ctx context.Context, productID uuid.UUID, variantID *int, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	err := s.api.AddToCart(ctx, domain.AddToCartRequest{
		ProductID: productID.String(),
		VariantID: variantID,
		Quantity:  quantity,
	})
	if err != nil {
		return s.cartFailed(err, "Failed to add to cart")
	}
	_ = s.RefreshCart(ctx)
	s.store.ShowToast("Added to cart!", domain.SeveritySuccess)
	s.store.Dispatch(SetCartOpen{Open: true})
	return nil
}

func (s *Service) RemoveFromCart(ctx context.Context, itemID int) error {
	if err := s.api.RemoveCartItem(ctx, itemID); err != nil {
		return s.cartFailed(err, "Failed to remove item")
	}
	_ = s.RefreshCart(ctx)
	return nil
}

// UpdateCartQty sets an item's quantity; zero or less removes it.
func (s *Service) UpdateCartQty(ctx context.Context, itemID, quantity int) error {
	err := s.api.UpdateCartItem(ctx, domain.UpdateCartItemRequest{ItemID: itemID, Quantity: quantity})
	if err != nil {
		return s.cartFailed(err, "Failed to update quantity")
	}
	_ = s.RefreshCart(ctx)
	return nil
}

func (s *Service) ClearCart(ctx context.Context) error {
	if err := s.api.ClearCart(ctx); err != nil {
		return s.cartFailed(err, "Failed to clear cart")
	}
	_ = s.RefreshCart(ctx)
	return nil
}

func (s *Service) cartFailed(err error, message string) error {
	s.sessionLost(err)
	s.logger.Warn("cart update failed", "err", err)
	s.store.ShowToast(message, domain.SeverityError)
	return err
}

// ToggleWishlist saves or removes a product. Guests get an info toast and
// no request is made. The wishlist is refetched after every change.
func (s *Service) ToggleWishlist(ctx context.Context, productID uuid.UUID) error {
	state := s.store.State()
	if !state.LoggedIn() {
		s.store.ShowToast("Please login to save items", domain.SeverityInfo)
		return nil
	}

	var err error
	if itemID, saved := state.Wishlist[productID]; saved {
		if err = s.api.RemoveFromWishlist(ctx, itemID); err == nil {
			s.store.ShowToast("Removed from wishlist", domain.SeveritySuccess)
		}
	} else {
		if _, err = s.api.AddToWishlist(ctx, productID); err == nil {
			s.store.ShowToast("Saved to wishlist", domain.SeveritySuccess)
		}
	}
	if err != nil {
		s.sessionLost(err)
		s.store.ShowToast("Failed to update wishlist", domain.SeverityError)
		return err
	}
	return s.RefreshWishlist(ctx)
}

// sessionLost signs the user out locally once the client has given up on
// the tokens.
func (s *Service) sessionLost(err error) {
	if errors.Is(err, api.ErrSessionExpired) && s.store.State().LoggedIn() {
		s.store.Dispatch(Logout{})
	}
}
