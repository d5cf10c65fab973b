// Package backendtest runs an in-memory storefront REST backend over
// httptest. It mirrors the wire behavior of the production API closely
// enough for client tests: DRF-style error payloads, SimpleJWT token
// semantics, session-cookie guest carts and paginated list envelopes.
package backendtest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
)

// BasePath is the API prefix the backend serves under.
const BasePath = "/api/v1"

type ctxKey int

const (
	userKey ctxKey = iota
	requestIDKey
)

type Backend struct {
	srv    *httptest.Server
	secret []byte

	mu            sync.Mutex
	users         map[int]*account
	emails        map[string]int
	access        map[string]int
	refresh       map[string]int
	products      []*domain.Product
	categories    []domain.Category
	brands        []domain.Brand
	banners       []domain.Banner
	carts         map[string]*cart
	wishlists     map[int][]domain.WishlistItem
	orders        map[int][]*domain.Order
	viewed        map[string][]domain.RecentlyViewed
	stkPushes     []domain.STKPushRequest
	failures      map[string]int
	hits          map[string]int
	requestIDs    []string
	nextID        int
	rotateRefresh bool
	refreshDelay  time.Duration
}

type Option func(*Backend)

// WithRotatingRefresh makes the refresh endpoint return a new refresh token
// alongside the access token and blacklist the one it was given.
func WithRotatingRefresh() Option {
	return func(b *Backend) { b.rotateRefresh = true }
}

// WithRefreshDelay slows the refresh endpoint down so concurrent callers
// overlap.
func WithRefreshDelay(d time.Duration) Option {
	return func(b *Backend) { b.refreshDelay = d }
}

func New(opts ...Option) *Backend {
	b := &Backend{
		secret:    []byte("backendtest-signing-key"),
		users:     make(map[int]*account),
		emails:    make(map[string]int),
		access:    make(map[string]int),
		refresh:   make(map[string]int),
		carts:     make(map[string]*cart),
		wishlists: make(map[int][]domain.WishlistItem),
		orders:    make(map[int][]*domain.Order),
		viewed:    make(map[string][]domain.RecentlyViewed),
		failures:  make(map[string]int),
		hits:      make(map[string]int),
		nextID:    1000,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.seedCatalog()
	b.srv = httptest.NewServer(b.routes())
	return b
}

// Start runs a backend for the duration of the test.
func Start(t testing.TB, opts ...Option) *Backend {
	t.Helper()
	b := New(opts...)
	t.Cleanup(b.Close)
	return b
}

func (b *Backend) Close() { b.srv.Close() }

// URL is the API base URL clients should be configured with.
func (b *Backend) URL() string { return b.srv.URL + BasePath }

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(b.requestIDMiddleware)
	r.Use(b.recordMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route(BasePath, func(r chi.Router) {
		// Auth endpoints ignore the Authorization header so a stale token
		// never blocks a fresh login.
		r.Post("/auth/register/", b.register)
		r.Post("/auth/login/", b.login)
		r.Post("/auth/refresh/", b.refreshToken)

		r.Group(func(r chi.Router) {
			r.Use(b.authMiddleware)

			r.Get("/products/", b.listProducts)
			r.Get("/products/featured/", b.featured)
			r.Get("/products/best_sellers/", b.bestSellers)
			r.Get("/products/new_arrivals/", b.newArrivals)
			r.Get("/products/by_category/", b.byCategory)
			r.Get("/products/by_brand/", b.byBrand)
			r.Get("/products/{slug}/", b.getProduct)
			r.Get("/products/{slug}/related/", b.related)
			r.Get("/categories/", b.listCategories)
			r.Get("/brands/", b.listBrands)
			r.Get("/brands/featured/", b.featuredBrands)
			r.Get("/banners/", b.listBanners)
			r.Get("/banners/hero/", b.heroBanners)
			r.Get("/recently-viewed/", b.recentlyViewed)

			r.Get("/cart/", b.getCart)
			r.Post("/cart/", b.addToCart)
			r.Patch("/cart/update_item/", b.updateCartItem)
			r.Delete("/cart/clear/", b.clearCart)
			r.Delete("/cart/{id}/", b.removeCartItem)

			r.Group(func(r chi.Router) {
				r.Use(requireUser)
				r.Get("/auth/profile/", b.profile)
				r.Patch("/auth/profile/", b.updateProfile)
				r.Post("/orders/", b.createOrder)
				r.Get("/orders/", b.listOrders)
				r.Get("/orders/{id}/", b.getOrder)
				r.Post("/mpesa/stk-push/", b.stkPush)
				r.Get("/wishlist/", b.listWishlist)
				r.Post("/wishlist/", b.addToWishlist)
				r.Delete("/wishlist/{id}/", b.removeFromWishlist)
			})
		})
	})
	return r
}

// requestIDMiddleware echoes the caller's X-Request-ID or assigns one.
func (b *Backend) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		} else {
			b.mu.Lock()
			b.requestIDs = append(b.requestIDs, requestID)
			b.mu.Unlock()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recordMiddleware counts hits per route and serves injected failures.
func (b *Backend) recordMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := routeKey(r.Method, strings.TrimPrefix(r.URL.Path, BasePath))
		b.mu.Lock()
		b.hits[key]++
		status, failing := b.failures[key]
		b.mu.Unlock()

		if failing {
			respondError(w, status, "injected_failure", http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authMiddleware resolves a bearer token to a user. An unknown or expired
// token is rejected outright, even on public endpoints.
func (b *Backend) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		b.mu.Lock()
		userID, valid := b.access[token]
		b.mu.Unlock()
		if !ok || !valid {
			respondJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}
		ctx := context.WithValue(r.Context(), userKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if getUserID(r.Context()) == 0 {
			respondJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Authentication credentials were not provided.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func getUserID(ctx context.Context) int {
	if userID, ok := ctx.Value(userKey).(int); ok {
		return userID
	}
	return 0
}

func routeKey(method, path string) string {
	return method + " " + path
}

func (b *Backend) newID() int {
	b.nextID++
	return b.nextID
}

// Fail makes every request to method+path (relative to BasePath) answer
// with status until Heal is called.
func (b *Backend) Fail(method, path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[routeKey(method, path)] = status
}

func (b *Backend) Heal(method, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, routeKey(method, path))
}

// Hits is the number of requests seen for method+path, failures included.
func (b *Backend) Hits(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[routeKey(method, path)]
}

// RefreshCalls is the number of requests to the token refresh endpoint.
func (b *Backend) RefreshCalls() int {
	return b.Hits(http.MethodPost, "/auth/refresh/")
}

// RequestIDs returns the X-Request-ID values sent by clients.
func (b *Backend) RequestIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requestIDs...)
}

// STKPushes returns every accepted STK push request.
func (b *Backend) STKPushes() []domain.STKPushRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.STKPushRequest(nil), b.stkPushes...)
}

// SettlePayment simulates the M-Pesa callback for an order.
func (b *Backend) SettlePayment(orderID uuid.UUID, status domain.PaymentStatus) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, orders := range b.orders {
		for _, o := range orders {
			if o.ID != orderID {
				continue
			}
			o.PaymentStatus = status
			if status == domain.PaymentStatusPaid {
				o.Status = domain.OrderStatusConfirmed
			}
			o.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}
