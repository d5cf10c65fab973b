package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
)

// DefaultOrdering is the product list order when none is requested.
const DefaultOrdering = "-created_at"

// ProductQuery filters the product list. Zero values are omitted.
type ProductQuery struct {
	Page     int
	Ordering string
	Search   string
	Category string
	Brand    string
}

// Encode renders the query string, including the leading "?" when non-empty.
func (q ProductQuery) Encode() string {
	v := url.Values{}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Ordering != "" {
		v.Set("ordering", q.Ordering)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category != "" {
		v.Set("category__slug", q.Category)
	}
	if q.Brand != "" {
		v.Set("brand__slug", q.Brand)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// Auth

func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	if err := c.Do(ctx, http.MethodPost, loginEndpoint, creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	if err := c.Do(ctx, http.MethodPost, registerEndpoint, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Profile(ctx context.Context) (*domain.User, error) {
	var out domain.User
	if err := c.Do(ctx, http.MethodGet, "/auth/profile/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, patch domain.ProfileUpdate) (*domain.User, error) {
	var out domain.User
	if err := c.Do(ctx, http.MethodPatch, "/auth/profile/", patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Catalog

func (c *Client) Products(ctx context.Context, q ProductQuery) (*domain.Page[domain.ProductSummary], error) {
	return getPage[domain.ProductSummary](ctx, c, "/products/"+q.Encode())
}

func (c *Client) Search(ctx context.Context, term string) (*domain.Page[domain.ProductSummary], error) {
	return c.Products(ctx, ProductQuery{Search: term})
}

func (c *Client) Product(ctx context.Context, slug string) (*domain.Product, error) {
	var out domain.Product
	if err := c.Do(ctx, http.MethodGet, "/products/"+url.PathEscape(slug)+"/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Related(ctx context.Context, slug string) ([]domain.ProductSummary, error) {
	return getList[domain.ProductSummary](ctx, c, "/products/"+url.PathEscape(slug)+"/related/")
}

func (c *Client) Featured(ctx context.Context) ([]domain.ProductSummary, error) {
	return getList[domain.ProductSummary](ctx, c, "/products/featured/")
}

func (c *Client) BestSellers(ctx context.Context) ([]domain.ProductSummary, error) {
	return getList[domain.ProductSummary](ctx, c, "/products/best_sellers/")
}

func (c *Client) NewArrivals(ctx context.Context) ([]domain.ProductSummary, error) {
	return getList[domain.ProductSummary](ctx, c, "/products/new_arrivals/")
}

func (c *Client) ByCategory(ctx context.Context, slug string) ([]domain.ProductSummary, error) {
	return getList[domain.ProductSummary](ctx, c, "/products/by_category/?slug="+url.QueryEscape(slug))
}

func (c *Client) ByBrand(ctx context.Context, slug string) ([]domain.ProductSummary, error) {
	return getList[domain.ProductSummary](ctx, c, "/products/by_brand/?slug="+url.QueryEscape(slug))
}

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	return getList[domain.Category](ctx, c, "/categories/")
}

func (c *Client) Brands(ctx context.Context) ([]domain.Brand, error) {
	return getList[domain.Brand](ctx, c, "/brands/")
}

func (c *Client) FeaturedBrands(ctx context.Context) ([]domain.Brand, error) {
	return getList[domain.Brand](ctx, c, "/brands/featured/")
}

func (c *Client) Banners(ctx context.Context) ([]domain.Banner, error) {
	return getList[domain.Banner](ctx, c, "/banners/")
}

func (c *Client) HeroBanners(ctx context.Context) ([]domain.Banner, error) {
	return getList[domain.Banner](ctx, c, "/banners/hero/")
}

func (c *Client) RecentlyViewed(ctx context.Context) ([]domain.RecentlyViewed, error) {
	return getList[domain.RecentlyViewed](ctx, c, "/recently-viewed/")
}

// Cart. Mutations return only an error: callers refetch the snapshot.

func (c *Client) Cart(ctx context.Context) (*domain.CartSnapshot, error) {
	var out domain.CartSnapshot
	if err := c.Do(ctx, http.MethodGet, "/cart/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddToCart(ctx context.Context, req domain.AddToCartRequest) error {
	return c.Do(ctx, http.MethodPost, "/cart/", req, nil)
}

func (c *Client) UpdateCartItem(ctx context.Context, req domain.UpdateCartItemRequest) error {
	return c.Do(ctx, http.MethodPatch, "/cart/update_item/", req, nil)
}

func (c *Client) RemoveCartItem(ctx context.Context, itemID int) error {
	return c.Do(ctx, http.MethodDelete, "/cart/"+strconv.Itoa(itemID)+"/", nil, nil)
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.Do(ctx, http.MethodDelete, "/cart/clear/", nil, nil)
}

// Orders and payment

func (c *Client) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	var out domain.Order
	if err := c.Do(ctx, http.MethodPost, "/orders/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Orders(ctx context.Context) ([]domain.Order, error) {
	return getList[domain.Order](ctx, c, "/orders/")
}

func (c *Client) Order(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var out domain.Order
	if err := c.Do(ctx, http.MethodGet, "/orders/"+id.String()+"/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) STKPush(ctx context.Context, req domain.STKPushRequest) (*domain.STKPushResponse, error) {
	var out domain.STKPushResponse
	if err := c.Do(ctx, http.MethodPost, "/mpesa/stk-push/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Wishlist

func (c *Client) Wishlist(ctx context.Context) ([]domain.WishlistItem, error) {
	return getList[domain.WishlistItem](ctx, c, "/wishlist/")
}

func (c *Client) AddToWishlist(ctx context.Context, productID uuid.UUID) (*domain.WishlistItem, error) {
	var out domain.WishlistItem
	body := map[string]string{"product_id": productID.String()}
	if err := c.Do(ctx, http.MethodPost, "/wishlist/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveFromWishlist deletes by wishlist item ID, not product ID.
func (c *Client) RemoveFromWishlist(ctx context.Context, itemID int) error {
	return c.Do(ctx, http.MethodDelete, "/wishlist/"+strconv.Itoa(itemID)+"/", nil, nil)
}
