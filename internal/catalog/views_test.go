package catalog

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steve-ongera/phoneplace-kenya/internal/api"
	"github.com/steve-ongera/phoneplace-kenya/internal/backendtest"
	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
	"github.com/steve-ongera/phoneplace-kenya/internal/tokens"
)

func setup(t *testing.T, cache Cache) (*Loader, *backendtest.Backend, *api.Client) {
	t.Helper()
	b := backendtest.Start(t)
	client, err := api.New(b.URL(), tokens.NewMemoryStore())
	require.NoError(t, err)
	return NewLoader(client, cache, nil), b, client
}

func TestLoader_HomeLoadsEverySection(t *testing.T) {
	loader, _, _ := setup(t, nil)

	home := loader.Home(context.Background())

	require.NoError(t, home.Hero.Err)
	assert.Len(t, home.Hero.Data, 2)
	assert.Len(t, home.Featured.Data, 2)
	assert.Len(t, home.BestSellers.Data, 3)
	assert.Len(t, home.NewArrivals.Data, 2)

	require.Len(t, home.Brands, len(HomeBrands))
	counts := map[string]int{}
	for _, s := range home.Brands {
		require.NoError(t, s.Products.Err, s.Slug)
		counts[s.Slug] = len(s.Products.Data)
	}
	assert.Equal(t, map[string]int{"xiaomi": 2, "oppo": 1, "apple": 1, "infinix": 1, "samsung": 1}, counts)
}

func TestLoader_HomeSectionsSettleIndependently(t *testing.T) {
	loader, b, _ := setup(t, nil)
	b.Fail(http.MethodGet, "/products/featured/", http.StatusInternalServerError)
	b.Fail(http.MethodGet, "/products/by_brand/", http.StatusBadGateway)

	home := loader.Home(context.Background())

	assert.True(t, api.IsStatus(home.Featured.Err, http.StatusInternalServerError))
	assert.False(t, home.Featured.OK())
	for _, s := range home.Brands {
		assert.True(t, api.IsStatus(s.Products.Err, http.StatusBadGateway), s.Slug)
	}
	assert.True(t, home.Hero.OK())
	assert.True(t, home.BestSellers.OK())
	assert.Len(t, home.NewArrivals.Data, 2)
}

func TestLoader_ProductDetail(t *testing.T) {
	loader, _, _ := setup(t, nil)

	v := loader.ProductDetail(context.Background(), backendtest.IPhone15)
	require.NoError(t, v.Product.Err)
	assert.Equal(t, "iPhone 15", v.Product.Data.Name)
	assert.Len(t, v.Related.Data, 4)
	assert.True(t, v.RecentlyViewed.OK())

	missing := loader.ProductDetail(context.Background(), "nokia-3310")
	assert.True(t, api.IsStatus(missing.Product.Err, http.StatusNotFound))
	assert.True(t, api.IsStatus(missing.Related.Err, http.StatusNotFound))
	assert.True(t, missing.RecentlyViewed.OK())
}

func TestLoader_ProductsDefaultsAndPageCount(t *testing.T) {
	loader, _, _ := setup(t, nil)

	v := loader.Products(context.Background(), api.ProductQuery{Brand: "xiaomi"})
	assert.Equal(t, 1, v.Query.Page)
	assert.Equal(t, api.DefaultOrdering, v.Query.Ordering)
	require.NoError(t, v.Page.Err)
	assert.Equal(t, 2, v.Page.Data.Count)
	assert.Equal(t, 1, v.PageCount())
	assert.Len(t, v.Categories.Data, 2)
	assert.Len(t, v.Brands.Data, 5)
}

func TestLoader_ProductsPageFailureLeavesFilters(t *testing.T) {
	loader, _, _ := setup(t, nil)

	v := loader.Products(context.Background(), api.ProductQuery{Page: 9})
	assert.True(t, api.IsStatus(v.Page.Err, http.StatusNotFound))
	assert.Equal(t, 0, v.PageCount())
	assert.True(t, v.Categories.OK())
	assert.True(t, v.Brands.OK())
}

func TestLoader_CategoryAndBrand(t *testing.T) {
	loader, _, _ := setup(t, nil)
	ctx := context.Background()

	cat := loader.Category(ctx, backendtest.Accessories)
	require.NoError(t, cat.Products.Err)
	assert.Equal(t, "Accessories", cat.Title())
	assert.Len(t, cat.Products.Data, 1)

	unknown := loader.Category(ctx, "drones")
	assert.Nil(t, unknown.Category.Data)
	assert.Equal(t, "drones", unknown.Title())
	assert.True(t, api.IsStatus(unknown.Products.Err, http.StatusNotFound))

	brand := loader.Brand(ctx, "samsung")
	assert.Equal(t, "Samsung", brand.Title())
	require.Len(t, brand.Products.Data, 1)
	assert.Equal(t, backendtest.GalaxyA15, brand.Products.Data[0].Slug)
}

func TestLoader_CachesPublicReads(t *testing.T) {
	loader, b, _ := setup(t, NewMemoryCache(64, time.Minute))
	ctx := context.Background()

	first := loader.Home(ctx)
	second := loader.Home(ctx)

	assert.Equal(t, 1, b.Hits(http.MethodGet, "/products/featured/"))
	assert.Equal(t, 1, b.Hits(http.MethodGet, "/banners/hero/"))
	assert.Equal(t, len(HomeBrands), b.Hits(http.MethodGet, "/products/by_brand/"))
	assert.Equal(t, first.Featured.Data, second.Featured.Data)
	assert.Equal(t, *first.Featured.Data[0].MinPrice, *second.Featured.Data[0].MinPrice)

	loader.ProductDetail(ctx, backendtest.RedmiNote13)
	loader.ProductDetail(ctx, backendtest.RedmiNote13)
	assert.Equal(t, 2, b.Hits(http.MethodGet, "/products/"+backendtest.RedmiNote13+"/"))
	assert.Equal(t, 1, b.Hits(http.MethodGet, "/products/"+backendtest.RedmiNote13+"/related/"))
}

func TestLoader_FailuresAreNotCached(t *testing.T) {
	loader, b, _ := setup(t, NewMemoryCache(64, time.Minute))
	ctx := context.Background()

	b.Fail(http.MethodGet, "/brands/", http.StatusServiceUnavailable)
	_, err := loader.Brands(ctx)
	require.Error(t, err)

	b.Heal(http.MethodGet, "/brands/")
	brands, err := loader.Brands(ctx)
	require.NoError(t, err)
	assert.Len(t, brands, 5)
	assert.Equal(t, 2, b.Hits(http.MethodGet, "/brands/"))
}

func TestLoader_DropsUndecodableEntry(t *testing.T) {
	cache := NewMemoryCache(8, time.Minute)
	loader, b, _ := setup(t, cache)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "categories", []byte("{not json")))

	cats, err := loader.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 2)
	assert.Equal(t, 1, b.Hits(http.MethodGet, "/categories/"))

	_, err = loader.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Hits(http.MethodGet, "/categories/"))
}

func TestLoader_CustomerReadsBypassCache(t *testing.T) {
	loader, b, client := setup(t, NewMemoryCache(8, time.Minute))
	ctx := context.Background()
	b.AddUser("jane@example.com", "s3cret-pass", "Jane", "Wanjiru")
	resp, err := client.Login(ctx, domain.Credentials{Email: "jane@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.NoError(t, tokens.SavePair(ctx, client.Tokens(), resp.Tokens))

	for range 2 {
		orders, err := loader.Orders(ctx)
		require.NoError(t, err)
		assert.Empty(t, orders)
		user, err := loader.Profile(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Jane", user.FirstName)
	}
	assert.Equal(t, 2, b.Hits(http.MethodGet, "/orders/"))
	assert.Equal(t, 2, b.Hits(http.MethodGet, "/auth/profile/"))

	_, err = loader.OrderDetail(ctx, uuid.New())
	assert.True(t, api.IsStatus(err, http.StatusNotFound))
}
