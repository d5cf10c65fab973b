package catalog

import (
	"context"
	"sync"

	"github.com/steve-ongera/phoneplace-kenya/internal/api"
	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
)

// Section is one independently loaded part of a view.
type Section[T any] struct {
	Data T
	Err  error
}

func (s Section[T]) OK() bool { return s.Err == nil }

func settle[T any](wg *sync.WaitGroup, dst *Section[T], fetch func() (T, error)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		dst.Data, dst.Err = fetch()
	}()
}

// HomeBrands are the brands given their own product row on the home page.
var HomeBrands = []string{"xiaomi", "oppo", "apple", "infinix", "samsung"}

type BrandSection struct {
	Slug     string
	Products Section[[]domain.ProductSummary]
}

type HomeView struct {
	Hero        Section[[]domain.Banner]
	Featured    Section[[]domain.ProductSummary]
	BestSellers Section[[]domain.ProductSummary]
	NewArrivals Section[[]domain.ProductSummary]
	Brands      []BrandSection
}

func (l *Loader) Home(ctx context.Context) *HomeView {
	v := &HomeView{Brands: make([]BrandSection, len(HomeBrands))}
	var wg sync.WaitGroup
	settle(&wg, &v.Hero, func() ([]domain.Banner, error) {
		return cached(ctx, l, "banners:hero", l.api.HeroBanners)
	})
	settle(&wg, &v.Featured, func() ([]domain.ProductSummary, error) {
		return cached(ctx, l, "products:featured", l.api.Featured)
	})
	settle(&wg, &v.BestSellers, func() ([]domain.ProductSummary, error) {
		return cached(ctx, l, "products:best_sellers", l.api.BestSellers)
	})
	settle(&wg, &v.NewArrivals, func() ([]domain.ProductSummary, error) {
		return cached(ctx, l, "products:new_arrivals", l.api.NewArrivals)
	})
	for i, slug := range HomeBrands {
		v.Brands[i].Slug = slug
		settle(&wg, &v.Brands[i].Products, func() ([]domain.ProductSummary, error) {
			return l.byBrand(ctx, slug)
		})
	}
	wg.Wait()
	return v
}

type ProductDetailView struct {
	Product        Section[*domain.Product]
	Related        Section[[]domain.ProductSummary]
	RecentlyViewed Section[[]domain.RecentlyViewed]
}

// ProductDetail always reads the product itself from the backend: stock and
// prices must be current, and the read records the visit.
func (l *Loader) ProductDetail(ctx context.Context, slug string) *ProductDetailView {
	v := &ProductDetailView{}
	var wg sync.WaitGroup
	settle(&wg, &v.Product, func() (*domain.Product, error) {
		return l.api.Product(ctx, slug)
	})
	settle(&wg, &v.Related, func() ([]domain.ProductSummary, error) {
		return cached(ctx, l, "products:related:"+slug, func(ctx context.Context) ([]domain.ProductSummary, error) {
			return l.api.Related(ctx, slug)
		})
	})
	settle(&wg, &v.RecentlyViewed, func() ([]domain.RecentlyViewed, error) {
		return l.api.RecentlyViewed(ctx)
	})
	wg.Wait()
	return v
}

type ProductsView struct {
	Query      api.ProductQuery
	Page       Section[*domain.Page[domain.ProductSummary]]
	Categories Section[[]domain.Category]
	Brands     Section[[]domain.Brand]
}

// PageCount is the number of result pages, zero when the page failed.
func (v *ProductsView) PageCount() int {
	if !v.Page.OK() || v.Page.Data == nil {
		return 0
	}
	return domain.PageCount(v.Page.Data.Count)
}

// Products loads one page of the filtered listing with the filter sidebars.
// An empty ordering means newest first.
func (l *Loader) Products(ctx context.Context, q api.ProductQuery) *ProductsView {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Ordering == "" {
		q.Ordering = api.DefaultOrdering
	}
	v := &ProductsView{Query: q}
	var wg sync.WaitGroup
	settle(&wg, &v.Page, func() (*domain.Page[domain.ProductSummary], error) {
		return cached(ctx, l, "products:list"+q.Encode(), func(ctx context.Context) (*domain.Page[domain.ProductSummary], error) {
			return l.api.Products(ctx, q)
		})
	})
	settle(&wg, &v.Categories, func() ([]domain.Category, error) { return l.Categories(ctx) })
	settle(&wg, &v.Brands, func() ([]domain.Brand, error) { return l.Brands(ctx) })
	wg.Wait()
	return v
}

type CategoryView struct {
	Slug     string
	Category Section[*domain.Category]
	Products Section[[]domain.ProductSummary]
}

// Title is the category name, or the slug when the category is unknown.
func (v *CategoryView) Title() string {
	if v.Category.Data != nil {
		return v.Category.Data.Name
	}
	return v.Slug
}

func (l *Loader) Category(ctx context.Context, slug string) *CategoryView {
	v := &CategoryView{Slug: slug}
	var wg sync.WaitGroup
	settle(&wg, &v.Category, func() (*domain.Category, error) {
		cats, err := l.Categories(ctx)
		if err != nil {
			return nil, err
		}
		return findCategory(cats, slug), nil
	})
	settle(&wg, &v.Products, func() ([]domain.ProductSummary, error) { return l.byCategory(ctx, slug) })
	wg.Wait()
	return v
}

func findCategory(cats []domain.Category, slug string) *domain.Category {
	for i := range cats {
		if cats[i].Slug == slug {
			return &cats[i]
		}
		if c := findCategory(cats[i].Subcategories, slug); c != nil {
			return c
		}
	}
	return nil
}

type BrandView struct {
	Slug     string
	Brand    Section[*domain.Brand]
	Products Section[[]domain.ProductSummary]
}

func (v *BrandView) Title() string {
	if v.Brand.Data != nil {
		return v.Brand.Data.Name
	}
	return v.Slug
}

func (l *Loader) Brand(ctx context.Context, slug string) *BrandView {
	v := &BrandView{Slug: slug}
	var wg sync.WaitGroup
	settle(&wg, &v.Brand, func() (*domain.Brand, error) {
		brands, err := l.Brands(ctx)
		if err != nil {
			return nil, err
		}
		for i := range brands {
			if brands[i].Slug == slug {
				return &brands[i], nil
			}
		}
		return nil, nil
	})
	settle(&wg, &v.Products, func() ([]domain.ProductSummary, error) { return l.byBrand(ctx, slug) })
	wg.Wait()
	return v
}
