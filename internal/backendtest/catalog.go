package backendtest

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
)

// Seeded product slugs.
const (
	RedmiNote13   = "redmi-note-13"
	IPhone15      = "iphone-15"
	GalaxyA15     = "galaxy-a15"
	Hot40Pro      = "hot-40-pro"
	OppoA78       = "oppo-a78"
	XiaomiCharger = "xiaomi-33w-charger"
)

// Seeded category slugs.
const (
	Smartphones = "smartphones"
	Accessories = "accessories"
)

type productSeed struct {
	slug, name, brand, category string
	price                       int64
	variants                    []domain.Variant
	featured, hot, isNew        bool
}

func variant(id int, name string, price int64, sale int64) domain.Variant {
	v := domain.Variant{ID: id, Name: name, Price: domain.KSh(price), EffectivePrice: domain.KSh(price), Stock: 10, IsActive: true}
	if sale > 0 {
		s := domain.KSh(sale)
		v.SalePrice = &s
		v.EffectivePrice = s
		v.DiscountPercentage = int((price - sale) * 100 / price)
	}
	return v
}

func (b *Backend) seedCatalog() {
	b.brands = []domain.Brand{
		{ID: 1, Name: "Xiaomi", Slug: "xiaomi"},
		{ID: 2, Name: "Oppo", Slug: "oppo"},
		{ID: 3, Name: "Apple", Slug: "apple", IsFeatured: true},
		{ID: 4, Name: "Infinix", Slug: "infinix"},
		{ID: 5, Name: "Samsung", Slug: "samsung", IsFeatured: true},
	}
	b.categories = []domain.Category{
		{ID: 1, Name: "Smartphones", Slug: Smartphones, IsActive: true, Order: 1},
		{ID: 2, Name: "Accessories", Slug: Accessories, IsActive: true, Order: 2},
	}
	b.banners = []domain.Banner{
		{ID: 1, Title: "iPhone 15 is here", Position: "hero", Link: "/products/iphone-15", Order: 1},
		{ID: 2, Title: "Redmi Note 13 deals", Position: "hero", Link: "/products/redmi-note-13", Order: 2},
		{ID: 3, Title: "Free delivery in Nairobi", Position: "promo", Order: 3},
	}

	seeds := []productSeed{
		{slug: RedmiNote13, name: "Redmi Note 13", brand: "xiaomi", category: Smartphones, featured: true, isNew: true,
			variants: []domain.Variant{variant(101, "8GB/256GB", 25000, 0), variant(102, "8GB/512GB", 29000, 27500)}},
		{slug: IPhone15, name: "iPhone 15", brand: "apple", category: Smartphones, featured: true, hot: true,
			variants: []domain.Variant{variant(201, "128GB", 120000, 115000)}},
		{slug: GalaxyA15, name: "Galaxy A15", brand: "samsung", category: Smartphones, hot: true,
			variants: []domain.Variant{variant(301, "6GB/128GB", 20000, 0)}},
		{slug: Hot40Pro, name: "Hot 40 Pro", brand: "infinix", category: Smartphones, isNew: true,
			variants: []domain.Variant{variant(401, "8GB/256GB", 17000, 0)}},
		{slug: OppoA78, name: "Oppo A78", brand: "oppo", category: Smartphones,
			variants: []domain.Variant{variant(501, "8GB/128GB", 24000, 0)}},
		{slug: XiaomiCharger, name: "Xiaomi 33W Charger", brand: "xiaomi", category: Accessories, hot: true, price: 1000},
	}

	created := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	for i, s := range seeds {
		brand := b.brandBySlug(s.brand)
		cat := b.categoryBySlug(s.category)
		brand.ProductCount++
		p := &domain.Product{
			ID:               uuid.NewSHA1(uuid.NameSpaceURL, []byte("phoneplace:"+s.slug)),
			Name:             s.name,
			Slug:             s.slug,
			SKU:              fmt.Sprintf("PP-%04d", i+1),
			Brand:            brand,
			Category:         cat,
			ShortDescription: s.name + " in stock",
			Condition:        "new",
			Variants:         s.variants,
			IsFeatured:       s.featured,
			IsHot:            s.hot,
			IsNew:            s.isNew,
			CreatedAt:        created.Add(time.Duration(i) * 24 * time.Hour),
		}
		if len(s.variants) > 0 {
			lo, hi := s.variants[0].EffectivePrice, s.variants[0].EffectivePrice
			for _, v := range s.variants[1:] {
				lo = min(lo, v.EffectivePrice)
				hi = max(hi, v.EffectivePrice)
			}
			p.MinPrice, p.MaxPrice = &lo, &hi
		} else {
			price := domain.KSh(s.price)
			p.MinPrice, p.MaxPrice = &price, &price
		}
		b.products = append(b.products, p)
	}
}

func (b *Backend) brandBySlug(slug string) *domain.Brand {
	for i := range b.brands {
		if b.brands[i].Slug == slug {
			return &b.brands[i]
		}
	}
	return nil
}

func (b *Backend) categoryBySlug(slug string) *domain.Category {
	for i := range b.categories {
		if b.categories[i].Slug == slug {
			return &b.categories[i]
		}
	}
	return nil
}

func (b *Backend) productBySlug(slug string) *domain.Product {
	for _, p := range b.products {
		if p.Slug == slug {
			return p
		}
	}
	return nil
}

func (b *Backend) productByID(id uuid.UUID) *domain.Product {
	for _, p := range b.products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Product returns a seeded product by slug.
func (b *Backend) Product(slug string) domain.Product {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p := b.productBySlug(slug); p != nil {
		return *p
	}
	return domain.Product{}
}

func summary(p *domain.Product) domain.ProductSummary {
	s := domain.ProductSummary{
		ID:               p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		MinPrice:         p.MinPrice,
		MaxPrice:         p.MaxPrice,
		ShortDescription: p.ShortDescription,
		IsFeatured:       p.IsFeatured,
		IsHot:            p.IsHot,
		IsNew:            p.IsNew,
		AverageRating:    p.AverageRating,
		ReviewCount:      p.ReviewCount,
		CreatedAt:        p.CreatedAt,
	}
	if p.Brand != nil {
		s.BrandName = p.Brand.Name
	}
	if p.Category != nil {
		s.CategoryName = p.Category.Name
	}
	return s
}

func (b *Backend) summaries(keep func(*domain.Product) bool, limit int) []domain.ProductSummary {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []domain.ProductSummary{}
	for _, p := range b.products {
		if keep(p) {
			out = append(out, summary(p))
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (b *Backend) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := strings.ToLower(q.Get("search"))
	category := q.Get("category__slug")
	brand := q.Get("brand__slug")

	items := b.summaries(func(p *domain.Product) bool {
		if category != "" && (p.Category == nil || p.Category.Slug != category) {
			return false
		}
		if brand != "" && (p.Brand == nil || p.Brand.Slug != brand) {
			return false
		}
		if search != "" {
			haystack := strings.ToLower(p.Name + " " + p.Description + " " + p.Tags)
			if p.Brand != nil {
				haystack += " " + strings.ToLower(p.Brand.Name)
			}
			if !strings.Contains(haystack, search) {
				return false
			}
		}
		return true
	}, 0)

	ordering := q.Get("ordering")
	if ordering == "" {
		ordering = "-created_at"
	}
	desc := strings.HasPrefix(ordering, "-")
	switch strings.TrimPrefix(ordering, "-") {
	case "created_at":
		slices.SortStableFunc(items, func(x, y domain.ProductSummary) int { return x.CreatedAt.Compare(y.CreatedAt) })
	case "min_price":
		slices.SortStableFunc(items, func(x, y domain.ProductSummary) int {
			return int(priceOf(x) - priceOf(y))
		})
	}
	if desc {
		slices.Reverse(items)
	}

	page := 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondJSON(w, http.StatusNotFound, map[string]string{"detail": "Invalid page."})
			return
		}
		page = n
	}
	start := (page - 1) * domain.PageSize
	if start > 0 && start >= len(items) {
		respondJSON(w, http.StatusNotFound, map[string]string{"detail": "Invalid page."})
		return
	}
	end := min(start+domain.PageSize, len(items))
	respondJSON(w, http.StatusOK, paginate(r, items[start:end], len(items), page))
}

func priceOf(s domain.ProductSummary) domain.Money {
	if s.MinPrice == nil {
		return 0
	}
	return *s.MinPrice
}

func paginate[T any](r *http.Request, results []T, count, page int) domain.Page[T] {
	link := func(p int) *string {
		u := url.URL{Scheme: "http", Host: r.Host, Path: r.URL.Path}
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(p))
		u.RawQuery = q.Encode()
		s := u.String()
		return &s
	}
	out := domain.Page[T]{Count: count, Results: results}
	if page*domain.PageSize < count {
		out.Next = link(page + 1)
	}
	if page > 1 {
		out.Previous = link(page - 1)
	}
	return out
}

func (b *Backend) featured(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, b.summaries(func(p *domain.Product) bool { return p.IsFeatured }, 10))
}

func (b *Backend) bestSellers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, b.summaries(func(p *domain.Product) bool { return p.IsHot }, 10))
}

func (b *Backend) newArrivals(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, b.summaries(func(p *domain.Product) bool { return p.IsNew }, 10))
}

func (b *Backend) byCategory(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		respondError(w, http.StatusBadRequest, "", "slug param required")
		return
	}
	b.mu.Lock()
	found := b.categoryBySlug(slug) != nil
	b.mu.Unlock()
	if !found {
		respondError(w, http.StatusNotFound, "", "Category not found")
		return
	}
	respondJSON(w, http.StatusOK, b.summaries(func(p *domain.Product) bool {
		return p.Category != nil && p.Category.Slug == slug
	}, 0))
}

func (b *Backend) byBrand(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		respondError(w, http.StatusBadRequest, "", "slug param required")
		return
	}
	respondJSON(w, http.StatusOK, b.summaries(func(p *domain.Product) bool {
		return p.Brand != nil && p.Brand.Slug == slug
	}, 0))
}

func (b *Backend) getProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	b.mu.Lock()
	p := b.productBySlug(slug)
	if p == nil {
		b.mu.Unlock()
		respondJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	if key := viewerKey(r); key != "" {
		b.markViewed(key, p)
	}
	out := *p
	b.mu.Unlock()
	respondJSON(w, http.StatusOK, out)
}

func (b *Backend) related(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	b.mu.Lock()
	p := b.productBySlug(slug)
	b.mu.Unlock()
	if p == nil {
		respondJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	respondJSON(w, http.StatusOK, b.summaries(func(o *domain.Product) bool {
		return o.ID != p.ID && o.Category != nil && p.Category != nil && o.Category.Slug == p.Category.Slug
	}, 8))
}

// listCategories answers with a paginated envelope, listBrands with a bare
// array; clients must cope with both.
func (b *Backend) listCategories(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	cats := append([]domain.Category(nil), b.categories...)
	b.mu.Unlock()
	respondJSON(w, http.StatusOK, paginate(r, cats, len(cats), 1))
}

func (b *Backend) listBrands(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	brands := append([]domain.Brand(nil), b.brands...)
	b.mu.Unlock()
	respondJSON(w, http.StatusOK, brands)
}

func (b *Backend) featuredBrands(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := []domain.Brand{}
	for _, br := range b.brands {
		if br.IsFeatured {
			out = append(out, br)
		}
	}
	b.mu.Unlock()
	respondJSON(w, http.StatusOK, out)
}

func (b *Backend) listBanners(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := append([]domain.Banner(nil), b.banners...)
	b.mu.Unlock()
	respondJSON(w, http.StatusOK, out)
}

func (b *Backend) heroBanners(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := []domain.Banner{}
	for _, bn := range b.banners {
		if bn.Position == "hero" {
			out = append(out, bn)
		}
	}
	b.mu.Unlock()
	respondJSON(w, http.StatusOK, out)
}

// viewerKey identifies who is browsing: the user, else the guest session.
func viewerKey(r *http.Request) string {
	if id := getUserID(r.Context()); id != 0 {
		return fmt.Sprintf("user:%d", id)
	}
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return "session:" + c.Value
	}
	return ""
}

func (b *Backend) markViewed(key string, p *domain.Product) {
	views := slices.DeleteFunc(b.viewed[key], func(v domain.RecentlyViewed) bool { return v.Product.ID == p.ID })
	views = append([]domain.RecentlyViewed{{Product: summary(p), ViewedAt: time.Now().UTC()}}, views...)
	if len(views) > 10 {
		views = views[:10]
	}
	b.viewed[key] = views
}

func (b *Backend) recentlyViewed(w http.ResponseWriter, r *http.Request) {
	out := []domain.RecentlyViewed{}
	if key := viewerKey(r); key != "" {
		b.mu.Lock()
		out = append(out, b.viewed[key]...)
		b.mu.Unlock()
	}
	respondJSON(w, http.StatusOK, out)
}
