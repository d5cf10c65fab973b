// Package catalog loads the data behind each storefront view. Multi-call
// views fetch their sections concurrently and settle each one on its own,
// so a failing section never hides the others.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/steve-ongera/phoneplace-kenya/internal/api"
	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
	"github.com/steve-ongera/phoneplace-kenya/internal/metrics"
)

// Backend is the part of the REST client the views read from.
type Backend interface {
	Products(ctx context.Context, q api.ProductQuery) (*domain.Page[domain.ProductSummary], error)
	Product(ctx context.Context, slug string) (*domain.Product, error)
	Related(ctx context.Context, slug string) ([]domain.ProductSummary, error)
	Featured(ctx context.Context) ([]domain.ProductSummary, error)
	BestSellers(ctx context.Context) ([]domain.ProductSummary, error)
	NewArrivals(ctx context.Context) ([]domain.ProductSummary, error)
	ByCategory(ctx context.Context, slug string) ([]domain.ProductSummary, error)
	ByBrand(ctx context.Context, slug string) ([]domain.ProductSummary, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Brands(ctx context.Context) ([]domain.Brand, error)
	FeaturedBrands(ctx context.Context) ([]domain.Brand, error)
	HeroBanners(ctx context.Context) ([]domain.Banner, error)
	RecentlyViewed(ctx context.Context) ([]domain.RecentlyViewed, error)
	Orders(ctx context.Context) ([]domain.Order, error)
	Order(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	Profile(ctx context.Context) (*domain.User, error)
}

// Loader builds views. Public catalog reads go through the cache when one is
// configured; anything tied to the signed-in customer never does.
type Loader struct {
	api    Backend
	cache  Cache
	sfg    singleflight.Group // Prevents cache stampede
	logger *slog.Logger
}

// NewLoader returns a Loader. cache may be nil to always hit the backend.
func NewLoader(backend Backend, cache Cache, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		api:    backend,
		cache:  cache,
		logger: logger.With("component", "catalog"),
	}
}

// cached reads key from the cache, falling back to fetch and storing its
// result. Concurrent misses for the same key share one fetch, which runs
// detached from any single caller so one view closing does not fail the
// others; each caller still stops waiting when its own ctx is done. Every
// caller decodes its own copy of the result.
func cached[T any](ctx context.Context, l *Loader, key string, fetch func(context.Context) (T, error)) (T, error) {
	var out T
	if l.cache == nil {
		return fetch(ctx)
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	detached := context.WithoutCancel(ctx)
	ch := l.sfg.DoChan(key, func() (any, error) {
		data, err := l.cache.Get(detached, key)
		switch {
		case err == nil:
			var check T
			if jerr := json.Unmarshal(data, &check); jerr == nil {
				metrics.CacheLookups.WithLabelValues("hit").Inc()
				return data, nil
			}
			l.logger.Warn("dropping undecodable cache entry", "key", key)
			if derr := l.cache.Delete(detached, key); derr != nil {
				l.logger.Warn("cache delete error", "key", key, "err", derr)
			}
		case !errors.Is(err, ErrCacheMiss):
			l.logger.Warn("cache get error", "key", key, "err", err)
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()

		fresh, err := fetch(detached)
		if err != nil {
			return nil, err
		}
		data, err = json.Marshal(fresh)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		setCtx, cancel := context.WithTimeout(detached, time.Second)
		defer cancel()
		if serr := l.cache.Set(setCtx, key, data); serr != nil {
			l.logger.Warn("cache set error", "key", key, "err", serr)
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		return out, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return out, res.Err
		}
		if err := json.Unmarshal(res.Val.([]byte), &out); err != nil {
			return out, fmt.Errorf("decode %s: %w", key, err)
		}
		return out, nil
	}
}

func (l *Loader) Categories(ctx context.Context) ([]domain.Category, error) {
	return cached(ctx, l, "categories", l.api.Categories)
}

func (l *Loader) Brands(ctx context.Context) ([]domain.Brand, error) {
	return cached(ctx, l, "brands", l.api.Brands)
}

func (l *Loader) FeaturedBrands(ctx context.Context) ([]domain.Brand, error) {
	return cached(ctx, l, "brands:featured", l.api.FeaturedBrands)
}

func (l *Loader) byBrand(ctx context.Context, slug string) ([]domain.ProductSummary, error) {
	return cached(ctx, l, "products:brand:"+slug, func(ctx context.Context) ([]domain.ProductSummary, error) {
		return l.api.ByBrand(ctx, slug)
	})
}

func (l *Loader) byCategory(ctx context.Context, slug string) ([]domain.ProductSummary, error) {
	return cached(ctx, l, "products:category:"+slug, func(ctx context.Context) ([]domain.ProductSummary, error) {
		return l.api.ByCategory(ctx, slug)
	})
}

// Orders lists the customer's orders, newest first.
func (l *Loader) Orders(ctx context.Context) ([]domain.Order, error) {
	return l.api.Orders(ctx)
}

func (l *Loader) OrderDetail(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return l.api.Order(ctx, id)
}

func (l *Loader) Profile(ctx context.Context) (*domain.User, error) {
	return l.api.Profile(ctx)
}
