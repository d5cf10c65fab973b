package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steve-ongera/phoneplace-kenya/internal/api"
	"github.com/steve-ongera/phoneplace-kenya/internal/catalog"
	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
)

// render loads a view within the command's lifetime and prints it unless the
// command was interrupted first.
func render[T any](ctx context.Context, load func(context.Context) T, show func(T)) {
	l := catalog.NewLifetime(ctx)
	defer l.Close()
	catalog.Bind(l, load, show)
}

func printProductSection(w io.Writer, title string, s catalog.Section[[]domain.ProductSummary]) {
	printHeading(w, title)
	if !s.OK() {
		printSectionError(w, s.Err)
		return
	}
	printProducts(w, s.Data)
}

var brandTitles = map[string]string{
	"xiaomi":  "Xiaomi Deals",
	"oppo":    "Oppo Deals",
	"apple":   "iPhone Deals",
	"infinix": "Infinix Deals",
	"samsung": "Samsung Galaxy",
}

func homeCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show the home page sections",
		Run: func(cmd *cobra.Command, args []string) {
			a := get()
			out := cmd.OutOrStdout()
			render(cmd.Context(), a.loader.Home, func(v *catalog.HomeView) {
				if v.Hero.OK() {
					for _, b := range v.Hero.Data {
						fmt.Fprintf(out, "%s %s\n", color.MagentaString("▶"), b.Title)
					}
				}
				printProductSection(out, "Featured", v.Featured)
				printProductSection(out, "New Arrivals", v.NewArrivals)
				printProductSection(out, "This Week's Best-sellers", v.BestSellers)
				for _, s := range v.Brands {
					printProductSection(out, brandTitles[s.Slug], s.Products)
				}
			})
		},
	}
}

func productsCmd(get func() *app) *cobra.Command {
	var q api.ProductQuery
	cmd := &cobra.Command{
		Use:   "products [search terms]",
		Short: "List products with filters and paging",
		Run: func(cmd *cobra.Command, args []string) {
			a := get()
			out := cmd.OutOrStdout()
			if len(args) > 0 {
				q.Search = strings.Join(args, " ")
			}
			render(cmd.Context(), func(ctx context.Context) *catalog.ProductsView {
				return a.loader.Products(ctx, q)
			}, func(v *catalog.ProductsView) {
				if !v.Page.OK() {
					printHeading(out, "Products")
					printSectionError(out, v.Page.Err)
				} else {
					printHeading(out, fmt.Sprintf("Products (%d found, page %d of %d)", v.Page.Data.Count, v.Query.Page, v.PageCount()))
					printProducts(out, v.Page.Data.Results)
				}
				if v.Categories.OK() {
					slugs := make([]string, 0, len(v.Categories.Data))
					for _, c := range v.Categories.Data {
						slugs = append(slugs, c.Slug)
					}
					fmt.Fprintf(out, "\n  categories: %s\n", strings.Join(slugs, ", "))
				}
				if v.Brands.OK() {
					slugs := make([]string, 0, len(v.Brands.Data))
					for _, b := range v.Brands.Data {
						slugs = append(slugs, b.Slug)
					}
					fmt.Fprintf(out, "  brands: %s\n", strings.Join(slugs, ", "))
				}
			})
		},
	}
	f := cmd.Flags()
	f.IntVar(&q.Page, "page", 1, "result page")
	f.StringVar(&q.Ordering, "sort", api.DefaultOrdering, "ordering: -created_at, min_price, -min_price")
	f.StringVar(&q.Category, "category", "", "category slug")
	f.StringVar(&q.Brand, "brand", "", "brand slug")
	return cmd
}

func productCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "product <slug>",
		Short: "Show a product with its variants and related products",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			out := cmd.OutOrStdout()
			var loadErr error
			render(cmd.Context(), func(ctx context.Context) *catalog.ProductDetailView {
				return a.loader.ProductDetail(ctx, args[0])
			}, func(v *catalog.ProductDetailView) {
				if !v.Product.OK() {
					loadErr = v.Product.Err
					return
				}
				p := v.Product.Data
				saved := ""
				if a.store.State().InWishlist(p.ID) {
					saved = color.RedString(" ♥")
				}
				printHeading(out, p.Name+saved)
				if p.Brand != nil {
					fmt.Fprintf(out, "  Brand: %s\n", p.Brand.Name)
				}
				if p.ShortDescription != "" {
					fmt.Fprintf(out, "  %s\n", p.ShortDescription)
				}
				for _, vr := range p.Variants {
					price := vr.EffectivePrice.String()
					if vr.SalePrice != nil {
						price += color.New(color.CrossedOut).Sprintf(" %s", vr.Price) + color.GreenString(" -%d%%", vr.DiscountPercentage)
					}
					fmt.Fprintf(out, "  [%d] %s  %s  (%d in stock)\n", vr.ID, vr.Name, price, vr.Stock)
				}
				if len(p.Variants) == 0 && p.MinPrice != nil {
					fmt.Fprintf(out, "  %s\n", p.MinPrice)
				}
				for _, s := range p.Specifications {
					fmt.Fprintf(out, "  %s: %s\n", s.Key, s.Value)
				}
				printProductSection(out, "You may also like", v.Related)
				if v.RecentlyViewed.OK() && len(v.RecentlyViewed.Data) > 0 {
					recent := make([]domain.ProductSummary, 0, len(v.RecentlyViewed.Data))
					for _, rv := range v.RecentlyViewed.Data {
						recent = append(recent, rv.Product)
					}
					printProductSection(out, "Recently viewed", catalog.Section[[]domain.ProductSummary]{Data: recent})
				}
			})
			return loadErr
		},
	}
}

func categoryCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "category [slug]",
		Short: "List categories, or the products of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				cats, err := a.loader.Categories(cmd.Context())
				if err != nil {
					return err
				}
				printHeading(out, "Categories")
				for _, c := range cats {
					fmt.Fprintf(out, "  %s\t%s\n", c.Slug, c.Name)
				}
				return nil
			}
			render(cmd.Context(), func(ctx context.Context) *catalog.CategoryView {
				return a.loader.Category(ctx, args[0])
			}, func(v *catalog.CategoryView) {
				printProductSection(out, v.Title(), v.Products)
			})
			return nil
		},
	}
}

func brandCmd(get func() *app) *cobra.Command {
	var featured bool
	cmd := &cobra.Command{
		Use:   "brand [slug]",
		Short: "List brands, or the products of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				load := a.loader.Brands
				if featured {
					load = a.loader.FeaturedBrands
				}
				brands, err := load(cmd.Context())
				if err != nil {
					return err
				}
				printHeading(out, "Brands")
				for _, b := range brands {
					fmt.Fprintf(out, "  %s\t%s\t%d products\n", b.Slug, b.Name, b.ProductCount)
				}
				return nil
			}
			render(cmd.Context(), func(ctx context.Context) *catalog.BrandView {
				return a.loader.Brand(ctx, args[0])
			}, func(v *catalog.BrandView) {
				printProductSection(out, v.Title(), v.Products)
			})
			return nil
		},
	}
	cmd.Flags().BoolVar(&featured, "featured", false, "only featured brands")
	return cmd
}
