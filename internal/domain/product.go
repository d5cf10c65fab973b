package domain

import (
	"time"

	"github.com/google/uuid"
)

type Image struct {
	ID        int    `json:"id"`
	Image     string `json:"image"`
	AltText   string `json:"alt_text"`
	IsPrimary bool   `json:"is_primary"`
	Order     int    `json:"order"`
}

// ProductSummary is the lightweight listing shape used by every list endpoint,
// cart items, wishlist entries and recently viewed products.
type ProductSummary struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	BrandName        string    `json:"brand_name"`
	CategoryName     string    `json:"category_name"`
	MainImage        *Image    `json:"main_image"`
	MinPrice         *Money    `json:"min_price"`
	MaxPrice         *Money    `json:"max_price"`
	ShortDescription string    `json:"short_description"`
	IsFeatured       bool      `json:"is_featured"`
	IsHot            bool      `json:"is_hot"`
	IsNew            bool      `json:"is_new"`
	AverageRating    float64   `json:"average_rating"`
	ReviewCount      int       `json:"review_count"`
	CreatedAt        time.Time `json:"created_at"`
}

type Variant struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	Storage            string `json:"storage"`
	Color              string `json:"color"`
	RAM                string `json:"ram"`
	Price              Money  `json:"price"`
	SalePrice          *Money `json:"sale_price"`
	EffectivePrice     Money  `json:"effective_price"`
	DiscountPercentage int    `json:"discount_percentage"`
	Stock              int    `json:"stock"`
	IsActive           bool   `json:"is_active"`
}

type Specification struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Order int    `json:"order"`
}

type Review struct {
	ID                 int       `json:"id"`
	UserName           string    `json:"user_name"`
	Rating             int       `json:"rating"`
	Title              string    `json:"title"`
	Comment            string    `json:"comment"`
	IsVerifiedPurchase bool      `json:"is_verified_purchase"`
	CreatedAt          time.Time `json:"created_at"`
}

// Product is the full detail shape returned by /products/{slug}/.
type Product struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Slug             string          `json:"slug"`
	SKU              string          `json:"sku"`
	Brand            *Brand          `json:"brand"`
	Category         *Category       `json:"category"`
	Description      string          `json:"description"`
	ShortDescription string          `json:"short_description"`
	Condition        string          `json:"condition"`
	Images           []Image         `json:"images"`
	Variants         []Variant       `json:"variants"`
	Specifications   []Specification `json:"specifications"`
	Reviews          []Review        `json:"reviews"`
	IsFeatured       bool            `json:"is_featured"`
	IsHot            bool            `json:"is_hot"`
	IsNew            bool            `json:"is_new"`
	MinPrice         *Money          `json:"min_price"`
	MaxPrice         *Money          `json:"max_price"`
	AverageRating    float64         `json:"average_rating"`
	ReviewCount      int             `json:"review_count"`
	Tags             string          `json:"tags"`
	CreatedAt        time.Time       `json:"created_at"`
}

type Category struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	Icon          string     `json:"icon"`
	Image         string     `json:"image"`
	Parent        *int       `json:"parent"`
	Subcategories []Category `json:"subcategories"`
	IsActive      bool       `json:"is_active"`
	Order         int        `json:"order"`
}

type Brand struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Logo         string `json:"logo"`
	Description  string `json:"description"`
	IsFeatured   bool   `json:"is_featured"`
	ProductCount int    `json:"product_count"`
}

type Banner struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Image       string `json:"image"`
	MobileImage string `json:"mobile_image"`
	Link        string `json:"link"`
	Position    string `json:"position"`
	BadgeText   string `json:"badge_text"`
	BadgeColor  string `json:"badge_color"`
	Order       int    `json:"order"`
}

type RecentlyViewed struct {
	Product  ProductSummary `json:"product"`
	ViewedAt time.Time      `json:"viewed_at"`
}

type WishlistItem struct {
	ID      int            `json:"id"`
	Product ProductSummary `json:"product"`
	AddedAt time.Time      `json:"added_at"`
}

// Page is the DRF pagination envelope.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// PageSize matches the backend's REST_FRAMEWORK PAGE_SIZE.
const PageSize = 20

// PageCount returns how many pages of PageSize are needed for count items.
func PageCount(count int) int {
	if count <= 0 {
		return 0
	}
	return (count + PageSize - 1) / PageSize
}
