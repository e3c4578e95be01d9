package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. AverageRating and ReviewCount are cached from reviews.
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	ImageURL      string          `json:"image_url"`
	Images        []string        `json:"images,omitempty"`
	Category      string          `json:"category"`
	Brand         string          `json:"brand,omitempty"`
	Stock         int             `json:"stock"`
	AverageRating float64         `json:"average_rating"`
	ReviewCount   int             `json:"review_count"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PlaceholderImage is shown for products without any image.
const PlaceholderImage = "/placeholder.jpg"

// Thumbnail returns the main image, else the first gallery image, else the placeholder.
func (p Product) Thumbnail() string {
	if p.ImageURL != "" {
		return p.ImageURL
	}
	if len(p.Images) > 0 && p.Images[0] != "" {
		return p.Images[0]
	}
	return PlaceholderImage
}

// OnSale reports whether the product is discounted from its original price.
func (p Product) OnSale() bool {
	return p.OriginalPrice.GreaterThan(p.Price)
}

type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type RatingSummary struct {
	Average float64
	Count   int
}
