package repository

import (
	"context"

	"github.com/oksasatya/go-storefront/internal/domain/entity"
)

type CartRepository interface {
	Get(ctx context.Context, userID string) (*entity.Cart, error)
	// GetForUpdate locks the cart for the rest of the transaction.
	GetForUpdate(ctx context.Context, userID string) (*entity.Cart, error)
	// Upsert writes the whole cart keyed by user id.
	Upsert(ctx context.Context, c *entity.Cart) error
}

type OrderRepository interface {
	Create(ctx context.Context, o *entity.Order) error
	// ListByUser returns orders newest first.
	ListByUser(ctx context.Context, userID string) ([]entity.Order, error)
	// GetByID returns ErrNotFound when the order belongs to someone else.
	GetByID(ctx context.Context, userID, id string) (*entity.Order, error)
	PurchasedProductIDs(ctx context.Context, userID string) ([]string, error)
}

type ProductFilter struct {
	Category string
	Page     int
	Limit    int
}

type ProductRepository interface {
	// ValidID reports whether id has the catalog's identifier format.
	ValidID(id string) bool
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]entity.Product, error)
	List(ctx context.Context, f ProductFilter) ([]entity.Product, int64, error)
	// Sample returns up to n products picked at random.
	Sample(ctx context.Context, n int) ([]entity.Product, error)
	// Deals lists products whose original price is above the current price,
	// newest first. Category is ignored.
	Deals(ctx context.Context, f ProductFilter) ([]entity.Product, int64, error)
	UpdateRating(ctx context.Context, id string, s entity.RatingSummary) error
}

type ReviewRepository interface {
	Create(ctx context.Context, r *entity.Review) error
	ListByProduct(ctx context.Context, productID string, limit int) ([]entity.Review, error)
	Summarize(ctx context.Context, productID string) (entity.RatingSummary, error)
}
