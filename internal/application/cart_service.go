package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-storefront/internal/domain/entity"
	repo "github.com/oksasatya/go-storefront/internal/domain/repository"
)

// CartService owns the per-user cart. Writes are last-writer-wins.
type CartService struct {
	Carts    repo.CartRepository
	Products repo.ProductRepository
	Pricing  entity.Pricing
	Logger   *logrus.Logger
	Now      func() time.Time
}

func NewCartService(carts repo.CartRepository, products repo.ProductRepository, pricing entity.Pricing, logger *logrus.Logger) *CartService {
	return &CartService{Carts: carts, Products: products, Pricing: pricing, Logger: logger, Now: time.Now}
}

// Get returns the user's cart, creating an empty one on first read.
func (s *CartService) Get(ctx context.Context, userID string) (*entity.Cart, error) {
	c, err := s.Carts.Get(ctx, userID)
	if err == nil {
		c.Recalculate(s.Pricing)
		return c, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, internal("load cart", err)
	}
	c = entity.NewCart(userID, s.Now())
	c.Recalculate(s.Pricing)
	if err := s.Carts.Upsert(ctx, c); err != nil {
		return nil, internal("create cart", err)
	}
	return c, nil
}

// Add puts qty units of a product in the cart at its current catalog price.
// A line already in the cart keeps the price it was added at.
func (s *CartService) Add(ctx context.Context, userID, productID string, qty int) (*entity.Cart, error) {
	p, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(c *entity.Cart) {
		c.Add(entity.CartItem{
			ProductID:  productID,
			Name:       p.Name,
			ImageURL:   p.Thumbnail(),
			PriceAtAdd: p.Price,
		}, qty)
	})
}

// Update sets a line's quantity; qty <= 0 removes the line.
func (s *CartService) Update(ctx context.Context, userID, productID string, qty int) (*entity.Cart, error) {
	if _, err := s.product(ctx, productID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(c *entity.Cart) { c.SetQty(productID, qty) })
}

// Remove only checks the id format so lines for products gone from the catalog can still be dropped.
func (s *CartService) Remove(ctx context.Context, userID, productID string) (*entity.Cart, error) {
	if !s.Products.ValidID(productID) {
		return nil, ErrInvalidProductID
	}
	return s.mutate(ctx, userID, func(c *entity.Cart) { c.Remove(productID) })
}

func (s *CartService) product(ctx context.Context, productID string) (*entity.Product, error) {
	if !s.Products.ValidID(productID) {
		return nil, ErrInvalidProductID
	}
	p, err := s.Products.GetByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) || errors.Is(err, repo.ErrInvalidID) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, internal("load product", err)
	}
	return p, nil
}

func (s *CartService) mutate(ctx context.Context, userID string, fn func(c *entity.Cart)) (*entity.Cart, error) {
	now := s.Now()
	c, err := s.Carts.Get(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		c = entity.NewCart(userID, now)
	} else if err != nil {
		return nil, internal("load cart", err)
	}

	fn(c)
	c.Recalculate(s.Pricing)
	c.UpdatedAt = now
	if err := s.Carts.Upsert(ctx, c); err != nil {
		return nil, internal("save cart", err)
	}
	return c, nil
}
