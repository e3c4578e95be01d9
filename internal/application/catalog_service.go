package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-storefront/internal/domain/entity"
	repo "github.com/oksasatya/go-storefront/internal/domain/repository"
)

const (
	defaultPageSize    = 20
	maxPageSize        = 100
	productReviewLimit = 20
	featuredCount      = 4
	dealsPageSize      = 8
)

type CatalogService struct {
	Products repo.ProductRepository
	Reviews  repo.ReviewRepository
	Users    repo.UserRepository
	Logger   *logrus.Logger
	Now      func() time.Time
}

func NewCatalogService(products repo.ProductRepository, reviews repo.ReviewRepository, users repo.UserRepository, logger *logrus.Logger) *CatalogService {
	return &CatalogService{Products: products, Reviews: reviews, Users: users, Logger: logger, Now: time.Now}
}

type ProductQuery struct {
	Category string
	Page     int
	Limit    int
}

type ProductPage struct {
	Items []entity.Product
	Total int64
	Page  int
	Limit int
}

func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	items, total, err := s.Products.List(ctx, repo.ProductFilter{
		Category: strings.TrimSpace(q.Category),
		Page:     q.Page,
		Limit:    q.Limit,
	})
	if err != nil {
		return nil, internal("list products", err)
	}
	return &ProductPage{Items: items, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

// FeaturedProducts returns a random handful of products for the home page.
func (s *CatalogService) FeaturedProducts(ctx context.Context) ([]entity.Product, error) {
	items, err := s.Products.Sample(ctx, featuredCount)
	if err != nil {
		return nil, internal("sample products", err)
	}
	return items, nil
}

// Deals pages through discounted products, a fixed number per page.
func (s *CatalogService) Deals(ctx context.Context, page int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	items, total, err := s.Products.Deals(ctx, repo.ProductFilter{Page: page, Limit: dealsPageSize})
	if err != nil {
		return nil, internal("list deals", err)
	}
	return &ProductPage{Items: items, Total: total, Page: page, Limit: dealsPageSize}, nil
}

type ProductDetail struct {
	Product *entity.Product
	Reviews []entity.Review
}

func (s *CatalogService) GetProduct(ctx context.Context, productID string) (*ProductDetail, error) {
	p, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	reviews, err := s.Reviews.ListByProduct(ctx, productID, productReviewLimit)
	if err != nil {
		return nil, internal("list reviews", err)
	}
	return &ProductDetail{Product: p, Reviews: reviews}, nil
}

// AddReview stores the review and refreshes the product's cached rating.
// A failed refresh leaves the previous rating in place.
func (s *CatalogService) AddReview(ctx context.Context, userID, productID string, rating int, comment string) (*entity.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	if _, err := s.product(ctx, productID); err != nil {
		return nil, err
	}
	u, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, internal("load user", err)
	}

	rv := &entity.Review{
		ProductID: productID,
		UserID:    userID,
		Username:  u.Username,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: s.Now(),
	}
	if err := s.Reviews.Create(ctx, rv); err != nil {
		return nil, internal("create review", err)
	}
	metricReviews.Add(1)

	log := s.Logger.WithField("product_id", productID)
	summary, err := s.Reviews.Summarize(ctx, productID)
	if err != nil {
		log.WithError(err).Warn("summarize reviews failed")
		return rv, nil
	}
	if err := s.Products.UpdateRating(ctx, productID, summary); err != nil {
		log.WithError(err).Warn("update product rating failed")
	}
	return rv, nil
}

func (s *CatalogService) product(ctx context.Context, productID string) (*entity.Product, error) {
	if !s.Products.ValidID(productID) {
		return nil, ErrInvalidProductID
	}
	p, err := s.Products.GetByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, internal("load product", err)
	}
	return p, nil
}
