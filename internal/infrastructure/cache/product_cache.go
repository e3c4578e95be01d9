package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-storefront/internal/domain/entity"
	"github.com/oksasatya/go-storefront/internal/domain/repository"
	"github.com/oksasatya/go-storefront/pkg/helpers"
)

const productKeyPrefix = "product:"

// ProductRepository serves product reads from Redis before the wrapped store.
// Redis failures fall through to the store.
type ProductRepository struct {
	repository.ProductRepository
	rdb    *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewProductRepository(next repository.ProductRepository, rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *ProductRepository {
	return &ProductRepository{ProductRepository: next, rdb: rdb, ttl: ttl, logger: logger}
}

func productKey(id string) string { return productKeyPrefix + id }

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var cached entity.Product
	hit, err := helpers.RedisGetJSON(ctx, r.rdb, productKey(id), &cached)
	if err != nil {
		r.logger.WithError(err).WithField("product_id", id).Warn("product cache read failed")
	}
	if hit {
		return &cached, nil
	}

	p, err := r.ProductRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := helpers.RedisSetJSON(ctx, r.rdb, productKey(id), p, r.ttl); err != nil {
		r.logger.WithError(err).WithField("product_id", id).Warn("product cache write failed")
	}
	return p, nil
}

func (r *ProductRepository) UpdateRating(ctx context.Context, id string, s entity.RatingSummary) error {
	if err := r.ProductRepository.UpdateRating(ctx, id, s); err != nil {
		return err
	}
	if err := helpers.RedisDel(ctx, r.rdb, productKey(id)); err != nil {
		r.logger.WithError(err).WithField("product_id", id).Warn("product cache invalidate failed")
	}
	return nil
}

var _ repository.ProductRepository = (*ProductRepository)(nil)
