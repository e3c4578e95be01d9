package cache

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-storefront/internal/domain/entity"
	"github.com/oksasatya/go-storefront/internal/domain/repository"
)

type stubProducts struct {
	gets    int
	updated []string
	err     error
}

func (s *stubProducts) ValidID(id string) bool { return id != "" }

func (s *stubProducts) GetByID(_ context.Context, id string) (*entity.Product, error) {
	s.gets++
	if s.err != nil {
		return nil, s.err
	}
	return &entity.Product{ID: id, Name: "Canvas Tote"}, nil
}

func (s *stubProducts) GetByIDs(context.Context, []string) ([]entity.Product, error) {
	return nil, nil
}

func (s *stubProducts) List(context.Context, repository.ProductFilter) ([]entity.Product, int64, error) {
	return nil, 0, nil
}

func (s *stubProducts) Sample(context.Context, int) ([]entity.Product, error) {
	return nil, nil
}

func (s *stubProducts) Deals(context.Context, repository.ProductFilter) ([]entity.Product, int64, error) {
	return nil, 0, nil
}

func (s *stubProducts) UpdateRating(_ context.Context, id string, _ entity.RatingSummary) error {
	if s.err != nil {
		return s.err
	}
	s.updated = append(s.updated, id)
	return nil
}

// unreachable Redis: every command fails immediately.
func downRedis() *redis.Client {
	return redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestProductCacheFailsOpen(t *testing.T) {
	next := &stubProducts{}
	rdb := downRedis()
	defer rdb.Close()
	repo := NewProductRepository(next, rdb, time.Minute, quiet())
	ctx := context.Background()

	p, err := repo.GetByID(ctx, "p1")
	if err != nil || p.Name != "Canvas Tote" {
		t.Fatalf("GetByID = %v, %v", p, err)
	}
	if next.gets != 1 {
		t.Fatalf("store reads = %d", next.gets)
	}
	if err := repo.UpdateRating(ctx, "p1", entity.RatingSummary{Average: 4, Count: 1}); err != nil {
		t.Fatalf("UpdateRating: %v", err)
	}
	if len(next.updated) != 1 {
		t.Fatal("rating not written to the store")
	}
	if !repo.ValidID("p1") {
		t.Fatal("ValidID should pass through")
	}
}

func TestProductCachePropagatesStoreErrors(t *testing.T) {
	next := &stubProducts{err: repository.ErrNotFound}
	rdb := downRedis()
	defer rdb.Close()
	repo := NewProductRepository(next, rdb, time.Minute, quiet())

	if _, err := repo.GetByID(context.Background(), "p1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("GetByID err = %v", err)
	}
	if err := repo.UpdateRating(context.Background(), "p1", entity.RatingSummary{}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("UpdateRating err = %v", err)
	}
}
