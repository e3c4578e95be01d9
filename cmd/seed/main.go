package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/oksasatya/go-storefront/config"
	"github.com/oksasatya/go-storefront/internal/domain/entity"
	"github.com/oksasatya/go-storefront/internal/domain/repository"
	mongoinfra "github.com/oksasatya/go-storefront/internal/infrastructure/mongodb"
	pginfra "github.com/oksasatya/go-storefront/internal/infrastructure/postgres"
	"github.com/oksasatya/go-storefront/pkg/helpers"
)

var catalog = []entity.Product{
	{Name: "Canvas Tote", Description: "Heavy cotton tote bag.", Price: decimal.RequireFromString("18.00"), Category: "bags", Brand: "Northline", Stock: 120},
	{Name: "Trail Runner", Description: "Lightweight running shoe.", Price: decimal.RequireFromString("89.90"), OriginalPrice: decimal.RequireFromString("119.00"), Category: "shoes", Brand: "Stride", Stock: 40},
	{Name: "Merino Beanie", Description: "Warm knit beanie.", Price: decimal.RequireFromString("24.50"), Category: "accessories", Brand: "Northline", Stock: 75},
	{Name: "Steel Bottle", Description: "Insulated 750ml bottle.", Price: decimal.RequireFromString("29.99"), Category: "accessories", Brand: "Hydra", Stock: 200},
	{Name: "Rain Shell", Description: "Packable waterproof jacket.", Price: decimal.RequireFromString("129.00"), OriginalPrice: decimal.RequireFromString("159.00"), Category: "outerwear", Brand: "Stride", Stock: 25},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{MaxConns: 2})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	mc, err := mongoinfra.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}
	defer func() { _ = mc.Disconnect(context.Background()) }()
	mdb := mc.Database(cfg.MongoDatabase)
	if err := mongoinfra.EnsureIndexes(ctx, mdb); err != nil {
		log.Fatalf("failed to ensure indexes: %v", err)
	}

	products := mongoinfra.NewProductRepository(mdb)
	if _, total, err := products.List(ctx, repository.ProductFilter{Page: 1, Limit: 1}); err != nil {
		log.Fatalf("failed to count products: %v", err)
	} else if total > 0 {
		fmt.Printf("catalog already has %d products, skipping\n", total)
	} else {
		for i := range catalog {
			p := catalog[i]
			if err := products.Create(ctx, &p); err != nil {
				log.Fatalf("failed to seed product %q: %v", p.Name, err)
			}
			fmt.Printf("seeded product: id=%s name=%s price=%s\n", p.ID, p.Name, p.Price.StringFixed(2))
		}
	}

	users := pginfra.NewUserRepository(pool)
	seedUser(ctx, users, "demo@example.com", "demoUser", "password123", true)
	// Unverified account: signing in returns 403 until send-otp and verify complete.
	seedUser(ctx, users, "pending@example.com", "pendingUser", "password123", false)
}

func seedUser(ctx context.Context, users *pginfra.UserRepository, email, username, password string, verified bool) {
	if u, err := users.GetByEmail(ctx, email); err == nil {
		fmt.Printf("user exists: id=%s email=%s\n", u.ID, u.Email)
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		log.Fatalf("failed to look up %s: %v", email, err)
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	now := time.Now()
	u := &entity.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Verified:     verified,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, u); err != nil {
		log.Fatalf("failed to seed user %s: %v", email, err)
	}
	fmt.Printf("seeded user: id=%s email=%s verified=%v password=%s\n", u.ID, email, verified, password)
}
