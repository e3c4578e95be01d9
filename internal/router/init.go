package router

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/oksasatya/go-storefront/internal/application"
	"github.com/oksasatya/go-storefront/internal/container"
	"github.com/oksasatya/go-storefront/internal/domain/entity"
	"github.com/oksasatya/go-storefront/internal/infrastructure/cache"
	mongoinfra "github.com/oksasatya/go-storefront/internal/infrastructure/mongodb"
	pginfra "github.com/oksasatya/go-storefront/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/go-storefront/internal/interface/http"
	"github.com/oksasatya/go-storefront/internal/router/modules"
)

// Services groups the application layer built from the container singletons.
type Services struct {
	Auth    *application.AuthService
	Cart    *application.CartService
	Orders  *application.OrderService
	Users   *application.UserService
	Catalog *application.CatalogService
}

func buildServices() Services {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()
	mdb := container.GetMongo()

	tx := pginfra.NewTxManager(pool)
	users := pginfra.NewUserRepository(pool)
	addresses := pginfra.NewAddressRepository(pool)
	carts := pginfra.NewCartRepository(pool)
	orders := pginfra.NewOrderRepository(pool)
	products := cache.NewProductRepository(mongoinfra.NewProductRepository(mdb), container.GetRedis(), cfg.ProductCacheTTL, logger)
	reviews := mongoinfra.NewReviewRepository(mdb)

	pricing := entity.Pricing{
		FreeShippingOver: decimal.NewFromFloat(cfg.FreeShippingOver),
		FlatShipping:     decimal.NewFromFloat(cfg.FlatShipping),
		TaxRate:          decimal.NewFromFloat(cfg.TaxRate),
	}
	policy := application.OTPPolicy{TTL: cfg.OTPTTL, Cooldown: cfg.OTPCooldown, MaxAttempts: cfg.OTPMaxAttempts}

	return Services{
		Auth: application.NewAuthService(users, pginfra.NewPendingRegistrationRepository(pool),
			pginfra.NewOneTimeCodeRepository(pool), tx, container.GetJWT(), container.GetCodeSender(), policy, logger),
		Cart:    application.NewCartService(carts, products, pricing, logger),
		Orders:  application.NewOrderService(carts, orders, products, users, addresses, tx, pricing, logger),
		Users:   application.NewUserService(users, addresses, tx, logger),
		Catalog: application.NewCatalogService(products, reviews, users, logger),
	}
}

func healthChecks() map[string]handlers.HealthCheck {
	return map[string]handlers.HealthCheck{
		"postgres": func(ctx context.Context) error { return container.GetPGPool().Ping(ctx) },
		"mongodb":  func(ctx context.Context) error { return container.GetMongo().Client().Ping(ctx, nil) },
		"redis":    func(ctx context.Context) error { return container.GetRedis().Ping(ctx).Err() },
	}
}

// InitModules builds services and handlers from the container and registers every module.
// Call once during startup, after the container is populated.
func InitModules(r *Registry) {
	svc := buildServices()
	logger := container.GetLogger()
	rdb := container.GetRedis()
	audit := pginfra.NewAuditRepository(container.GetPGPool())

	r.Add(modules.NewHealthModule(handlers.NewHealthHandler(healthChecks())))
	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(svc.Auth, audit, container.GetCookies(), logger), rdb))
	r.Add(modules.NewProductModule(handlers.NewProductHandler(svc.Catalog, logger), rdb))
	r.Add(modules.NewCartModule(handlers.NewCartHandler(svc.Cart, logger), rdb))
	r.Add(modules.NewOrderModule(handlers.NewOrderHandler(svc.Orders, logger), rdb))
	r.Add(modules.NewUserModule(handlers.NewUserHandler(svc.Users, logger), rdb))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(rdb))
	}
}
