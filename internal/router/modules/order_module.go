package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-storefront/internal/interface/http"
	"github.com/oksasatya/go-storefront/internal/interface/middleware"
)

// OrderModule: POST /api/checkout, GET /api/orders, /api/orders/previous-products, /api/orders/:id
type OrderModule struct {
	Handler *handlers.OrderHandler
	Redis   *redis.Client
}

func NewOrderModule(h *handlers.OrderHandler, rdb *redis.Client) *OrderModule {
	return &OrderModule{Handler: h, Redis: rdb}
}

func (m *OrderModule) Register(rg *gin.RouterGroup) {
	checkoutLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByUserID(), nil)
	rg.POST("/checkout", checkoutLimiter, m.Handler.Checkout)

	orders := rg.Group("/orders")
	orders.Use(middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		orders.GET("", m.Handler.List)
		orders.GET("/previous-products", m.Handler.PreviousProducts)
		orders.GET("/:id", m.Handler.Get)
	}
}
