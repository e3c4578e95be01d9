package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-storefront/internal/interface/http"
	"github.com/oksasatya/go-storefront/internal/interface/middleware"
)

// ProductModule: catalog reads are public, posting a review needs a session.
type ProductModule struct {
	Handler *handlers.ProductHandler
	Redis   *redis.Client
}

func NewProductModule(h *handlers.ProductHandler, rdb *redis.Client) *ProductModule {
	return &ProductModule{Handler: h, Redis: rdb}
}

func (m *ProductModule) Register(rg *gin.RouterGroup) {
	readLimiter := middleware.RateLimit(m.Redis, 300, time.Minute, middleware.KeyByIP(), nil)
	reviewLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByUserID(), nil)

	products := rg.Group("/products")
	products.GET("", readLimiter, m.Handler.List)
	products.GET("/featured", readLimiter, m.Handler.Featured)
	products.GET("/deals", readLimiter, m.Handler.Deals)
	products.GET("/:id", readLimiter, m.Handler.Get)
	products.POST("/:id/reviews", reviewLimiter, m.Handler.AddReview)
}
