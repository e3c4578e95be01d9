package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-storefront/internal/interface/http"
	"github.com/oksasatya/go-storefront/internal/interface/middleware"
)

type CartModule struct {
	Handler *handlers.CartHandler
	Redis   *redis.Client
}

func NewCartModule(h *handlers.CartHandler, rdb *redis.Client) *CartModule {
	return &CartModule{Handler: h, Redis: rdb}
}

func (m *CartModule) Register(rg *gin.RouterGroup) {
	cart := rg.Group("/cart")
	cart.Use(middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		cart.GET("", m.Handler.Get)
		cart.POST("/add", m.Handler.Add)
		cart.POST("/update", m.Handler.Update)
		cart.POST("/remove", m.Handler.Remove)
	}
}
