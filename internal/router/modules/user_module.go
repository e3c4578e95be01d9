package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-storefront/internal/interface/http"
	"github.com/oksasatya/go-storefront/internal/interface/middleware"
)

type UserModule struct {
	Handler *handlers.UserHandler
	Redis   *redis.Client
}

func NewUserModule(h *handlers.UserHandler, rdb *redis.Client) *UserModule {
	return &UserModule{Handler: h, Redis: rdb}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	user := rg.Group("/user")
	user.Use(
		middleware.RateLimit(m.Redis, 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		user.GET("/profile", m.Handler.GetProfile)
		user.PUT("/profile", m.Handler.UpdateProfile)
		user.GET("/addresses", m.Handler.ListAddresses)
		user.POST("/addresses", m.Handler.AddAddress)
		user.PUT("/addresses/:id", m.Handler.UpdateAddress)
		user.DELETE("/addresses/:id", m.Handler.DeleteAddress)
	}
}
