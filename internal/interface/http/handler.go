package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-storefront/internal/domain/entity"
	"github.com/oksasatya/go-storefront/pkg/apperror"
	"github.com/oksasatya/go-storefront/pkg/helpers"
	"github.com/oksasatya/go-storefront/pkg/response"
	"github.com/oksasatya/go-storefront/pkg/validation"
)

// writeError renders err as an envelope. Internal failures are logged with the request id.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	if apperror.KindOf(err) == apperror.KindInternal {
		helpers.RequestLogger(logger, c).WithError(err).Error("request failed")
	}
	response.FromError(c, err)
}

func badPayload(c *gin.Context, err error) {
	response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}

func clientIP(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	return c.ClientIP()
}

type userResponse struct {
	ID        string           `json:"id"`
	Email     string           `json:"email"`
	Username  string           `json:"username"`
	Verified  bool             `json:"verified"`
	AvatarURL string           `json:"avatar_url"`
	Addresses []entity.Address `json:"addresses"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func toUserResponse(u *entity.User) userResponse {
	addrs := u.Addresses
	if addrs == nil {
		addrs = []entity.Address{}
	}
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Verified:  u.Verified,
		AvatarURL: u.AvatarURL,
		Addresses: addrs,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
