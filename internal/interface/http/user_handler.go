package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-storefront/internal/application"
	"github.com/oksasatya/go-storefront/internal/domain/entity"
	"github.com/oksasatya/go-storefront/internal/interface/middleware"
	"github.com/oksasatya/go-storefront/pkg/response"
)

type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type updateProfileRequest struct {
	Username  *string `json:"username" binding:"omitempty,min=2,max=50"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,url"`
}

type coordinatesRequest struct {
	Lat float64 `json:"lat" binding:"latitude"`
	Lng float64 `json:"lng" binding:"longitude"`
}

type addressRequest struct {
	Street      string              `json:"street" binding:"required"`
	City        string              `json:"city" binding:"required"`
	State       string              `json:"state"`
	PostalCode  string              `json:"postal_code" binding:"required"`
	Country     string              `json:"country" binding:"required"`
	AddressType string              `json:"address_type" binding:"omitempty,oneof=home work other"`
	IsDefault   bool                `json:"is_default"`
	Coordinates *coordinatesRequest `json:"coordinates"`
}

func (r addressRequest) input() application.AddressInput {
	in := application.AddressInput{
		Street:      r.Street,
		City:        r.City,
		State:       r.State,
		PostalCode:  r.PostalCode,
		Country:     r.Country,
		AddressType: r.AddressType,
		IsDefault:   r.IsDefault,
	}
	if r.Coordinates != nil {
		in.Coordinates = &entity.Coordinates{Lat: r.Coordinates.Lat, Lng: r.Coordinates.Lng}
	}
	return in
}

// GetProfile GET /api/user/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "profile", nil)
}

// UpdateProfile PUT /api/user/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), middleware.UserID(c), application.UpdateProfileInput{
		Username:  req.Username,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "profile updated", nil)
}

// ListAddresses GET /api/user/addresses
func (h *UserHandler) ListAddresses(c *gin.Context) {
	addrs, err := h.Svc.ListAddresses(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, addrs, "addresses", nil)
}

// AddAddress POST /api/user/addresses
func (h *UserHandler) AddAddress(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	a, err := h.Svc.AddAddress(c.Request.Context(), middleware.UserID(c), req.input())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, a, "address added", nil)
}

// UpdateAddress PUT /api/user/addresses/:id
func (h *UserHandler) UpdateAddress(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	a, err := h.Svc.UpdateAddress(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.input())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, a, "address updated", nil)
}

// DeleteAddress DELETE /api/user/addresses/:id
func (h *UserHandler) DeleteAddress(c *gin.Context) {
	if err := h.Svc.DeleteAddress(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true}, "address deleted", nil)
}
