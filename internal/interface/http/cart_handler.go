package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-storefront/internal/application"
	"github.com/oksasatya/go-storefront/internal/interface/middleware"
	"github.com/oksasatya/go-storefront/pkg/response"
)

type CartHandler struct {
	Svc    *application.CartService
	Logger *logrus.Logger
}

func NewCartHandler(svc *application.CartService, logger *logrus.Logger) *CartHandler {
	return &CartHandler{Svc: svc, Logger: logger}
}

type addToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"omitempty,min=0,max=999"`
}

type updateCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  *int   `json:"quantity" binding:"required,min=0,max=999"`
}

type removeFromCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

// Get GET /api/cart
func (h *CartHandler) Get(c *gin.Context) {
	cart, err := h.Svc.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, cart, "cart", nil)
}

// Add POST /api/cart/add; quantity defaults to 1.
func (h *CartHandler) Add(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	cart, err := h.Svc.Add(c.Request.Context(), middleware.UserID(c), req.ProductID, req.Quantity)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, cart, "item added", nil)
}

// Update POST /api/cart/update; quantity <= 0 removes the line.
func (h *CartHandler) Update(c *gin.Context) {
	var req updateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	cart, err := h.Svc.Update(c.Request.Context(), middleware.UserID(c), req.ProductID, *req.Quantity)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, cart, "cart updated", nil)
}

// Remove POST /api/cart/remove
func (h *CartHandler) Remove(c *gin.Context) {
	var req removeFromCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	cart, err := h.Svc.Remove(c.Request.Context(), middleware.UserID(c), req.ProductID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, cart, "item removed", nil)
}
